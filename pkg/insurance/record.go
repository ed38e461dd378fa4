package insurance

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Type enumerates the supported lines of business.
type Type string

const (
	TypeHome       Type = "HOME"
	TypeAuto       Type = "AUTO"
	TypeFlood      Type = "FLOOD"
	TypeLife       Type = "LIFE"
	TypeCommercial Type = "COMMERCIAL"
)

// ParseType normalizes a caller-supplied insurance type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeHome:
		return TypeHome, nil
	case TypeAuto:
		return TypeAuto, nil
	case TypeFlood:
		return TypeFlood, nil
	case TypeLife:
		return TypeLife, nil
	case TypeCommercial:
		return TypeCommercial, nil
	default:
		return "", fmt.Errorf("unknown insurance type: %q", s)
	}
}

// AllTypes lists every supported line, in a stable order.
func AllTypes() []Type {
	return []Type{TypeHome, TypeAuto, TypeFlood, TypeLife, TypeCommercial}
}

// HomeData holds homeowner intake fields. Optional fields are pointers
// so an explicitly provided false/zero value survives merging.
type HomeData struct {
	FullName        *string `json:"full_name,omitempty"`
	DateOfBirth     *string `json:"date_of_birth,omitempty"`
	PropertyAddress *string `json:"property_address,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Email           *string `json:"email,omitempty"`
	SpouseName      *string `json:"spouse_name,omitempty"`
	HasSolarPanels  *bool   `json:"has_solar_panels,omitempty"`
	HasPool         *bool   `json:"has_pool,omitempty"`
	RoofAge         *int    `json:"roof_age,omitempty"`
	HasPets         *bool   `json:"has_pets,omitempty"`
	CurrentProvider *string `json:"current_provider,omitempty"`
	RenewalDate     *string `json:"renewal_date,omitempty"`
}

type AutoData struct {
	DriverName    *string  `json:"driver_name,omitempty"`
	DriverDOB     *string  `json:"driver_dob,omitempty"`
	LicenseNumber *string  `json:"license_number,omitempty"`
	Qualification *string  `json:"qualification,omitempty"`
	Profession    *string  `json:"profession,omitempty"`
	GPA           *float64 `json:"gpa,omitempty"`
	VIN           *string  `json:"vin,omitempty"`
	VehicleMake   *string  `json:"vehicle_make,omitempty"`
	VehicleModel  *string  `json:"vehicle_model,omitempty"`
	CoverageType  *string  `json:"coverage_type,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Email         *string  `json:"email,omitempty"`
}

type FloodData struct {
	FullName    *string `json:"full_name,omitempty"`
	HomeAddress *string `json:"home_address,omitempty"`
	Email       *string `json:"email,omitempty"`
}

type LifeData struct {
	FullName             *string `json:"full_name,omitempty"`
	DateOfBirth          *string `json:"date_of_birth,omitempty"`
	AppointmentRequested *bool   `json:"appointment_requested,omitempty"`
	AppointmentDate      *string `json:"appointment_date,omitempty"`
	PolicyType           *string `json:"policy_type,omitempty"`
	Phone                *string `json:"phone,omitempty"`
	Email                *string `json:"email,omitempty"`
}

type CommercialData struct {
	BusinessName          *string  `json:"business_name,omitempty"`
	BusinessType          *string  `json:"business_type,omitempty"`
	BusinessAddress       *string  `json:"business_address,omitempty"`
	InventoryLimit        *float64 `json:"inventory_limit,omitempty"`
	BuildingCoverage      *bool    `json:"building_coverage,omitempty"`
	BuildingCoverageLimit *float64 `json:"building_coverage_limit,omitempty"`
	Phone                 *string  `json:"phone,omitempty"`
	Email                 *string  `json:"email,omitempty"`
}

// Record is the in-progress intake data for one line of business.
// Exactly one variant pointer is non-nil, matching Type.
type Record struct {
	Type       Type            `json:"type"`
	Home       *HomeData       `json:"home,omitempty"`
	Auto       *AutoData       `json:"auto,omitempty"`
	Flood      *FloodData      `json:"flood,omitempty"`
	Life       *LifeData       `json:"life,omitempty"`
	Commercial *CommercialData `json:"commercial,omitempty"`
}

// NewRecord creates an empty record for the given line.
func NewRecord(t Type) *Record {
	r := &Record{Type: t}
	switch t {
	case TypeHome:
		r.Home = &HomeData{}
	case TypeAuto:
		r.Auto = &AutoData{}
	case TypeFlood:
		r.Flood = &FloodData{}
	case TypeLife:
		r.Life = &LifeData{}
	case TypeCommercial:
		r.Commercial = &CommercialData{}
	}
	return r
}

// ParseArgs builds a record from raw tool-call arguments. Keys absent
// from args stay nil; present keys become set fields, so an explicit
// false or empty string is preserved and will overwrite on merge.
func ParseArgs(t Type, args map[string]interface{}) (*Record, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	r := NewRecord(t)
	var dst interface{}
	switch t {
	case TypeHome:
		dst = r.Home
	case TypeAuto:
		dst = r.Auto
	case TypeFlood:
		dst = r.Flood
	case TypeLife:
		dst = r.Life
	case TypeCommercial:
		dst = r.Commercial
	default:
		return nil, fmt.Errorf("unknown insurance type: %q", t)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, fmt.Errorf("parse %s fields: %w", t, err)
	}
	return r, nil
}

// Merge folds incoming into r field by field. A nil incoming field
// keeps the existing value; a set field overwrites, even when it holds
// a falsy value like false or "".
func (r *Record) Merge(incoming *Record) error {
	if incoming == nil {
		return nil
	}
	if incoming.Type != r.Type {
		return fmt.Errorf("cannot merge %s data into a %s record", incoming.Type, r.Type)
	}

	switch r.Type {
	case TypeHome:
		mergeHome(r.Home, incoming.Home)
	case TypeAuto:
		mergeAuto(r.Auto, incoming.Auto)
	case TypeFlood:
		mergeFlood(r.Flood, incoming.Flood)
	case TypeLife:
		mergeLife(r.Life, incoming.Life)
	case TypeCommercial:
		mergeCommercial(r.Commercial, incoming.Commercial)
	}
	return nil
}

func mergeHome(dst, src *HomeData) {
	if src == nil {
		return
	}
	if src.FullName != nil {
		dst.FullName = src.FullName
	}
	if src.DateOfBirth != nil {
		dst.DateOfBirth = src.DateOfBirth
	}
	if src.PropertyAddress != nil {
		dst.PropertyAddress = src.PropertyAddress
	}
	if src.Phone != nil {
		dst.Phone = src.Phone
	}
	if src.Email != nil {
		dst.Email = src.Email
	}
	if src.SpouseName != nil {
		dst.SpouseName = src.SpouseName
	}
	if src.HasSolarPanels != nil {
		dst.HasSolarPanels = src.HasSolarPanels
	}
	if src.HasPool != nil {
		dst.HasPool = src.HasPool
	}
	if src.RoofAge != nil {
		dst.RoofAge = src.RoofAge
	}
	if src.HasPets != nil {
		dst.HasPets = src.HasPets
	}
	if src.CurrentProvider != nil {
		dst.CurrentProvider = src.CurrentProvider
	}
	if src.RenewalDate != nil {
		dst.RenewalDate = src.RenewalDate
	}
}

func mergeAuto(dst, src *AutoData) {
	if src == nil {
		return
	}
	if src.DriverName != nil {
		dst.DriverName = src.DriverName
	}
	if src.DriverDOB != nil {
		dst.DriverDOB = src.DriverDOB
	}
	if src.LicenseNumber != nil {
		dst.LicenseNumber = src.LicenseNumber
	}
	if src.Qualification != nil {
		dst.Qualification = src.Qualification
	}
	if src.Profession != nil {
		dst.Profession = src.Profession
	}
	if src.GPA != nil {
		dst.GPA = src.GPA
	}
	if src.VIN != nil {
		dst.VIN = src.VIN
	}
	if src.VehicleMake != nil {
		dst.VehicleMake = src.VehicleMake
	}
	if src.VehicleModel != nil {
		dst.VehicleModel = src.VehicleModel
	}
	if src.CoverageType != nil {
		dst.CoverageType = src.CoverageType
	}
	if src.Phone != nil {
		dst.Phone = src.Phone
	}
	if src.Email != nil {
		dst.Email = src.Email
	}
}

func mergeFlood(dst, src *FloodData) {
	if src == nil {
		return
	}
	if src.FullName != nil {
		dst.FullName = src.FullName
	}
	if src.HomeAddress != nil {
		dst.HomeAddress = src.HomeAddress
	}
	if src.Email != nil {
		dst.Email = src.Email
	}
}

func mergeLife(dst, src *LifeData) {
	if src == nil {
		return
	}
	if src.FullName != nil {
		dst.FullName = src.FullName
	}
	if src.DateOfBirth != nil {
		dst.DateOfBirth = src.DateOfBirth
	}
	if src.AppointmentRequested != nil {
		dst.AppointmentRequested = src.AppointmentRequested
	}
	if src.AppointmentDate != nil {
		dst.AppointmentDate = src.AppointmentDate
	}
	if src.PolicyType != nil {
		dst.PolicyType = src.PolicyType
	}
	if src.Phone != nil {
		dst.Phone = src.Phone
	}
	if src.Email != nil {
		dst.Email = src.Email
	}
}

func mergeCommercial(dst, src *CommercialData) {
	if src == nil {
		return
	}
	if src.BusinessName != nil {
		dst.BusinessName = src.BusinessName
	}
	if src.BusinessType != nil {
		dst.BusinessType = src.BusinessType
	}
	if src.BusinessAddress != nil {
		dst.BusinessAddress = src.BusinessAddress
	}
	if src.InventoryLimit != nil {
		dst.InventoryLimit = src.InventoryLimit
	}
	if src.BuildingCoverage != nil {
		dst.BuildingCoverage = src.BuildingCoverage
	}
	if src.BuildingCoverageLimit != nil {
		dst.BuildingCoverageLimit = src.BuildingCoverageLimit
	}
	if src.Phone != nil {
		dst.Phone = src.Phone
	}
	if src.Email != nil {
		dst.Email = src.Email
	}
}

// Fields flattens the set fields of the active variant into a map,
// for persistence and note formatting.
func (r *Record) Fields() map[string]interface{} {
	var src interface{}
	switch r.Type {
	case TypeHome:
		src = r.Home
	case TypeAuto:
		src = r.Auto
	case TypeFlood:
		src = r.Flood
	case TypeLife:
		src = r.Life
	case TypeCommercial:
		src = r.Commercial
	}

	raw, err := json.Marshal(src)
	if err != nil {
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return out
}

// Summary renders the set fields as "key: value" lines, sorted by key.
func (r *Record) Summary() string {
	fields := r.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, fields[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

// ContactName returns the name used for lead creation: the insured for
// personal lines, the business name for commercial.
func (r *Record) ContactName() string {
	switch r.Type {
	case TypeHome:
		return deref(r.Home.FullName)
	case TypeAuto:
		return deref(r.Auto.DriverName)
	case TypeFlood:
		return deref(r.Flood.FullName)
	case TypeLife:
		return deref(r.Life.FullName)
	case TypeCommercial:
		return deref(r.Commercial.BusinessName)
	}
	return ""
}

// ContactPhone returns the collected phone, empty when the line does
// not capture one (flood).
func (r *Record) ContactPhone() string {
	switch r.Type {
	case TypeHome:
		return deref(r.Home.Phone)
	case TypeAuto:
		return deref(r.Auto.Phone)
	case TypeLife:
		return deref(r.Life.Phone)
	case TypeCommercial:
		return deref(r.Commercial.Phone)
	}
	return ""
}

func (r *Record) ContactEmail() string {
	switch r.Type {
	case TypeHome:
		return deref(r.Home.Email)
	case TypeAuto:
		return deref(r.Auto.Email)
	case TypeFlood:
		return deref(r.Flood.Email)
	case TypeLife:
		return deref(r.Life.Email)
	case TypeCommercial:
		return deref(r.Commercial.Email)
	}
	return ""
}

// RequiredMissing lists required fields not yet collected. Collection
// stays conversational, so this is reported back to the model rather
// than enforced.
func (r *Record) RequiredMissing() []string {
	var missing []string
	need := func(name string, set bool) {
		if !set {
			missing = append(missing, name)
		}
	}

	switch r.Type {
	case TypeHome:
		need("full_name", r.Home.FullName != nil)
		need("date_of_birth", r.Home.DateOfBirth != nil)
		need("property_address", r.Home.PropertyAddress != nil)
		need("phone", r.Home.Phone != nil)
		need("email", r.Home.Email != nil)
	case TypeAuto:
		need("driver_name", r.Auto.DriverName != nil)
		need("driver_dob", r.Auto.DriverDOB != nil)
		need("license_number", r.Auto.LicenseNumber != nil)
		need("qualification", r.Auto.Qualification != nil)
		need("profession", r.Auto.Profession != nil)
		need("vin", r.Auto.VIN != nil)
		need("vehicle_make", r.Auto.VehicleMake != nil)
		need("vehicle_model", r.Auto.VehicleModel != nil)
		need("phone", r.Auto.Phone != nil)
		need("email", r.Auto.Email != nil)
	case TypeFlood:
		need("full_name", r.Flood.FullName != nil)
		need("home_address", r.Flood.HomeAddress != nil)
		need("email", r.Flood.Email != nil)
	case TypeLife:
		need("full_name", r.Life.FullName != nil)
		need("date_of_birth", r.Life.DateOfBirth != nil)
		need("appointment_requested", r.Life.AppointmentRequested != nil)
		need("phone", r.Life.Phone != nil)
		need("email", r.Life.Email != nil)
	case TypeCommercial:
		need("business_name", r.Commercial.BusinessName != nil)
		need("business_type", r.Commercial.BusinessType != nil)
		need("business_address", r.Commercial.BusinessAddress != nil)
		need("phone", r.Commercial.Phone != nil)
		need("email", r.Commercial.Email != nil)
	}
	return missing
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
