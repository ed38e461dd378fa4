package insurance

import (
	"testing"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func fPtr(f float64) *float64 { return &f }

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{in: "HOME", want: TypeHome},
		{in: "auto", want: TypeAuto},
		{in: "  Flood ", want: TypeFlood},
		{in: "LIFE", want: TypeLife},
		{in: "commercial", want: TypeCommercial},
		{in: "boat", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseType(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseType(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMergeKeepsUnionOfFields(t *testing.T) {
	rec := NewRecord(TypeHome)
	first, err := ParseArgs(TypeHome, map[string]interface{}{
		"full_name": "Jane Doe",
		"phone":     "+15551234567",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Merge(first); err != nil {
		t.Fatal(err)
	}

	second, err := ParseArgs(TypeHome, map[string]interface{}{
		"property_address": "12 Ocean Dr",
		"roof_age":         7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Merge(second); err != nil {
		t.Fatal(err)
	}

	if got := deref(rec.Home.FullName); got != "Jane Doe" {
		t.Errorf("full_name lost across merges: %q", got)
	}
	if got := deref(rec.Home.PropertyAddress); got != "12 Ocean Dr" {
		t.Errorf("property_address = %q", got)
	}
	if rec.Home.RoofAge == nil || *rec.Home.RoofAge != 7 {
		t.Errorf("roof_age = %v, want 7", rec.Home.RoofAge)
	}
}

func TestMergeExplicitFalsyOverwrites(t *testing.T) {
	rec := NewRecord(TypeHome)
	rec.Home.HasPool = boolPtr(true)
	rec.Home.SpouseName = strPtr("Alex Doe")

	// Explicit false and explicit empty string must overwrite.
	incoming, err := ParseArgs(TypeHome, map[string]interface{}{
		"has_pool":    false,
		"spouse_name": "",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Merge(incoming); err != nil {
		t.Fatal(err)
	}

	if rec.Home.HasPool == nil || *rec.Home.HasPool != false {
		t.Errorf("explicit false did not overwrite: %v", rec.Home.HasPool)
	}
	if rec.Home.SpouseName == nil || *rec.Home.SpouseName != "" {
		t.Errorf("explicit empty string did not overwrite: %v", rec.Home.SpouseName)
	}

	// Absent keys must not clear anything.
	later, err := ParseArgs(TypeHome, map[string]interface{}{"full_name": "Jane Doe"})
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Merge(later); err != nil {
		t.Fatal(err)
	}
	if rec.Home.HasPool == nil || *rec.Home.HasPool != false {
		t.Errorf("absent key cleared has_pool: %v", rec.Home.HasPool)
	}
}

func TestMergeRejectsTypeMismatch(t *testing.T) {
	rec := NewRecord(TypeAuto)
	if err := rec.Merge(NewRecord(TypeHome)); err == nil {
		t.Fatal("expected merge type mismatch error")
	}
}

func TestRequiredMissing(t *testing.T) {
	rec := NewRecord(TypeFlood)
	rec.Flood.FullName = strPtr("Jane Doe")

	missing := rec.RequiredMissing()
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want home_address and email", missing)
	}

	rec.Flood.HomeAddress = strPtr("12 Ocean Dr")
	rec.Flood.Email = strPtr("jane@example.com")
	if missing := rec.RequiredMissing(); len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
}

func TestContactAccessors(t *testing.T) {
	auto := NewRecord(TypeAuto)
	auto.Auto.DriverName = strPtr("Sam Park")
	auto.Auto.Phone = strPtr("+15550001111")
	auto.Auto.Email = strPtr("sam@example.com")
	auto.Auto.GPA = fPtr(3.5)

	if auto.ContactName() != "Sam Park" {
		t.Errorf("ContactName = %q", auto.ContactName())
	}
	if auto.ContactPhone() != "+15550001111" {
		t.Errorf("ContactPhone = %q", auto.ContactPhone())
	}

	// Flood captures no phone.
	flood := NewRecord(TypeFlood)
	flood.Flood.Email = strPtr("jane@example.com")
	if flood.ContactPhone() != "" {
		t.Errorf("flood ContactPhone = %q, want empty", flood.ContactPhone())
	}
	if flood.ContactEmail() != "jane@example.com" {
		t.Errorf("flood ContactEmail = %q", flood.ContactEmail())
	}
}

func TestFieldsOmitsUnset(t *testing.T) {
	rec := NewRecord(TypeCommercial)
	rec.Commercial.BusinessName = strPtr("Acme LLC")
	rec.Commercial.BuildingCoverage = boolPtr(false)

	fields := rec.Fields()
	if len(fields) != 2 {
		t.Fatalf("Fields() = %v, want exactly the two set fields", fields)
	}
	if fields["business_name"] != "Acme LLC" {
		t.Errorf("business_name = %v", fields["business_name"])
	}
	if fields["building_coverage"] != false {
		t.Errorf("building_coverage = %v, want false preserved", fields["building_coverage"])
	}
}

func TestParseArgsIgnoresUnknownKeys(t *testing.T) {
	rec, err := ParseArgs(TypeLife, map[string]interface{}{
		"full_name":    "Jane Doe",
		"hallucinated": "value",
	})
	if err != nil {
		t.Fatal(err)
	}
	if deref(rec.Life.FullName) != "Jane Doe" {
		t.Errorf("full_name = %q", deref(rec.Life.FullName))
	}
}
