package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"insurance-intake-be/internal/entity"
	"insurance-intake-be/internal/mapper"
	"insurance-intake-be/internal/pkg/logger"
	"insurance-intake-be/internal/repository/contract"
	"insurance-intake-be/internal/repository/specification"
	"insurance-intake-be/pkg/crm"
	"insurance-intake-be/pkg/fault"
	"insurance-intake-be/pkg/insurance"
	"insurance-intake-be/pkg/llm"
	"insurance-intake-be/pkg/policy"
	"insurance-intake-be/pkg/store"
	"insurance-intake-be/pkg/tools"
	"insurance-intake-be/pkg/utils"
)

// IntakeToolsService owns the tool surface exposed to the model. Every
// handler operates on the caller's session and reports back in plain
// text the model can relay.
type IntakeToolsService struct {
	crmClient    crm.IClient
	policyClient policy.IClient
	quoteRepo    contract.QuoteRequestRepository
	mapper       *mapper.IntakeMapper
	logger       logger.ILogger
}

func NewIntakeToolsService(
	crmClient crm.IClient,
	policyClient policy.IClient,
	quoteRepo contract.QuoteRequestRepository,
	log logger.ILogger,
) *IntakeToolsService {
	return &IntakeToolsService{
		crmClient:    crmClient,
		policyClient: policyClient,
		quoteRepo:    quoteRepo,
		mapper:       mapper.NewIntakeMapper(),
		logger:       log,
	}
}

// Registry builds the full tool set in the order it is advertised.
func (s *IntakeToolsService) Registry() *tools.Registry {
	r := tools.NewRegistry(s.logger)

	r.Register(tools.Tool{
		Name:        "set_user_action",
		Description: "Declare what the caller wants to do before collecting any data. Must be called before any collect tool.",
		Parameters: []llm.ToolParam{
			{Name: "action", Type: "string", Description: "Whether the caller wants a new policy or a change to an existing one.", Required: true, Enum: []string{"ADD", "UPDATE"}},
			{Name: "insurance_type", Type: "string", Description: "The line of business the caller is asking about.", Required: true, Enum: []string{"HOME", "AUTO", "FLOOD", "LIFE", "COMMERCIAL"}},
		},
		Handler: s.setUserAction,
	})

	r.Register(tools.Tool{
		Name:        "collect_home_insurance_data",
		Description: "Record homeowner insurance details as the caller provides them. Call repeatedly; new values merge into what was already collected.",
		Parameters: []llm.ToolParam{
			{Name: "full_name", Type: "string", Description: "Caller's full legal name."},
			{Name: "date_of_birth", Type: "string", Description: "Caller's date of birth."},
			{Name: "property_address", Type: "string", Description: "Address of the property to insure."},
			{Name: "phone", Type: "string", Description: "Best contact phone number."},
			{Name: "email", Type: "string", Description: "Contact email address."},
			{Name: "spouse_name", Type: "string", Description: "Spouse's name, if any."},
			{Name: "has_solar_panels", Type: "boolean", Description: "Whether the property has solar panels."},
			{Name: "has_pool", Type: "boolean", Description: "Whether the property has a pool."},
			{Name: "roof_age", Type: "integer", Description: "Age of the roof in years."},
			{Name: "has_pets", Type: "boolean", Description: "Whether there are pets in the home."},
			{Name: "current_provider", Type: "string", Description: "Current insurance provider, if any."},
			{Name: "renewal_date", Type: "string", Description: "Current policy renewal date."},
		},
		Handler: s.collectHandler(insurance.TypeHome),
	})

	r.Register(tools.Tool{
		Name:        "collect_auto_insurance_data",
		Description: "Record auto insurance details as the caller provides them. Call repeatedly; new values merge into what was already collected.",
		Parameters: []llm.ToolParam{
			{Name: "driver_name", Type: "string", Description: "Primary driver's full name."},
			{Name: "driver_dob", Type: "string", Description: "Primary driver's date of birth."},
			{Name: "license_number", Type: "string", Description: "Driver's license number."},
			{Name: "qualification", Type: "string", Description: "Highest education qualification."},
			{Name: "profession", Type: "string", Description: "Driver's profession."},
			{Name: "gpa", Type: "number", Description: "Student GPA, for good-student discounts."},
			{Name: "vin", Type: "string", Description: "Vehicle identification number."},
			{Name: "vehicle_make", Type: "string", Description: "Vehicle make."},
			{Name: "vehicle_model", Type: "string", Description: "Vehicle model."},
			{Name: "coverage_type", Type: "string", Description: "Desired coverage type."},
			{Name: "phone", Type: "string", Description: "Best contact phone number."},
			{Name: "email", Type: "string", Description: "Contact email address."},
		},
		Handler: s.collectHandler(insurance.TypeAuto),
	})

	r.Register(tools.Tool{
		Name:        "collect_flood_insurance_data",
		Description: "Record flood insurance details as the caller provides them. Call repeatedly; new values merge into what was already collected.",
		Parameters: []llm.ToolParam{
			{Name: "full_name", Type: "string", Description: "Caller's full legal name."},
			{Name: "home_address", Type: "string", Description: "Address of the property to insure."},
			{Name: "email", Type: "string", Description: "Contact email address."},
		},
		Handler: s.collectHandler(insurance.TypeFlood),
	})

	r.Register(tools.Tool{
		Name:        "collect_life_insurance_data",
		Description: "Record life insurance details as the caller provides them. Call repeatedly; new values merge into what was already collected.",
		Parameters: []llm.ToolParam{
			{Name: "full_name", Type: "string", Description: "Caller's full legal name."},
			{Name: "date_of_birth", Type: "string", Description: "Caller's date of birth."},
			{Name: "appointment_requested", Type: "boolean", Description: "Whether the caller wants an agent appointment."},
			{Name: "appointment_date", Type: "string", Description: "Preferred appointment date."},
			{Name: "policy_type", Type: "string", Description: "Desired policy type, e.g. term or whole life."},
			{Name: "phone", Type: "string", Description: "Best contact phone number."},
			{Name: "email", Type: "string", Description: "Contact email address."},
		},
		Handler: s.collectHandler(insurance.TypeLife),
	})

	r.Register(tools.Tool{
		Name:        "collect_commercial_insurance_data",
		Description: "Record commercial insurance details as the caller provides them. Call repeatedly; new values merge into what was already collected.",
		Parameters: []llm.ToolParam{
			{Name: "business_name", Type: "string", Description: "Legal business name."},
			{Name: "business_type", Type: "string", Description: "What the business does."},
			{Name: "business_address", Type: "string", Description: "Business address."},
			{Name: "inventory_limit", Type: "number", Description: "Requested inventory coverage limit."},
			{Name: "building_coverage", Type: "boolean", Description: "Whether building coverage is needed."},
			{Name: "building_coverage_limit", Type: "number", Description: "Requested building coverage limit."},
			{Name: "phone", Type: "string", Description: "Best contact phone number."},
			{Name: "email", Type: "string", Description: "Contact email address."},
		},
		Handler: s.collectHandler(insurance.TypeCommercial),
	})

	r.Register(tools.Tool{
		Name:        "submit_quote_request",
		Description: "File the collected data as a quote request once the caller confirms. Requires an action and collected data.",
		Handler:     s.submitQuoteRequest,
	})

	r.Register(tools.Tool{
		Name:        "get_policy_by_number",
		Description: "Look up an existing policy by its policy number.",
		Parameters: []llm.ToolParam{
			{Name: "policy_number", Type: "string", Description: "The policy number to look up.", Required: true},
		},
		Handler: s.getPolicyByNumber,
	})

	r.Register(tools.Tool{
		Name:        "get_detailed_policy_info",
		Description: "Show the full details of a policy already looked up with get_policy_by_number.",
		Parameters: []llm.ToolParam{
			{Name: "policy_number", Type: "string", Description: "The policy number already looked up.", Required: true},
		},
		Handler: s.getDetailedPolicyInfo,
	})

	r.Register(tools.Tool{
		Name:        "search_ams360_customer_by_phone",
		Description: "Search the policy management system for customers by phone number.",
		Parameters: []llm.ToolParam{
			{Name: "phone", Type: "string", Description: "Phone number to search for.", Required: true},
		},
		Handler: s.searchCustomerByPhone,
	})

	r.Register(tools.Tool{
		Name:        "search_ams360_customer_by_name",
		Description: "Search the policy management system for customers by name.",
		Parameters: []llm.ToolParam{
			{Name: "name", Type: "string", Description: "Customer name to search for.", Required: true},
		},
		Handler: s.searchCustomerByName,
	})

	r.Register(tools.Tool{
		Name:        "get_ams360_customer_policies",
		Description: "List the policies held by a policy management customer.",
		Parameters: []llm.ToolParam{
			{Name: "customer_id", Type: "string", Description: "Customer number from a prior search.", Required: true},
		},
		Handler: s.getCustomerPolicies,
	})

	r.Register(tools.Tool{
		Name:        "create_agencyzoom_lead",
		Description: "Create a CRM lead directly from contact details, without waiting for full data collection.",
		Parameters: []llm.ToolParam{
			{Name: "name", Type: "string", Description: "Lead's full name.", Required: true},
			{Name: "phone", Type: "string", Description: "Lead's phone number."},
			{Name: "email", Type: "string", Description: "Lead's email address."},
			{Name: "insurance_type", Type: "string", Description: "Line of business of interest.", Enum: []string{"HOME", "AUTO", "FLOOD", "LIFE", "COMMERCIAL"}},
		},
		Handler: s.createLead,
	})

	r.Register(tools.Tool{
		Name:        "search_agencyzoom_contact_by_phone",
		Description: "Search the CRM for an existing contact by phone number.",
		Parameters: []llm.ToolParam{
			{Name: "phone", Type: "string", Description: "Phone number to search for.", Required: true},
		},
		Handler: s.searchContactByPhone,
	})

	r.Register(tools.Tool{
		Name:        "search_agencyzoom_contact_by_email",
		Description: "Search the CRM for an existing contact by email address.",
		Parameters: []llm.ToolParam{
			{Name: "email", Type: "string", Description: "Email address to search for.", Required: true},
		},
		Handler: s.searchContactByEmail,
	})

	r.Register(tools.Tool{
		Name:        "add_note_to_agencyzoom_contact",
		Description: "Attach a note to an existing CRM contact.",
		Parameters: []llm.ToolParam{
			{Name: "contact_id", Type: "string", Description: "CRM contact id from a prior search.", Required: true},
			{Name: "note", Type: "string", Description: "The note text to attach.", Required: true},
		},
		Handler: s.addNoteToContact,
	})

	r.Register(tools.Tool{
		Name:        "submit_collected_data_to_agencyzoom",
		Description: "Push the collected intake data to the CRM as a lead. Requires collected data for the selected line.",
		Handler:     s.submitCollectedData,
	})

	return r
}

// --- Action and collection ---

func (s *IntakeToolsService) setUserAction(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	action, _ := args["action"].(string)
	rawType, _ := args["insurance_type"].(string)

	insType, err := insurance.ParseType(rawType)
	if err != nil {
		return "", fault.Wrap(fault.Validation, err, "insurance_type must be one of HOME, AUTO, FLOOD, LIFE, COMMERCIAL")
	}

	actionType := store.ActionType(strings.ToUpper(strings.TrimSpace(action)))
	if actionType != store.ActionAdd && actionType != store.ActionUpdate {
		return "", fault.New(fault.Validation, "action must be ADD or UPDATE")
	}

	sess.Action = store.ActionContext{Type: actionType, Insurance: insType}

	s.logger.Info("IntakeTools", "User action set", map[string]interface{}{
		"thread_id": sess.ThreadID,
		"action":    string(actionType),
		"insurance": string(insType),
	})

	verb := "add a new"
	if actionType == store.ActionUpdate {
		verb = "update an existing"
	}
	return fmt.Sprintf("Noted: the caller wants to %s %s policy. You can now collect their details.", verb, strings.ToLower(string(insType))), nil
}

// collectHandler builds the merge handler for one line of business. All
// five collect tools share the same shape, only the line differs.
func (s *IntakeToolsService) collectHandler(t insurance.Type) tools.Handler {
	return func(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
		if !sess.Action.Selected() {
			return "", fault.New(fault.NotReady, "Before collecting any details, ask whether the caller wants to add a new policy or update an existing one, then call set_user_action.")
		}

		incoming, err := insurance.ParseArgs(t, args)
		if err != nil {
			return "", fault.Wrap(fault.Validation, err, "the provided %s fields could not be read", strings.ToLower(string(t)))
		}

		rec := sess.Record(t)
		if err := rec.Merge(incoming); err != nil {
			return "", fault.Wrap(fault.Validation, err, "the provided fields do not belong to %s insurance", strings.ToLower(string(t)))
		}

		s.logger.Info("IntakeTools", "Intake data merged", map[string]interface{}{
			"thread_id": sess.ThreadID,
			"insurance": string(t),
			"fields":    len(rec.Fields()),
		})

		missing := rec.RequiredMissing()
		if len(missing) == 0 {
			return fmt.Sprintf("All required %s details are collected:\n%s\nConfirm with the caller before submitting.", strings.ToLower(string(t)), rec.Summary()), nil
		}
		return fmt.Sprintf("Recorded. Collected so far:\n%s\nStill needed: %s.", rec.Summary(), strings.Join(missing, ", ")), nil
	}
}

func (s *IntakeToolsService) submitQuoteRequest(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	if !sess.Action.Selected() {
		return "", fault.New(fault.NotReady, "No action has been selected yet. Call set_user_action before submitting a quote request.")
	}
	rec := sess.ActiveRecord()
	if rec == nil {
		return "", fault.New(fault.NotReady, "No data has been collected yet for this request. Collect the caller's details first.")
	}

	quote := &entity.QuoteRequest{
		Id:            uuid.New(),
		ThreadId:      sess.ThreadID,
		ActionType:    string(sess.Action.Type),
		InsuranceType: string(sess.Action.Insurance),
		Data:          rec.Fields(),
	}
	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		s.logger.Error("IntakeTools", "Failed to persist quote request", map[string]interface{}{
			"thread_id": sess.ThreadID,
			"error":     err.Error(),
		})
		return "", fault.Wrap(fault.External, err, "the quote request could not be saved right now, please try again shortly")
	}

	s.logger.Info("IntakeTools", "Quote request filed", map[string]interface{}{
		"thread_id": sess.ThreadID,
		"quote_id":  quote.Id.String(),
		"insurance": quote.InsuranceType,
	})

	// Collected data stays on the session so a follow-up correction in
	// the same call can be merged and resubmitted.
	msg := fmt.Sprintf("Quote request filed for %s insurance (%s). An agent will follow up.", strings.ToLower(quote.InsuranceType), strings.ToLower(quote.ActionType))
	if missing := rec.RequiredMissing(); len(missing) > 0 {
		msg += fmt.Sprintf(" Note: some details are still missing (%s); the agent may ask for them.", strings.Join(missing, ", "))
	}
	return msg, nil
}

// --- Policy management lookups ---

func (s *IntakeToolsService) getPolicyByNumber(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	number := strings.TrimSpace(args["policy_number"].(string))
	if number == "" {
		return "", fault.New(fault.Validation, "policy_number must not be empty")
	}

	// One external lookup per number per conversation. Hits and
	// definitive misses are cached; only transport failures may retry.
	if entry, ok := sess.CachedPolicy(number); ok {
		if entry.NotFound {
			return fmt.Sprintf("No policy with number %s exists. Double-check the number with the caller.", number), nil
		}
		return formatPolicyBrief(entry.Policy), nil
	}

	p, err := s.policyClient.GetPolicyByNumber(ctx, number)
	if err != nil {
		s.logger.Warn("IntakeTools", "Policy lookup failed", map[string]interface{}{
			"thread_id":     sess.ThreadID,
			"policy_number": number,
			"error":         err.Error(),
		})
		return "", err
	}
	if p == nil {
		sess.CachePolicyMiss(number)
		return fmt.Sprintf("No policy with number %s exists. Double-check the number with the caller.", number), nil
	}

	sess.CachePolicy(number, p)
	return formatPolicyBrief(p), nil
}

func (s *IntakeToolsService) getDetailedPolicyInfo(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	number := strings.TrimSpace(args["policy_number"].(string))

	entry, ok := sess.CachedPolicy(number)
	if !ok {
		return fmt.Sprintf("Policy %s has not been looked up yet. Call get_policy_by_number first.", number), nil
	}
	if entry.NotFound {
		return fmt.Sprintf("Policy %s was already checked and does not exist.", number), nil
	}
	return formatPolicyDetailed(entry.Policy), nil
}

func (s *IntakeToolsService) searchCustomerByPhone(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	phone := utils.FormatPhoneE164(args["phone"].(string))

	customers, err := s.policyClient.SearchCustomersByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if len(customers) == 0 {
		return fmt.Sprintf("No customers found with phone %s.", phone), nil
	}
	return formatCustomers(customers), nil
}

func (s *IntakeToolsService) searchCustomerByName(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	name := strings.TrimSpace(args["name"].(string))

	customers, err := s.policyClient.SearchCustomersByName(ctx, name)
	if err != nil {
		return "", err
	}
	if len(customers) == 0 {
		return fmt.Sprintf("No customers found named %q.", name), nil
	}
	return formatCustomers(customers), nil
}

func (s *IntakeToolsService) getCustomerPolicies(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	customerID := strings.TrimSpace(args["customer_id"].(string))

	policies, err := s.policyClient.GetCustomerPolicies(ctx, customerID)
	if err != nil {
		return "", err
	}
	if len(policies) == 0 {
		return fmt.Sprintf("Customer %s has no policies on file.", customerID), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Customer %s has %d policy(ies):\n", customerID, len(policies))
	for _, p := range policies {
		fmt.Fprintf(&b, "- %s (%s, %s, expires %s)\n", p.PolicyNumber, p.PolicyType, p.Status, p.ExpirationDate)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// --- CRM ---

func (s *IntakeToolsService) createLead(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	name, _ := args["name"].(string)
	phone, _ := args["phone"].(string)
	email, _ := args["email"].(string)
	insType, _ := args["insurance_type"].(string)

	first, last := splitLeadName(name)
	if phone != "" {
		phone = utils.FormatPhoneE164(phone)
	}

	lead := &crm.Lead{
		FirstName:     first,
		LastName:      last,
		Phone:         phone,
		Email:         email,
		Source:        "AI Receptionist",
		InsuranceType: strings.ToUpper(strings.TrimSpace(insType)),
		ThreadID:      sess.ThreadID,
	}
	if err := s.crmClient.CreateLead(ctx, lead); err != nil {
		return "", err
	}

	s.logger.Info("IntakeTools", "CRM lead created", map[string]interface{}{
		"thread_id": sess.ThreadID,
		"name":      name,
	})
	return fmt.Sprintf("Lead created for %s. An agent will reach out.", name), nil
}

func (s *IntakeToolsService) searchContactByPhone(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	phone := utils.FormatPhoneE164(args["phone"].(string))

	result, err := s.crmClient.SearchContactByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	if !result.Found {
		return fmt.Sprintf("No CRM contact found with phone %s.", phone), nil
	}
	return formatContacts(result.Contacts), nil
}

func (s *IntakeToolsService) searchContactByEmail(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	email := strings.TrimSpace(args["email"].(string))

	result, err := s.crmClient.SearchContactByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !result.Found {
		return fmt.Sprintf("No CRM contact found with email %s.", email), nil
	}
	return formatContacts(result.Contacts), nil
}

func (s *IntakeToolsService) addNoteToContact(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	contactID := strings.TrimSpace(args["contact_id"].(string))
	note, _ := args["note"].(string)

	if err := s.crmClient.AddNoteToContact(ctx, contactID, note); err != nil {
		return "", err
	}
	return "Note added to the contact.", nil
}

func (s *IntakeToolsService) submitCollectedData(ctx context.Context, sess *store.ConversationSession, args map[string]interface{}) (string, error) {
	rec := sess.ActiveRecord()
	if rec == nil {
		return "", fault.New(fault.NotReady, "No data has been collected yet. Select an action and collect the caller's details before submitting to the CRM.")
	}

	lead := s.mapper.RecordToLead(sess.ThreadID, rec)
	if err := s.crmClient.CreateLead(ctx, lead); err != nil {
		return "", err
	}

	s.markQuoteSubmitted(ctx, sess.ThreadID)

	s.logger.Info("IntakeTools", "Collected data pushed to CRM", map[string]interface{}{
		"thread_id": sess.ThreadID,
		"insurance": string(rec.Type),
	})
	return fmt.Sprintf("Collected %s details submitted to the CRM as a lead for %s.", strings.ToLower(string(rec.Type)), rec.ContactName()), nil
}

// markQuoteSubmitted flips the backlog flag on the pending quote row,
// if one was filed. Best effort; the lead already exists in the CRM.
func (s *IntakeToolsService) markQuoteSubmitted(ctx context.Context, threadID string) {
	quote, err := s.quoteRepo.FindOne(ctx,
		specification.ByThreadID(threadID),
		specification.PendingCrmSubmission(),
	)
	if err != nil || quote == nil {
		return
	}
	quote.SubmittedToCrm = true
	now := time.Now()
	quote.UpdatedAt = &now
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		s.logger.Warn("IntakeTools", "Failed to mark quote as submitted", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
	}
}

// --- Formatting helpers ---

func formatPolicyBrief(p *policy.Policy) string {
	return fmt.Sprintf(
		"Policy %s found.\nHolder: %s\nType: %s\nStatus: %s\nCarrier: %s\nExpires: %s",
		p.PolicyNumber, p.HolderName, p.PolicyType, p.Status, p.Carrier, p.ExpirationDate,
	)
}

func formatPolicyDetailed(p *policy.Policy) string {
	return fmt.Sprintf(
		"Full details for policy %s:\nHolder: %s\nType: %s\nStatus: %s\nCarrier: %s\nEffective: %s\nExpires: %s\nPremium: %s\nInsured address: %s",
		p.PolicyNumber, p.HolderName, p.PolicyType, p.Status, p.Carrier,
		p.EffectiveDate, p.ExpirationDate, p.PremiumAmount, p.InsuredAddress,
	)
}

func formatCustomers(customers []policy.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d customer(s):\n", len(customers))
	for _, c := range customers {
		fmt.Fprintf(&b, "- %s (#%s, phone %s, email %s)\n", c.Name, c.CustomerNumber, c.Phone, c.Email)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatContacts(contacts []crm.Contact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d CRM contact(s):\n", len(contacts))
	for _, c := range contacts {
		fmt.Fprintf(&b, "- %s (id %s, phone %s, email %s)\n", c.Name, c.ID, c.Phone, c.Email)
	}
	return strings.TrimRight(b.String(), "\n")
}

func splitLeadName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
