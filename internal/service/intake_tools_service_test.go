package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurance-intake-be/pkg/insurance"
	"insurance-intake-be/pkg/llm"
	"insurance-intake-be/pkg/policy"
	"insurance-intake-be/pkg/store"
	"insurance-intake-be/pkg/tools"
)

type toolsFixture struct {
	registry     *tools.Registry
	crmClient    *recordingCRMClient
	policyClient *countingPolicyClient
	quoteRepo    *memoryQuoteRepo
	sess         *store.ConversationSession
}

func buildToolsFixture(t *testing.T) *toolsFixture {
	t.Helper()

	crmClient := newRecordingCRMClient()
	policyClient := &countingPolicyClient{policies: map[string]*policy.Policy{
		"POL-123": {
			PolicyNumber:   "POL-123",
			HolderName:     "Jane Doe",
			PolicyType:     "HOME",
			Status:         "Active",
			Carrier:        "Acme Mutual",
			EffectiveDate:  "2025-01-01",
			ExpirationDate: "2026-01-01",
			PremiumAmount:  "1200.00",
			InsuredAddress: "1 Main St",
		},
	}}
	quoteRepo := &memoryQuoteRepo{}

	svc := NewIntakeToolsService(crmClient, policyClient, quoteRepo, noopLogger{})

	return &toolsFixture{
		registry:     svc.Registry(),
		crmClient:    crmClient,
		policyClient: policyClient,
		quoteRepo:    quoteRepo,
		sess:         store.NewConversationSession("thread-1", "test prompt"),
	}
}

func (f *toolsFixture) dispatch(name string, args map[string]interface{}) string {
	return f.registry.Dispatch(context.Background(), f.sess, llm.ToolCall{
		ID:        "call_x",
		Name:      name,
		Arguments: args,
	})
}

func (f *toolsFixture) selectAction(t *testing.T, action, insuranceType string) {
	t.Helper()
	out := f.dispatch("set_user_action", map[string]interface{}{
		"action":         action,
		"insurance_type": insuranceType,
	})
	require.Contains(t, out, "Noted")
}

func TestCollectBeforeActionIsRejected(t *testing.T) {
	f := buildToolsFixture(t)

	out := f.dispatch("collect_flood_insurance_data", map[string]interface{}{
		"full_name": "Jane Doe",
	})

	assert.Contains(t, out, "set_user_action")
	// Nothing was stored.
	assert.Empty(t, f.sess.Collected)
}

func TestCollectMergesAcrossCalls(t *testing.T) {
	f := buildToolsFixture(t)
	f.selectAction(t, "ADD", "HOME")

	f.dispatch("collect_home_insurance_data", map[string]interface{}{
		"full_name": "Jane Doe",
		"has_pool":  true,
	})
	out := f.dispatch("collect_home_insurance_data", map[string]interface{}{
		"property_address": "1 Main St",
		"has_pool":         false, // explicit false overwrites
	})

	rec := f.sess.Collected[insurance.TypeHome]
	require.NotNil(t, rec)
	require.NotNil(t, rec.Home.FullName)
	assert.Equal(t, "Jane Doe", *rec.Home.FullName)
	require.NotNil(t, rec.Home.PropertyAddress)
	assert.Equal(t, "1 Main St", *rec.Home.PropertyAddress)
	require.NotNil(t, rec.Home.HasPool)
	assert.False(t, *rec.Home.HasPool)

	assert.Contains(t, out, "Still needed")
	assert.Contains(t, out, "phone")
}

func TestCollectReportsCompletion(t *testing.T) {
	f := buildToolsFixture(t)
	f.selectAction(t, "ADD", "FLOOD")

	out := f.dispatch("collect_flood_insurance_data", map[string]interface{}{
		"full_name":    "Jane Doe",
		"home_address": "1 Main St",
		"email":        "jane@example.com",
	})

	assert.Contains(t, out, "All required flood details are collected")
}

func TestSubmitQuoteRequest(t *testing.T) {
	f := buildToolsFixture(t)

	// Nothing selected yet.
	out := f.dispatch("submit_quote_request", nil)
	assert.Contains(t, out, "set_user_action")

	f.selectAction(t, "ADD", "FLOOD")

	// Selected but nothing collected.
	out = f.dispatch("submit_quote_request", nil)
	assert.Contains(t, out, "No data has been collected")

	f.dispatch("collect_flood_insurance_data", map[string]interface{}{
		"full_name":    "Jane Doe",
		"home_address": "1 Main St",
		"email":        "jane@example.com",
	})

	out = f.dispatch("submit_quote_request", nil)
	assert.Contains(t, out, "Quote request filed")

	require.Len(t, f.quoteRepo.quotes, 1)
	quote := f.quoteRepo.quotes[0]
	assert.Equal(t, "thread-1", quote.ThreadId)
	assert.Equal(t, "ADD", quote.ActionType)
	assert.Equal(t, "FLOOD", quote.InsuranceType)
	assert.Equal(t, "Jane Doe", quote.Data["full_name"])
	assert.False(t, quote.SubmittedToCrm)

	// Submitting does not wipe the collected data.
	rec := f.sess.Collected[insurance.TypeFlood]
	require.NotNil(t, rec)
	assert.Equal(t, "Jane Doe", *rec.Flood.FullName)
}

func TestPolicyLookupIsAtMostOncePerNumber(t *testing.T) {
	f := buildToolsFixture(t)

	out := f.dispatch("get_policy_by_number", map[string]interface{}{"policy_number": "POL-123"})
	assert.Contains(t, out, "Jane Doe")
	assert.Equal(t, 1, f.policyClient.lookupCalls)

	// Second ask is served from the session cache.
	out = f.dispatch("get_policy_by_number", map[string]interface{}{"policy_number": "POL-123"})
	assert.Contains(t, out, "Jane Doe")
	assert.Equal(t, 1, f.policyClient.lookupCalls)
}

func TestPolicyMissIsTerminal(t *testing.T) {
	f := buildToolsFixture(t)

	out := f.dispatch("get_policy_by_number", map[string]interface{}{"policy_number": "NOPE-1"})
	assert.Contains(t, out, "No policy with number NOPE-1")
	assert.Equal(t, 1, f.policyClient.lookupCalls)

	out = f.dispatch("get_policy_by_number", map[string]interface{}{"policy_number": "NOPE-1"})
	assert.Contains(t, out, "No policy with number NOPE-1")
	// The miss is cached; no second external call.
	assert.Equal(t, 1, f.policyClient.lookupCalls)
}

func TestPolicyTransportErrorAllowsRetry(t *testing.T) {
	f := buildToolsFixture(t)
	f.policyClient.failNext = true

	out := f.dispatch("get_policy_by_number", map[string]interface{}{"policy_number": "POL-123"})
	assert.NotContains(t, out, "Jane Doe")
	assert.Equal(t, 1, f.policyClient.lookupCalls)

	// A transport failure leaves no cache entry, so the retry goes out.
	out = f.dispatch("get_policy_by_number", map[string]interface{}{"policy_number": "POL-123"})
	assert.Contains(t, out, "Jane Doe")
	assert.Equal(t, 2, f.policyClient.lookupCalls)
}

func TestDetailedPolicyInfoRequiresPriorLookup(t *testing.T) {
	f := buildToolsFixture(t)

	out := f.dispatch("get_detailed_policy_info", map[string]interface{}{"policy_number": "POL-123"})
	assert.Contains(t, out, "get_policy_by_number")
	// Details never trigger an external call on their own.
	assert.Equal(t, 0, f.policyClient.lookupCalls)

	f.dispatch("get_policy_by_number", map[string]interface{}{"policy_number": "POL-123"})

	out = f.dispatch("get_detailed_policy_info", map[string]interface{}{"policy_number": "POL-123"})
	assert.Contains(t, out, "1200.00")
	assert.Contains(t, out, "1 Main St")
	assert.Equal(t, 1, f.policyClient.lookupCalls)
}

func TestDetailedPolicyInfoOnCachedMiss(t *testing.T) {
	f := buildToolsFixture(t)

	f.dispatch("get_policy_by_number", map[string]interface{}{"policy_number": "NOPE-1"})
	out := f.dispatch("get_detailed_policy_info", map[string]interface{}{"policy_number": "NOPE-1"})

	assert.Contains(t, out, "does not exist")
	assert.Equal(t, 1, f.policyClient.lookupCalls)
}

func TestCreateLeadNormalizesPhone(t *testing.T) {
	f := buildToolsFixture(t)

	out := f.dispatch("create_agencyzoom_lead", map[string]interface{}{
		"name":           "Jane Doe",
		"phone":          "(555) 123-4567",
		"email":          "jane@example.com",
		"insurance_type": "AUTO",
	})
	assert.Contains(t, out, "Lead created")

	require.Len(t, f.crmClient.leads, 1)
	lead := f.crmClient.leads[0]
	assert.Equal(t, "Jane", lead.FirstName)
	assert.Equal(t, "Doe", lead.LastName)
	assert.Equal(t, "+15551234567", lead.Phone)
	assert.Equal(t, "AUTO", lead.InsuranceType)
	assert.Equal(t, "thread-1", lead.ThreadID)
}

func TestSubmitCollectedDataToCRM(t *testing.T) {
	f := buildToolsFixture(t)

	// Nothing collected yet.
	out := f.dispatch("submit_collected_data_to_agencyzoom", nil)
	assert.Contains(t, out, "No data has been collected")
	assert.Empty(t, f.crmClient.leads)

	f.selectAction(t, "ADD", "FLOOD")
	f.dispatch("collect_flood_insurance_data", map[string]interface{}{
		"full_name":    "Jane Doe",
		"home_address": "1 Main St",
		"email":        "jane@example.com",
	})
	f.dispatch("submit_quote_request", nil)

	out = f.dispatch("submit_collected_data_to_agencyzoom", nil)
	assert.Contains(t, out, "submitted to the CRM")

	require.Len(t, f.crmClient.leads, 1)
	lead := f.crmClient.leads[0]
	assert.Equal(t, "Jane", lead.FirstName)
	assert.Equal(t, "Doe", lead.LastName)
	assert.Equal(t, "", lead.Phone) // flood intake collects no phone
	assert.Equal(t, "jane@example.com", lead.Email)
	assert.Equal(t, "AI Receptionist", lead.Source)
	assert.Equal(t, "FLOOD", lead.InsuranceType)
	assert.Equal(t, "Jane Doe", lead.Details["full_name"])

	// The pending quote row is flipped to submitted.
	require.Len(t, f.quoteRepo.quotes, 1)
	assert.True(t, f.quoteRepo.quotes[0].SubmittedToCrm)
}

func TestAddNoteToContact(t *testing.T) {
	f := buildToolsFixture(t)

	out := f.dispatch("add_note_to_agencyzoom_contact", map[string]interface{}{
		"contact_id": "c-42",
		"note":       "Caller asked about bundling home and auto.",
	})
	assert.Contains(t, out, "Note added")
	require.Len(t, f.crmClient.notes["c-42"], 1)
}

func TestUnknownToolGetsGuidance(t *testing.T) {
	f := buildToolsFixture(t)

	out := f.dispatch("make_coffee", nil)
	assert.Contains(t, out, "Unknown tool")
	assert.Contains(t, out, "set_user_action")
}

func TestInvalidEnumGetsGuidance(t *testing.T) {
	f := buildToolsFixture(t)

	out := f.dispatch("set_user_action", map[string]interface{}{
		"action":         "DELETE",
		"insurance_type": "HOME",
	})
	assert.Contains(t, out, "must be one of")
	assert.False(t, f.sess.Action.Selected())
}
