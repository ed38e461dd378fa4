package service

import (
	"context"
	"fmt"
	"sync"

	"insurance-intake-be/internal/entity"
	"insurance-intake-be/internal/repository/specification"
	"insurance-intake-be/pkg/crm"
	"insurance-intake-be/pkg/llm"
	"insurance-intake-be/pkg/policy"
)

// noopLogger keeps test output clean.
type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

// scriptedProvider replays queued responses and counts calls.
type scriptedProvider struct {
	mu sync.Mutex

	toolResults []*llm.ChatResult
	chatReplies []string
	chatErr     error

	chatToolsCalls int
	chatCalls      int
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatCalls++
	if p.chatErr != nil {
		return "", p.chatErr
	}
	if len(p.chatReplies) == 0 {
		return "ok", nil
	}
	reply := p.chatReplies[0]
	p.chatReplies = p.chatReplies[1:]
	return reply, nil
}

func (p *scriptedProvider) ChatTools(ctx context.Context, history []llm.Message, tools []llm.ToolDefinition, options ...llm.Option) (*llm.ChatResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatToolsCalls++
	if p.chatErr != nil {
		return nil, p.chatErr
	}
	if len(p.toolResults) == 0 {
		return &llm.ChatResult{Content: "ok"}, nil
	}
	result := p.toolResults[0]
	p.toolResults = p.toolResults[1:]
	return result, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// countingPolicyClient serves from a fixed map and counts lookups.
type countingPolicyClient struct {
	policies map[string]*policy.Policy

	lookupCalls int
	failNext    bool
}

func (c *countingPolicyClient) GetPolicyByNumber(ctx context.Context, policyNumber string) (*policy.Policy, error) {
	c.lookupCalls++
	if c.failNext {
		c.failNext = false
		return nil, fmt.Errorf("dial tcp: connection refused")
	}
	return c.policies[policyNumber], nil
}

func (c *countingPolicyClient) SearchCustomersByPhone(ctx context.Context, phone string) ([]policy.Customer, error) {
	return nil, nil
}

func (c *countingPolicyClient) SearchCustomersByName(ctx context.Context, name string) ([]policy.Customer, error) {
	return nil, nil
}

func (c *countingPolicyClient) GetCustomerPolicies(ctx context.Context, customerNumber string) ([]policy.PolicySummary, error) {
	return nil, nil
}

// recordingCRMClient captures created leads and notes.
type recordingCRMClient struct {
	leads []crm.Lead
	notes map[string][]string
}

func newRecordingCRMClient() *recordingCRMClient {
	return &recordingCRMClient{notes: make(map[string][]string)}
}

func (c *recordingCRMClient) CreateLead(ctx context.Context, lead *crm.Lead) error {
	c.leads = append(c.leads, *lead)
	return nil
}

func (c *recordingCRMClient) SearchContactByPhone(ctx context.Context, phone string) (*crm.ContactSearchResult, error) {
	return &crm.ContactSearchResult{}, nil
}

func (c *recordingCRMClient) SearchContactByEmail(ctx context.Context, email string) (*crm.ContactSearchResult, error) {
	return &crm.ContactSearchResult{}, nil
}

func (c *recordingCRMClient) AddNoteToContact(ctx context.Context, contactID, note string) error {
	c.notes[contactID] = append(c.notes[contactID], note)
	return nil
}

// memoryQuoteRepo is a spec-blind in-memory stand-in. FindOne returns
// the most recent quote still pending CRM submission.
type memoryQuoteRepo struct {
	quotes []*entity.QuoteRequest
}

func (r *memoryQuoteRepo) Create(ctx context.Context, quote *entity.QuoteRequest) error {
	copied := *quote
	r.quotes = append(r.quotes, &copied)
	return nil
}

func (r *memoryQuoteRepo) Update(ctx context.Context, quote *entity.QuoteRequest) error {
	for i, q := range r.quotes {
		if q.Id == quote.Id {
			copied := *quote
			r.quotes[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("quote %s not found", quote.Id)
}

func (r *memoryQuoteRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QuoteRequest, error) {
	for i := len(r.quotes) - 1; i >= 0; i-- {
		if !r.quotes[i].SubmittedToCrm {
			copied := *r.quotes[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryQuoteRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QuoteRequest, error) {
	out := make([]*entity.QuoteRequest, len(r.quotes))
	for i, q := range r.quotes {
		copied := *q
		out[i] = &copied
	}
	return out, nil
}

func (r *memoryQuoteRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.quotes)), nil
}
