package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"insurance-intake-be/pkg/fault"
)

// Lead is the payload pushed to the CRM when a prospect is handed off.
type Lead struct {
	FirstName     string                 `json:"first_name"`
	LastName      string                 `json:"last_name"`
	Phone         string                 `json:"phone"`
	Email         string                 `json:"email"`
	Source        string                 `json:"source"`
	InsuranceType string                 `json:"insurance_type"`
	ThreadID      string                 `json:"thread_id"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// Contact is a CRM record returned by the search endpoints.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type ContactSearchResult struct {
	Found    bool      `json:"found"`
	Contacts []Contact `json:"contacts"`
}

// IClient is the CRM surface used by the intake tools.
type IClient interface {
	CreateLead(ctx context.Context, lead *Lead) error
	SearchContactByPhone(ctx context.Context, phone string) (*ContactSearchResult, error)
	SearchContactByEmail(ctx context.Context, email string) (*ContactSearchResult, error)
	AddNoteToContact(ctx context.Context, contactID, note string) error
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) IClient {
	return &client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *client) CreateLead(ctx context.Context, lead *Lead) error {
	// No retries and no idempotency token here. A caller retry after a
	// late failure can create a duplicate lead; agents dedupe in the CRM.
	return c.post(ctx, "/v1/leads", lead, nil)
}

func (c *client) SearchContactByPhone(ctx context.Context, phone string) (*ContactSearchResult, error) {
	return c.searchContacts(ctx, url.Values{"phone": {phone}})
}

func (c *client) SearchContactByEmail(ctx context.Context, email string) (*ContactSearchResult, error) {
	return c.searchContacts(ctx, url.Values{"email": {email}})
}

func (c *client) AddNoteToContact(ctx context.Context, contactID, note string) error {
	payload := map[string]string{"note": note}
	return c.post(ctx, fmt.Sprintf("/v1/contacts/%s/notes", url.PathEscape(contactID)), payload, nil)
}

func (c *client) searchContacts(ctx context.Context, params url.Values) (*ContactSearchResult, error) {
	endpoint := c.baseURL + "/v1/contacts/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fault.Wrap(fault.External, err, "crm request could not be built")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.External, err, "crm is unreachable")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.New(fault.External, "crm search failed: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	var result struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fault.Wrap(fault.External, err, "crm returned an unreadable response")
	}

	return &ContactSearchResult{
		Found:    len(result.Contacts) > 0,
		Contacts: result.Contacts,
	}, nil
}

func (c *client) post(ctx context.Context, path string, payload, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fault.Wrap(fault.External, err, "crm payload could not be encoded")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fault.Wrap(fault.External, err, "crm request could not be built")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.Wrap(fault.External, err, "crm is unreachable")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fault.New(fault.External, "crm call %s failed: status %d, body: %s", path, resp.StatusCode, truncate(body, 200))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fault.Wrap(fault.External, err, "crm returned an unreadable response")
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
