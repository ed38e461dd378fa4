package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"insurance-intake-be/pkg/fault"
)

func TestCreateLead(t *testing.T) {
	var received Lead
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/leads" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	lead := &Lead{
		FirstName:     "Jane",
		LastName:      "Doe",
		Email:         "jane@example.com",
		Source:        "AI Receptionist",
		InsuranceType: "FLOOD",
		ThreadID:      "thread-1",
	}

	if err := c.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("CreateLead error: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if received.FirstName != "Jane" || received.LastName != "Doe" {
		t.Errorf("lead body = %+v", received)
	}
}

func TestCreateLeadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "downstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	err := c.CreateLead(context.Background(), &Lead{FirstName: "Jane"})
	if err == nil {
		t.Fatal("expected error on 502")
	}
	if fault.KindOf(err) != fault.External {
		t.Errorf("KindOf = %v, want External", fault.KindOf(err))
	}
}

func TestSearchContactByPhone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("phone"); got != "+15551234567" {
			t.Errorf("phone query = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"contacts": []Contact{{ID: "c-1", Name: "Jane Doe", Phone: "+15551234567"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	res, err := c.SearchContactByPhone(context.Background(), "+15551234567")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || len(res.Contacts) != 1 || res.Contacts[0].ID != "c-1" {
		t.Errorf("result = %+v", res)
	}
}

func TestSearchContactNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"contacts": []Contact{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	res, err := c.SearchContactByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Errorf("Found = true, want false")
	}
}

func TestAddNoteToContact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/contacts/c-9/notes" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["note"] != "called about flood quote" {
			t.Errorf("note = %q", body["note"])
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	if err := c.AddNoteToContact(context.Background(), "c-9", "called about flood quote"); err != nil {
		t.Fatal(err)
	}
}

func TestUnreachableCRM(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k")
	_, err := c.SearchContactByPhone(context.Background(), "+15551234567")
	if fault.KindOf(err) != fault.External {
		t.Errorf("KindOf = %v, want External", fault.KindOf(err))
	}
}
