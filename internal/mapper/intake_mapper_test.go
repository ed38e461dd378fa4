package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"insurance-intake-be/internal/entity"
	"insurance-intake-be/pkg/insurance"
)

func TestRecordToLeadSplitsName(t *testing.T) {
	m := NewIntakeMapper()

	tests := []struct {
		name      string
		fullName  string
		wantFirst string
		wantLast  string
	}{
		{name: "two words", fullName: "Jane Doe", wantFirst: "Jane", wantLast: "Doe"},
		{name: "three words keep remainder as last", fullName: "Mary Jane Watson", wantFirst: "Mary", wantLast: "Jane Watson"},
		{name: "single word", fullName: "Cher", wantFirst: "Cher", wantLast: ""},
		{name: "empty", fullName: "", wantFirst: "", wantLast: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := insurance.NewRecord(insurance.TypeFlood)
			if tt.fullName != "" {
				v := tt.fullName
				rec.Flood.FullName = &v
			}

			lead := m.RecordToLead("thread-1", rec)
			if lead.FirstName != tt.wantFirst || lead.LastName != tt.wantLast {
				t.Errorf("split = (%q, %q), want (%q, %q)", lead.FirstName, lead.LastName, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestRecordToLeadDefaultsAndDetails(t *testing.T) {
	m := NewIntakeMapper()

	rec := insurance.NewRecord(insurance.TypeFlood)
	name := "Jane Doe"
	email := "jane@example.com"
	addr := "12 Ocean Dr"
	rec.Flood.FullName = &name
	rec.Flood.Email = &email
	rec.Flood.HomeAddress = &addr

	lead := m.RecordToLead("thread-1", rec)

	// Flood collects no phone; the field defaults to empty.
	if lead.Phone != "" {
		t.Errorf("Phone = %q, want empty", lead.Phone)
	}
	if lead.Email != "jane@example.com" {
		t.Errorf("Email = %q", lead.Email)
	}
	if lead.Source != "AI Receptionist" || lead.InsuranceType != "FLOOD" {
		t.Errorf("lead = %+v", lead)
	}
	if lead.Details["home_address"] != "12 Ocean Dr" {
		t.Errorf("Details = %v", lead.Details)
	}
}

func TestRecordToLeadNormalizesPhone(t *testing.T) {
	m := NewIntakeMapper()

	rec := insurance.NewRecord(insurance.TypeHome)
	name := "Jane Doe"
	phone := "(555) 123-4567"
	rec.Home.FullName = &name
	rec.Home.Phone = &phone

	lead := m.RecordToLead("thread-1", rec)
	if lead.Phone != "+15551234567" {
		t.Errorf("Phone = %q, want E.164", lead.Phone)
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	m := NewIntakeMapper()

	e := &entity.Transcript{
		Id:       uuid.New(),
		ThreadId: "thread-9",
		Messages: []entity.TranscriptMessage{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi, how can I help?"},
		},
		EndedAt:   time.Now().Truncate(time.Second),
		CreatedAt: time.Now().Truncate(time.Second),
	}

	mod := m.TranscriptToModel(e)
	if mod.MessageCount != 2 {
		t.Errorf("MessageCount = %d", mod.MessageCount)
	}

	back := m.TranscriptToEntity(mod)
	if back.ThreadId != "thread-9" || len(back.Messages) != 2 || back.Messages[1].Content != "hi, how can I help?" {
		t.Errorf("round trip = %+v", back)
	}
}

func TestQuoteRequestToEntityParsesData(t *testing.T) {
	m := NewIntakeMapper()

	e := &entity.QuoteRequest{
		Id:            uuid.New(),
		ThreadId:      "thread-1",
		ActionType:    "ADD",
		InsuranceType: "HOME",
		Data:          map[string]interface{}{"full_name": "Jane Doe"},
	}

	back := m.QuoteRequestToEntity(m.QuoteRequestToModel(e))
	if back.Data["full_name"] != "Jane Doe" {
		t.Errorf("Data = %v", back.Data)
	}
	if back.SubmittedToCrm {
		t.Error("SubmittedToCrm should default to false")
	}
}
