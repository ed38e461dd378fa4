package mapper

import (
	"encoding/json"
	"strings"
	"time"

	"insurance-intake-be/internal/entity"
	"insurance-intake-be/internal/model"
	"insurance-intake-be/pkg/crm"
	"insurance-intake-be/pkg/insurance"
	"insurance-intake-be/pkg/utils"
)

type IntakeMapper struct{}

func NewIntakeMapper() *IntakeMapper {
	return &IntakeMapper{}
}

// Transcript Mappers

func (m *IntakeMapper) TranscriptToModel(t *entity.Transcript) *model.Transcript {
	if t == nil {
		return nil
	}

	raw, _ := json.Marshal(t.Messages)

	return &model.Transcript{
		Id:           t.Id,
		ThreadId:     t.ThreadId,
		Messages:     raw,
		MessageCount: len(t.Messages),
		EndedAt:      t.EndedAt,
		CreatedAt:    t.CreatedAt,
	}
}

func (m *IntakeMapper) TranscriptToEntity(t *model.Transcript) *entity.Transcript {
	if t == nil {
		return nil
	}

	var messages []entity.TranscriptMessage
	_ = json.Unmarshal(t.Messages, &messages)

	return &entity.Transcript{
		Id:        t.Id,
		ThreadId:  t.ThreadId,
		Messages:  messages,
		EndedAt:   t.EndedAt,
		CreatedAt: t.CreatedAt,
	}
}

// QuoteRequest Mappers

func (m *IntakeMapper) QuoteRequestToModel(q *entity.QuoteRequest) *model.QuoteRequest {
	if q == nil {
		return nil
	}

	raw, _ := json.Marshal(q.Data)

	out := &model.QuoteRequest{
		Id:             q.Id,
		ThreadId:       q.ThreadId,
		ActionType:     q.ActionType,
		InsuranceType:  q.InsuranceType,
		Data:           raw,
		SubmittedToCrm: q.SubmittedToCrm,
		CreatedAt:      q.CreatedAt,
	}
	if q.UpdatedAt != nil {
		out.UpdatedAt = *q.UpdatedAt
	}
	return out
}

func (m *IntakeMapper) QuoteRequestToEntity(q *model.QuoteRequest) *entity.QuoteRequest {
	if q == nil {
		return nil
	}

	data := map[string]interface{}{}
	_ = json.Unmarshal(q.Data, &data)

	var updatedAt *time.Time
	if !q.UpdatedAt.IsZero() {
		t := q.UpdatedAt
		updatedAt = &t
	}

	return &entity.QuoteRequest{
		Id:             q.Id,
		ThreadId:       q.ThreadId,
		ActionType:     q.ActionType,
		InsuranceType:  q.InsuranceType,
		Data:           data,
		SubmittedToCrm: q.SubmittedToCrm,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

// Lead Projection

// RecordToLead projects collected intake data into a CRM lead. The
// contact name splits on the first whitespace; a single-word name goes
// entirely into FirstName. Missing sub-fields default to empty strings
// so the CRM payload shape stays stable.
func (m *IntakeMapper) RecordToLead(threadID string, rec *insurance.Record) *crm.Lead {
	if rec == nil {
		return nil
	}

	first, last := splitName(rec.ContactName())

	phone := rec.ContactPhone()
	if phone != "" {
		phone = utils.FormatPhoneE164(phone)
	}

	return &crm.Lead{
		FirstName:     first,
		LastName:      last,
		Phone:         phone,
		Email:         rec.ContactEmail(),
		Source:        "AI Receptionist",
		InsuranceType: string(rec.Type),
		ThreadID:      threadID,
		Details:       rec.Fields(),
	}
}

func splitName(full string) (string, string) {
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
