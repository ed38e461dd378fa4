package entity

import (
	"time"

	"github.com/google/uuid"
)

type QuoteRequest struct {
	Id             uuid.UUID
	ThreadId       string
	ActionType     string
	InsuranceType  string
	Data           map[string]interface{}
	SubmittedToCrm bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
