package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuoteRequest is the locally persisted submission. Rows with
// SubmittedToCrm=false are the manual-submission backlog for agents.
type QuoteRequest struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThreadId       string         `gorm:"type:text;not null;index"`
	ActionType     string         `gorm:"type:text;not null"`
	InsuranceType  string         `gorm:"type:text;not null;index"`
	Data           datatypes.JSON `gorm:"type:jsonb;not null"`
	SubmittedToCrm bool           `gorm:"not null;default:false"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (QuoteRequest) TableName() string {
	return "quote_requests"
}
