package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Transcript struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThreadId     string         `gorm:"type:text;not null;index"`
	Messages     datatypes.JSON `gorm:"type:jsonb;not null"`
	MessageCount int            `gorm:"not null"`
	EndedAt      time.Time      `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (Transcript) TableName() string {
	return "transcripts"
}
