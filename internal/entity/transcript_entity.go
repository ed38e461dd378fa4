package entity

import (
	"time"

	"github.com/google/uuid"
)

type TranscriptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Transcript struct {
	Id        uuid.UUID
	ThreadId  string
	Messages  []TranscriptMessage
	EndedAt   time.Time
	CreatedAt time.Time
}
