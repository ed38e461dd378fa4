package specification

import "gorm.io/gorm"

type byThreadID struct {
	threadID string
}

func (s byThreadID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_id = ?", s.threadID)
}

// ByThreadID filters transcripts and quote requests by conversation.
func ByThreadID(threadID string) Specification {
	return byThreadID{threadID: threadID}
}

type pendingCrmSubmission struct{}

func (s pendingCrmSubmission) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("submitted_to_crm = ?", false)
}

// PendingCrmSubmission selects quote requests that still need a CRM push.
func PendingCrmSubmission() Specification {
	return pendingCrmSubmission{}
}
