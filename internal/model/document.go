package model

import "time"

const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

// Document tracks an uploaded file through the ingestion lifecycle:
// pending -> processing -> completed | failed. Chat operations never mutate it.
type Document struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Filename      string    `gorm:"size:255;not null" json:"filename"`
	StoragePath   string    `gorm:"size:512;not null;uniqueIndex" json:"-"`
	ChunksCount   int       `gorm:"not null;default:0" json:"chunks_count"`
	Status        string    `gorm:"size:16;not null;index;default:pending" json:"status"`
	FailureReason string    `gorm:"size:512" json:"failure_reason,omitempty"`
	UploadedAt    time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
