package model

import "time"

// Turn is one persisted question/answer exchange. Written once, after the
// answer exists; immutable afterwards except for document unlinking on delete.
type Turn struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionToken string    `gorm:"size:36;not null;index" json:"session_id"`
	DocumentID   *uint     `gorm:"index" json:"document_id,omitempty"`
	Question     string    `gorm:"type:text;not null" json:"question"`
	Answer       string    `gorm:"type:text;not null" json:"answer"`
	SourcesCount int       `gorm:"not null;default:0" json:"sources_count"`
	CreatedAt    time.Time `json:"created_at"`
}
