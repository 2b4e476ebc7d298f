package model

import "time"

// ChatSession groups turns into one conversation. The token is opaque to the
// caller; the server issues one when a chat request carries none.
type ChatSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:36;not null;uniqueIndex" json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *ChatSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
