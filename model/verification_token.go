package model

import "time"

// VerificationToken is a single-use secret proving control of an action
// (email confirmation, password reset) for a bounded time. The composite
// unique index keeps at most one live token per (user, type); issuing a new
// one for the same pair replaces the old row via an atomic upsert.
type VerificationToken struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text;not null"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex:idx_tokens_user_type;size:64"`
	TokenType string    `json:"token_type" gorm:"not null;uniqueIndex:idx_tokens_user_type;size:20"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null;size:128"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}
