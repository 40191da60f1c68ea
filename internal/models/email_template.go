package models

import "time"

// EmailTemplate is a user-authored override for one (tone, nudge ordinal)
// slot. When no row matches, a compiled-in default is used instead.
type EmailTemplate struct {
	ID          string      `json:"id" db:"id"`
	UserID      string      `json:"user_id" db:"user_id"`
	Name        string      `json:"name" db:"name"`
	Tone        MessageTone `json:"tone" db:"tone"`
	NudgeNumber int         `json:"nudge_number" db:"nudge_number"`
	Subject     string      `json:"subject" db:"subject"`
	Body        string      `json:"body" db:"body"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}
