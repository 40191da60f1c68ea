package models

import "time"

// NudgeLog records one actually-sent reminder. Rows are append-only; only the
// open/click tracker ever touches them afterwards.
type NudgeLog struct {
	ID           string    `json:"id" db:"id"`
	InvoiceID    string    `json:"invoice_id" db:"invoice_id"`
	EmailSubject string    `json:"email_subject" db:"email_subject"`
	EmailBody    string    `json:"email_body" db:"email_body"`
	SentAt       time.Time `json:"sent_at" db:"sent_at"`
	Opened       bool      `json:"opened" db:"opened"`
	Clicked      bool      `json:"clicked" db:"clicked"`
}
