package models

import "time"

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type Invoice struct {
	ID            string        `json:"id" db:"id"`
	UserID        string        `json:"user_id" db:"user_id"`
	ClientName    string        `json:"client_name" db:"client_name"`
	ClientEmail   string        `json:"client_email" db:"client_email"`
	InvoiceNumber string        `json:"invoice_number" db:"invoice_number"`
	Amount        string        `json:"amount" db:"amount"`
	DueDate       time.Time     `json:"due_date" db:"due_date"`
	Status        InvoiceStatus `json:"status" db:"status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	NudgeCount    int           `json:"nudge_count" db:"nudge_count"`
	LastNudgeAt   *time.Time    `json:"last_nudge_at,omitempty" db:"last_nudge_at"`
	NudgeActive   bool          `json:"nudge_active" db:"nudge_active"`
	// UnsubscribeToken lets the client opt out of reminders without
	// authenticating.
	UnsubscribeToken string    `json:"-" db:"unsubscribe_token"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the invoice counts against tier quotas.
func (i Invoice) IsActive() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusOverdue
}
