package models

// InvoiceStats backs the dashboard stat cards. Monetary sums stay as strings
// straight from the numeric columns; no arithmetic happens on them in Go.
type InvoiceStats struct {
	Total      int    `json:"total"`
	Paid       int    `json:"paid"`
	Overdue    int    `json:"overdue"`
	TotalValue string `json:"total_value"`
	PaidValue  string `json:"paid_value"`
}
