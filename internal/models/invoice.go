package models

import (
	"time"
)

// InvoiceStatus enumerates the invoice lifecycle. Transitions are plain
// assignments; the only guard is that paid invoices reject edits other than
// the transition out of paid.
type InvoiceStatus string

const (
	InvoiceDraft    InvoiceStatus = "draft"
	InvoiceSent     InvoiceStatus = "sent"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceArchived InvoiceStatus = "archived"
)

// InvoiceLineItem represents a single billed line. Amount is always
// Hours * Rate; it is stored denormalized for display.
type InvoiceLineItem struct {
	ID          string  `bson:"id" json:"id"`
	Description string  `bson:"description" json:"description"`
	Hours       float64 `bson:"hours" json:"hours"`
	Rate        float64 `bson:"rate" json:"rate"`
	Amount      float64 `bson:"amount" json:"amount"`
}

// Invoice is a bill issued by a user to one of their clients.
type Invoice struct {
	Base      `bson:",inline"`
	UserID    string            `bson:"user_id" json:"user_id"`
	ClientID  string            `bson:"client_id" json:"client_id"`
	Number    string            `bson:"number" json:"number"` // INV-<year>-<%04d>, unique per user
	Status    InvoiceStatus     `bson:"status" json:"status"`
	Created   time.Time         `bson:"created" json:"created"`
	DateDue   time.Time         `bson:"date_due" json:"date_due"`
	LineItems []InvoiceLineItem `bson:"line_items" json:"line_items"`
	Total     float64           `bson:"total" json:"total"`
	SentAt    *time.Time        `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	PaidAt    *time.Time        `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	PdfKey    string            `bson:"pdf_key,omitempty" json:"pdf_key,omitempty"` // S3 archive key once sent
}

// ComputeLineAmounts recomputes each line's Amount from hours and rate and
// returns the invoice total, summed in stored order.
func ComputeLineAmounts(items []InvoiceLineItem) float64 {
	total := 0.0
	for i := range items {
		items[i].Amount = items[i].Hours * items[i].Rate
		total += items[i].Amount
	}
	return total
}
