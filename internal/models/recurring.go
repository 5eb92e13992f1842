package models

import (
	"time"
)

// RecurringExpenseTemplate is a reusable expense definition copied into new
// budgets at creation time. Deleting a template does not affect budgets that
// already copied it.
type RecurringExpenseTemplate struct {
	Base        `bson:",inline"`
	UserID      string    `bson:"user_id" json:"user_id"`
	Name        string    `bson:"name" json:"name"`
	Amount      float64   `bson:"amount" json:"amount"`
	Link        string    `bson:"link,omitempty" json:"link,omitempty"`
	Note        string    `bson:"note,omitempty" json:"note,omitempty"`
	IsAutomatic bool      `bson:"is_automatic" json:"is_automatic"`
	Order       float64   `bson:"order" json:"order"` // Display/copy sequence; ties broken by created then _id
	Created     time.Time `bson:"created" json:"created"`
}
