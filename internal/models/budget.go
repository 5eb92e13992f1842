package models

import (
	"time"
)

// LineItemStatus drives display dimming only; it has no computation effect.
type LineItemStatus string

const (
	LineItemIncomplete LineItemStatus = "incomplete"
	LineItemComplete   LineItemStatus = "complete"
	LineItemAutomatic  LineItemStatus = "automatic"
)

// BudgetLineItem is a snapshot line within a budget. Amounts are signed:
// income is positive, expense negative. IsMarked is the only field that
// participates in total computation.
type BudgetLineItem struct {
	ID          string         `bson:"id" json:"id"`
	Status      LineItemStatus `bson:"status" json:"status"`
	Name        string         `bson:"name" json:"name"`
	Amount      float64        `bson:"amount" json:"amount"`
	Link        string         `bson:"link,omitempty" json:"link,omitempty"`
	Note        string         `bson:"note,omitempty" json:"note,omitempty"`
	IsRecurring bool           `bson:"is_recurring" json:"is_recurring"`
	IsMarked    bool           `bson:"is_marked" json:"is_marked"`
}

// Budget holds line items copied by value from templates at creation time,
// then independently editable.
type Budget struct {
	Base           `bson:",inline"`
	UserID         string           `bson:"user_id" json:"user_id"`
	Name           string           `bson:"name" json:"name"`
	Created        time.Time        `bson:"created" json:"created"`
	StartingAmount float64          `bson:"starting_amount" json:"starting_amount"`
	LineItems      []BudgetLineItem `bson:"line_items" json:"line_items"`
}

// BudgetTotals is the pair of derived totals for a budget.
type BudgetTotals struct {
	UnmarkedTotal float64 `json:"unmarked_total"`
	FinalTotal    float64 `json:"final_total"`
}

// Totals computes the budget totals as pure functions of the starting amount
// and the signed line item amounts, summed in stored order. Marked items are
// excluded from the unmarked total but included in the final total.
func (b *Budget) Totals() BudgetTotals {
	unmarked := b.StartingAmount
	final := b.StartingAmount
	for _, item := range b.LineItems {
		final += item.Amount
		if !item.IsMarked {
			unmarked += item.Amount
		}
	}
	return BudgetTotals{UnmarkedTotal: unmarked, FinalTotal: final}
}

// LineItemFromTemplate copies a template into a budget line item. The
// zero-amount check takes precedence over IsAutomatic when deriving status.
func LineItemFromTemplate(t *RecurringExpenseTemplate) BudgetLineItem {
	status := LineItemIncomplete
	if t.Amount == 0 {
		status = LineItemComplete
	} else if t.IsAutomatic {
		status = LineItemAutomatic
	}
	return BudgetLineItem{
		ID:          NewBase().ID,
		Status:      status,
		Name:        t.Name,
		Amount:      t.Amount,
		Link:        t.Link,
		Note:        t.Note,
		IsRecurring: true,
		IsMarked:    false,
	}
}
