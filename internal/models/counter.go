package models

// InvoiceCounter is the year-scoped sequence document backing invoice number
// allocation, one per user, mutated only through the allocator (and the
// operator renumbering screen).
type InvoiceCounter struct {
	UserID string `bson:"_id" json:"-"`
	Year   int    `bson:"year" json:"year"`
	Count  int    `bson:"count" json:"count"`
}
