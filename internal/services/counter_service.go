package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alairock/kash-money/internal/db"
	"github.com/alairock/kash-money/internal/models"
)

// IInvoiceNumberService allocates unique, sequential, year-scoped invoice
// numbers, one counter document per user.
type IInvoiceNumberService interface {
	Allocate(ctx context.Context, userID string) (string, error)
	GetCounter(ctx context.Context, userID string) (*models.InvoiceCounter, error)
	SetCounter(ctx context.Context, userID string, year, count int) error
}

const countersCollection = "invoice_counters"

type invoiceNumberService struct {
	db  *mongo.Database
	now func() time.Time // Overridable in tests for year-rollover cases
}

// NewInvoiceNumberService creates a new invoice number allocator.
func NewInvoiceNumberService(database *mongo.Database) IInvoiceNumberService {
	return &invoiceNumberService{db: database, now: time.Now}
}

// FormatInvoiceNumber renders the externally visible invoice number string.
// The format is a bit-exact contract: INV-<4-digit year>-<4-digit sequence>.
func FormatInvoiceNumber(year, count int) string {
	return fmt.Sprintf("INV-%04d-%04d", year, count)
}

// Allocate produces the next invoice number for the user in the current
// calendar year. The read-modify-write is a single FindOneAndUpdate with an
// aggregation-pipeline update, so atomicity is the storage engine's
// single-document guarantee: two concurrent calls never observe the same
// pre-increment state. A concurrent upsert race on a brand-new counter
// surfaces as a duplicate key error, which the retry helper absorbs by
// re-running the same update.
func (s *invoiceNumberService) Allocate(ctx context.Context, userID string) (string, error) {
	year := s.now().UTC().Year()
	collection := s.db.Collection(countersCollection)

	// Both $set fields evaluate against the pre-image, so reading $year
	// while overwriting year is well-defined. A missing or stale year
	// resets the sequence to 1.
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"count": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{bson.M{"$ifNull": bson.A{"$year", 0}}, year}},
				bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$count", 0}}, 1}},
				1,
			}},
			"year": year,
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter models.InvoiceCounter
	err := db.Try(func() error {
		return collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&counter)
	})
	if err != nil {
		return "", fmt.Errorf("failed to allocate invoice number for user %s: %w", userID, err)
	}

	return FormatInvoiceNumber(counter.Year, counter.Count), nil
}

// GetCounter returns the user's counter document, or mongo.ErrNoDocuments if
// the user has never allocated a number.
func (s *invoiceNumberService) GetCounter(ctx context.Context, userID string) (*models.InvoiceCounter, error) {
	var counter models.InvoiceCounter
	err := s.db.Collection(countersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&counter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to read invoice counter for user %s: %w", userID, err)
	}
	return &counter, nil
}

// SetCounter overwrites the counter directly. This backs the renumbering
// screen: the next allocation in the same year returns count+1.
func (s *invoiceNumberService) SetCounter(ctx context.Context, userID string, year, count int) error {
	if year < 1000 || year > 9999 {
		return fmt.Errorf("invoice counter year must be four digits, got %d", year)
	}
	if count < 0 {
		return fmt.Errorf("invoice counter count cannot be negative, got %d", count)
	}
	collection := s.db.Collection(countersCollection)
	update := bson.M{"$set": bson.M{"year": year, "count": count}}
	opts := options.Update().SetUpsert(true)
	if _, err := collection.UpdateOne(ctx, bson.M{"_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to set invoice counter for user %s: %w", userID, err)
	}
	return nil
}
