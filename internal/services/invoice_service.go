package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alairock/kash-money/internal/config"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/utils"
)

// ErrInvoicePaid is returned when a mutation targets a paid invoice. The
// only edit a paid invoice accepts is the status transition out of paid.
var ErrInvoicePaid = errors.New("invoice_paid_locked: paid invoices cannot be modified")

// IInvoiceService manages invoices.
type IInvoiceService interface {
	Create(ctx context.Context, userID, clientID string, items []models.InvoiceLineItem) (*models.Invoice, error)
	FindByID(ctx context.Context, userID, invoiceID string) (*models.Invoice, error)
	List(ctx context.Context, userID string, status *models.InvoiceStatus, limit int, cursor *string) ([]models.Invoice, string, error)
	UpdateLineItems(ctx context.Context, userID, invoiceID string, items []models.InvoiceLineItem) (*models.Invoice, error)
	SetStatus(ctx context.Context, userID, invoiceID string, status models.InvoiceStatus) (*models.Invoice, error)
	MarkSent(ctx context.Context, userID, invoiceID, pdfKey string) error
	Delete(ctx context.Context, userID, invoiceID string) error
}

const invoicesCollection = "invoices"

type invoiceService struct {
	db            *mongo.Database
	cfg           *config.Config
	limitService  ILimitService
	clientService IClientService
	numberService IInvoiceNumberService
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(database *mongo.Database, cfg *config.Config, limitService ILimitService, clientService IClientService, numberService IInvoiceNumberService) IInvoiceService {
	return &invoiceService{
		db:            database,
		cfg:           cfg,
		limitService:  limitService,
		clientService: clientService,
		numberService: numberService,
	}
}

// Create allocates the next invoice number and inserts a draft invoice. The
// plan-limit gate runs first; the allocator is not retried on later failure,
// so an insert error burns a sequence number rather than risking a
// duplicate (the unique index on (user_id, number) is the backstop).
func (s *invoiceService) Create(ctx context.Context, userID, clientID string, items []models.InvoiceLineItem) (*models.Invoice, error) {
	if err := s.limitService.AssertUnderLimit(ctx, userID, ResourceInvoices); err != nil {
		return nil, err
	}

	// Reject cross-tenant client references up front.
	if _, err := s.clientService.FindByID(ctx, userID, clientID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, err
	}

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = models.NewBase().ID
		}
	}
	total := models.ComputeLineAmounts(items)

	number, err := s.numberService.Allocate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	invoice := &models.Invoice{
		Base:      models.NewBase(),
		UserID:    userID,
		ClientID:  clientID,
		Number:    number,
		Status:    models.InvoiceDraft,
		Created:   now,
		DateDue:   now.AddDate(0, 0, s.cfg.InvoiceDueDays),
		LineItems: items,
		Total:     total,
	}
	if _, err := s.db.Collection(invoicesCollection).InsertOne(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to insert invoice %s for user %s: %w", number, userID, err)
	}
	return invoice, nil
}

// FindByID returns the invoice, scoped to the owning user.
func (s *invoiceService) FindByID(ctx context.Context, userID, invoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.Collection(invoicesCollection).FindOne(ctx, bson.M{"_id": invoiceID, "user_id": userID}).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding invoice %s: %w", invoiceID, err)
	}
	return &invoice, nil
}

// List returns a page of the user's invoices, newest first, optionally
// filtered by status, with the same forward-only cursor semantics as budget
// listing.
func (s *invoiceService) List(ctx context.Context, userID string, status *models.InvoiceStatus, limit int, cursor *string) ([]models.Invoice, string, error) {
	limit = normalizeListLimit(limit)
	filter := bson.M{"user_id": userID}
	if status != nil {
		filter["status"] = *status
	}
	applyCursorFilter(filter, cursor)

	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	listCursor, err := s.db.Collection(invoicesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query invoices for user %s: %w", userID, err)
	}
	defer listCursor.Close(ctx)

	var results []models.Invoice
	if err = listCursor.All(ctx, &results); err != nil {
		return nil, "", fmt.Errorf("failed to decode invoices: %w", err)
	}

	nextCursor := ""
	if len(results) > limit {
		last := results[limit-1]
		nextCursor = utils.EncodeCursor(last.Created, last.ID)
		results = results[:limit]
	}
	return results, nextCursor, nil
}

// UpdateLineItems replaces the invoice's line items and recomputes the
// total. Rejected for paid invoices.
func (s *invoiceService) UpdateLineItems(ctx context.Context, userID, invoiceID string, items []models.InvoiceLineItem) (*models.Invoice, error) {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = models.NewBase().ID
		}
	}
	total := models.ComputeLineAmounts(items)

	// The paid guard rides in the filter: a paid invoice simply doesn't
	// match, and the miss is diagnosed below.
	filter := bson.M{"_id": invoiceID, "user_id": userID, "status": bson.M{"$ne": models.InvoicePaid}}
	update := bson.M{"$set": bson.M{"line_items": items, "total": total}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Invoice
	err := s.db.Collection(invoicesCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.diagnoseMiss(ctx, userID, invoiceID)
		}
		return nil, fmt.Errorf("failed to update invoice %s: %w", invoiceID, err)
	}
	return &updated, nil
}

// diagnoseMiss distinguishes "not found" from "found but paid" after a
// guarded update matched nothing.
func (s *invoiceService) diagnoseMiss(ctx context.Context, userID, invoiceID string) error {
	invoice, err := s.FindByID(ctx, userID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status == models.InvoicePaid {
		return ErrInvoicePaid
	}
	return mongo.ErrNoDocuments
}

// SetStatus assigns a new lifecycle status. Transitions are unguarded except
// that a paid invoice only accepts a transition out of paid — which is
// always permitted, so operators can undo a mispaid marking.
func (s *invoiceService) SetStatus(ctx context.Context, userID, invoiceID string, status models.InvoiceStatus) (*models.Invoice, error) {
	switch status {
	case models.InvoiceDraft, models.InvoiceSent, models.InvoicePaid, models.InvoiceArchived:
	default:
		return nil, fmt.Errorf("invalid invoice status: %s", status)
	}

	now := time.Now().UTC()
	set := bson.M{"status": status}
	unset := bson.M{}
	if status == models.InvoicePaid {
		set["paid_at"] = now
	} else {
		unset["paid_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := bson.M{"_id": invoiceID, "user_id": userID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Invoice
	err := s.db.Collection(invoicesCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to set status on invoice %s: %w", invoiceID, err)
	}
	return &updated, nil
}

// MarkSent records a successful email delivery: status sent, timestamp, and
// the S3 archive key when one was written. Called by the background worker.
func (s *invoiceService) MarkSent(ctx context.Context, userID, invoiceID, pdfKey string) error {
	now := time.Now().UTC()
	set := bson.M{"status": models.InvoiceSent, "sent_at": now}
	if pdfKey != "" {
		set["pdf_key"] = pdfKey
	}

	// Sending a paid invoice would regress its status; guard like any
	// other mutation.
	filter := bson.M{"_id": invoiceID, "user_id": userID, "status": bson.M{"$ne": models.InvoicePaid}}
	result, err := s.db.Collection(invoicesCollection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("db error marking invoice %s sent: %w", invoiceID, err)
	}
	if result.MatchedCount == 0 {
		return s.diagnoseMiss(ctx, userID, invoiceID)
	}
	return nil
}

// Delete removes an invoice. Paid invoices are locked; transition them out
// of paid first.
func (s *invoiceService) Delete(ctx context.Context, userID, invoiceID string) error {
	filter := bson.M{"_id": invoiceID, "user_id": userID, "status": bson.M{"$ne": models.InvoicePaid}}
	result, err := s.db.Collection(invoicesCollection).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("db error deleting invoice %s: %w", invoiceID, err)
	}
	if result.DeletedCount == 0 {
		return s.diagnoseMiss(ctx, userID, invoiceID)
	}
	return nil
}
