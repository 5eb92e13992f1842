package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alairock/kash-money/internal/models"
)

// IRecurringService manages recurring expense templates.
type IRecurringService interface {
	Create(ctx context.Context, userID string, t *models.RecurringExpenseTemplate) (*models.RecurringExpenseTemplate, error)
	FindByID(ctx context.Context, userID, templateID string) (*models.RecurringExpenseTemplate, error)
	List(ctx context.Context, userID string) ([]models.RecurringExpenseTemplate, error)
	Update(ctx context.Context, userID, templateID string, updates map[string]interface{}) (*models.RecurringExpenseTemplate, error)
	Reorder(ctx context.Context, userID string, orderedIDs []string) error
	Delete(ctx context.Context, userID, templateID string) error
}

const recurringCollection = "recurring_expenses"

type recurringService struct {
	db           *mongo.Database
	limitService ILimitService
}

// NewRecurringService creates a new RecurringService.
func NewRecurringService(database *mongo.Database, limitService ILimitService) IRecurringService {
	return &recurringService{db: database, limitService: limitService}
}

// Create inserts a new template after the plan-limit gate. New templates go
// to the end of the ordering unless an explicit order is supplied.
func (s *recurringService) Create(ctx context.Context, userID string, t *models.RecurringExpenseTemplate) (*models.RecurringExpenseTemplate, error) {
	if err := s.limitService.AssertUnderLimit(ctx, userID, ResourceRecurringTemplates); err != nil {
		return nil, err
	}

	t.GenIDIfEmpty()
	t.UserID = userID
	t.Created = time.Now().UTC()
	if t.Order == 0 {
		last, err := s.lastOrder(ctx, userID)
		if err != nil {
			return nil, err
		}
		t.Order = last + 1
	}

	if _, err := s.db.Collection(recurringCollection).InsertOne(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to insert recurring template for user %s: %w", userID, err)
	}
	return t, nil
}

func (s *recurringService) lastOrder(ctx context.Context, userID string) (float64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})
	var last models.RecurringExpenseTemplate
	err := s.db.Collection(recurringCollection).FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&last)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to find last template order for user %s: %w", userID, err)
	}
	return last.Order, nil
}

// FindByID returns the template, scoped to the owning user.
func (s *recurringService) FindByID(ctx context.Context, userID, templateID string) (*models.RecurringExpenseTemplate, error) {
	var t models.RecurringExpenseTemplate
	err := s.db.Collection(recurringCollection).FindOne(ctx, bson.M{"_id": templateID, "user_id": userID}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding recurring template %s: %w", templateID, err)
	}
	return &t, nil
}

// List returns the user's templates in display/copy order: order ascending,
// ties broken by original insertion (created, then _id).
func (s *recurringService) List(ctx context.Context, userID string) ([]models.RecurringExpenseTemplate, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "order", Value: 1},
		{Key: "created", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := s.db.Collection(recurringCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring templates for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var templates []models.RecurringExpenseTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode recurring templates: %w", err)
	}
	return templates, nil
}

// Update modifies mutable fields of a template owned by the user.
func (s *recurringService) Update(ctx context.Context, userID, templateID string, updates map[string]interface{}) (*models.RecurringExpenseTemplate, error) {
	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "amount", "link", "note", "is_automatic", "order":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via Update", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}

	filter := bson.M{"_id": templateID, "user_id": userID}
	update := bson.M{"$set": allowedUpdates}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.RecurringExpenseTemplate
	err := s.db.Collection(recurringCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update recurring template %s: %w", templateID, err)
	}
	return &updated, nil
}

// Reorder rewrites the order field to match the given ID sequence. This
// backs the drag-to-reorder table: the client sends the full new ordering.
func (s *recurringService) Reorder(ctx context.Context, userID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "user_id": userID}).
			SetUpdate(bson.M{"$set": bson.M{"order": float64(i + 1)}}))
	}
	if _, err := s.db.Collection(recurringCollection).BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to reorder recurring templates for user %s: %w", userID, err)
	}
	return nil
}

// Delete removes a template. Budgets that already copied it are unaffected:
// their line items are value snapshots.
func (s *recurringService) Delete(ctx context.Context, userID, templateID string) error {
	result, err := s.db.Collection(recurringCollection).DeleteOne(ctx, bson.M{"_id": templateID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("db error deleting recurring template %s: %w", templateID, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
