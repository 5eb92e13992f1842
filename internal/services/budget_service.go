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
	"github.com/alairock/kash-money/internal/utils"
)

// IBudgetService manages budgets and their snapshot line items.
type IBudgetService interface {
	Create(ctx context.Context, userID, name string, startingAmount float64, includeRecurring bool) (*models.Budget, error)
	FindByID(ctx context.Context, userID, budgetID string) (*models.Budget, error)
	List(ctx context.Context, userID string, limit int, cursor *string) ([]models.Budget, string, error)
	Update(ctx context.Context, userID, budgetID string, updates map[string]interface{}) (*models.Budget, error)
	Delete(ctx context.Context, userID, budgetID string) error
	AddLineItem(ctx context.Context, userID, budgetID string, item models.BudgetLineItem) (*models.Budget, error)
	UpdateLineItem(ctx context.Context, userID, budgetID string, item models.BudgetLineItem) (*models.Budget, error)
	RemoveLineItem(ctx context.Context, userID, budgetID, itemID string) (*models.Budget, error)
}

const budgetsCollection = "budgets"

type budgetService struct {
	db               *mongo.Database
	limitService     ILimitService
	recurringService IRecurringService
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(database *mongo.Database, limitService ILimitService, recurringService IRecurringService) IBudgetService {
	return &budgetService{db: database, limitService: limitService, recurringService: recurringService}
}

// Create inserts a new budget after the plan-limit gate. When
// includeRecurring is set, the user's templates are copied by value in their
// display order; edits to either side afterwards do not affect the other.
func (s *budgetService) Create(ctx context.Context, userID, name string, startingAmount float64, includeRecurring bool) (*models.Budget, error) {
	if err := s.limitService.AssertUnderLimit(ctx, userID, ResourceBudgets); err != nil {
		return nil, err
	}

	lineItems := []models.BudgetLineItem{}
	if includeRecurring {
		templates, err := s.recurringService.List(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load templates for new budget: %w", err)
		}
		for i := range templates {
			lineItems = append(lineItems, models.LineItemFromTemplate(&templates[i]))
		}
	}

	budget := &models.Budget{
		Base:           models.NewBase(),
		UserID:         userID,
		Name:           name,
		Created:        time.Now().UTC(),
		StartingAmount: startingAmount,
		LineItems:      lineItems,
	}
	if _, err := s.db.Collection(budgetsCollection).InsertOne(ctx, budget); err != nil {
		return nil, fmt.Errorf("failed to insert budget for user %s: %w", userID, err)
	}
	return budget, nil
}

// FindByID returns the budget, scoped to the owning user. A budget owned by
// another user is indistinguishable from a missing one.
func (s *budgetService) FindByID(ctx context.Context, userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	err := s.db.Collection(budgetsCollection).FindOne(ctx, bson.M{"_id": budgetID, "user_id": userID}).Decode(&budget)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding budget %s: %w", budgetID, err)
	}
	return &budget, nil
}

// List returns a page of the user's budgets, newest first, with an opaque
// forward-only cursor. Pages are not a stable snapshot under concurrent
// writes; the cursor only guarantees monotonic forward progress.
func (s *budgetService) List(ctx context.Context, userID string, limit int, cursor *string) ([]models.Budget, string, error) {
	limit = normalizeListLimit(limit)
	filter := bson.M{"user_id": userID}
	applyCursorFilter(filter, cursor)

	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	listCursor, err := s.db.Collection(budgetsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query budgets for user %s: %w", userID, err)
	}
	defer listCursor.Close(ctx)

	var results []models.Budget
	if err = listCursor.All(ctx, &results); err != nil {
		return nil, "", fmt.Errorf("failed to decode budgets: %w", err)
	}

	nextCursor := ""
	if len(results) > limit {
		last := results[limit-1]
		nextCursor = utils.EncodeCursor(last.Created, last.ID)
		results = results[:limit]
	}
	return results, nextCursor, nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// normalizeListLimit clamps a caller-supplied page size. Query-string limits
// arrive unvalidated, so non-positive values fall back to the default and
// oversized ones are capped; the pagination slice below relies on limit > 0.
func normalizeListLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// applyCursorFilter narrows a list filter to items strictly after the cursor
// position in (created desc, _id desc) order. Invalid cursors are ignored,
// which restarts the listing from the top.
func applyCursorFilter(filter bson.M, cursor *string) {
	if cursor == nil || *cursor == "" {
		return
	}
	created, lastID, err := utils.DecodeCursor(*cursor)
	if err != nil {
		return
	}
	filter["$or"] = bson.A{
		bson.M{"created": created, "_id": bson.M{"$lt": lastID}},
		bson.M{"created": bson.M{"$lt": created}},
	}
}

// Update modifies the budget's own fields (not its line items).
func (s *budgetService) Update(ctx context.Context, userID, budgetID string, updates map[string]interface{}) (*models.Budget, error) {
	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "starting_amount":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via Update", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}

	filter := bson.M{"_id": budgetID, "user_id": userID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Budget
	err := s.db.Collection(budgetsCollection).FindOneAndUpdate(ctx, filter, bson.M{"$set": allowedUpdates}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update budget %s: %w", budgetID, err)
	}
	return &updated, nil
}

// Delete removes the budget.
func (s *budgetService) Delete(ctx context.Context, userID, budgetID string) error {
	result, err := s.db.Collection(budgetsCollection).DeleteOne(ctx, bson.M{"_id": budgetID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("db error deleting budget %s: %w", budgetID, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddLineItem appends an ad-hoc line item to the budget.
func (s *budgetService) AddLineItem(ctx context.Context, userID, budgetID string, item models.BudgetLineItem) (*models.Budget, error) {
	if item.ID == "" {
		item.ID = models.NewBase().ID
	}
	if item.Status == "" {
		item.Status = models.LineItemIncomplete
	}

	filter := bson.M{"_id": budgetID, "user_id": userID}
	update := bson.M{"$push": bson.M{"line_items": item}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Budget
	err := s.db.Collection(budgetsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to add line item to budget %s: %w", budgetID, err)
	}
	return &updated, nil
}

// UpdateLineItem replaces a single line item in place, matched by its ID.
func (s *budgetService) UpdateLineItem(ctx context.Context, userID, budgetID string, item models.BudgetLineItem) (*models.Budget, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("line item ID is required")
	}

	filter := bson.M{"_id": budgetID, "user_id": userID}
	update := bson.M{"$set": bson.M{"line_items.$[elem]": item}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"elem.id": item.ID}}})

	var updated models.Budget
	err := s.db.Collection(budgetsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update line item %s in budget %s: %w", item.ID, budgetID, err)
	}
	return &updated, nil
}

// RemoveLineItem deletes a single line item, matched by its ID.
func (s *budgetService) RemoveLineItem(ctx context.Context, userID, budgetID, itemID string) (*models.Budget, error) {
	filter := bson.M{"_id": budgetID, "user_id": userID}
	update := bson.M{"$pull": bson.M{"line_items": bson.M{"id": itemID}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Budget
	err := s.db.Collection(budgetsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to remove line item %s from budget %s: %w", itemID, budgetID, err)
	}
	return &updated, nil
}
