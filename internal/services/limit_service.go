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
)

// ResourceKind names a limit-gated resource.
type ResourceKind string

const (
	ResourceClients            ResourceKind = "clients"
	ResourceInvoices           ResourceKind = "invoices"
	ResourceBudgets            ResourceKind = "budgets"
	ResourceRecurringTemplates ResourceKind = "recurringTemplates"
)

// LimitErrorCode is the stable code carried by LimitError; clients key their
// upgrade prompt off it, not the message.
const LimitErrorCode = "plan_limit_reached"

// LimitError is returned when a create would exceed the user's plan limit.
type LimitError struct {
	Code  string       `json:"code"`
	Kind  ResourceKind `json:"kind"`
	Limit int          `json:"limit"`
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: limit of %d %s reached", e.Code, e.Limit, e.Kind)
}

// IsLimitError reports whether err is a plan-limit rejection.
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}

// ILimitService resolves per-user limits and gates create operations.
type ILimitService interface {
	ResolveLimits(ctx context.Context, userID string) (*models.ResolvedLimits, error)
	AssertUnderLimit(ctx context.Context, userID string, kind ResourceKind) error
	Usage(ctx context.Context, userID string) (*ResourceUsage, error)
	GetOverrides(ctx context.Context, userID string) (*models.UserLimits, error)
	SetOverrides(ctx context.Context, userID string, overrides *models.UserLimits) error
}

// ResourceUsage is the current count per gated resource (month-scoped where
// the limit is month-scoped).
type ResourceUsage struct {
	Clients            int64 `json:"clients"`
	InvoicesThisMonth  int64 `json:"invoices_this_month"`
	BudgetsThisMonth   int64 `json:"budgets_this_month"`
	RecurringTemplates int64 `json:"recurring_templates"`
}

const limitsCollection = "user_limits"

type limitService struct {
	db            *mongo.Database
	cfg           *config.Config
	configService IConfigService
	userService   IUserService
	now           func() time.Time
}

// NewLimitService creates a new LimitService.
func NewLimitService(database *mongo.Database, cfg *config.Config, configService IConfigService, userService IUserService) ILimitService {
	return &limitService{
		db:            database,
		cfg:           cfg,
		configService: configService,
		userService:   userService,
		now:           time.Now,
	}
}

// MonthWindow returns [start of the month containing t, start of next month)
// in UTC. An item created on the last instant of a month belongs to that
// month's quota; the first instant of the next month does not.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// planDefaults returns the default limit set for a plan. Values come from
// the dynamic config service with env-derived fallbacks, so operators can
// retune tiers without a deploy. Advanced is unlimited everywhere.
func (s *limitService) planDefaults(ctx context.Context, plan models.Plan) models.ResolvedLimits {
	d := models.ResolvedLimits{Plan: plan}
	switch plan {
	case models.PlanBasic:
		d.Clients = s.configService.GetInt(ctx, "BASIC_CLIENTS", s.cfg.BasicClients)
		d.InvoicesPerMonth = s.configService.GetInt(ctx, "BASIC_INVOICES_PER_MONTH", s.cfg.BasicInvoicesPerMonth)
		d.BudgetsPerMonth = s.configService.GetInt(ctx, "BASIC_BUDGETS_PER_MONTH", s.cfg.BasicBudgetsPerMonth)
		d.RecurringTemplates = s.configService.GetInt(ctx, "BASIC_RECURRING_TEMPLATES", s.cfg.BasicRecurringTemplates)
	case models.PlanPro:
		d.Clients = s.configService.GetInt(ctx, "PRO_CLIENTS", s.cfg.ProClients)
		d.InvoicesPerMonth = s.configService.GetInt(ctx, "PRO_INVOICES_PER_MONTH", s.cfg.ProInvoicesPerMonth)
		d.BudgetsPerMonth = s.configService.GetInt(ctx, "PRO_BUDGETS_PER_MONTH", s.cfg.ProBudgetsPerMonth)
		d.RecurringTemplates = s.configService.GetInt(ctx, "PRO_RECURRING_TEMPLATES", s.cfg.ProRecurringTemplates)
	case models.PlanAdvanced:
		d.Clients = -1
		d.InvoicesPerMonth = -1
		d.BudgetsPerMonth = -1
		d.RecurringTemplates = -1
	default: // free
		d.Plan = models.PlanFree
		d.Clients = s.configService.GetInt(ctx, "FREE_CLIENTS", s.cfg.FreeClients)
		d.InvoicesPerMonth = s.configService.GetInt(ctx, "FREE_INVOICES_PER_MONTH", s.cfg.FreeInvoicesPerMonth)
		d.BudgetsPerMonth = s.configService.GetInt(ctx, "FREE_BUDGETS_PER_MONTH", s.cfg.FreeBudgetsPerMonth)
		d.RecurringTemplates = s.configService.GetInt(ctx, "FREE_RECURRING_TEMPLATES", s.cfg.FreeRecurringTemplates)
	}
	return d
}

// MergeLimits applies non-nil override fields over plan defaults.
func MergeLimits(defaults models.ResolvedLimits, overrides *models.UserLimits) models.ResolvedLimits {
	if overrides == nil {
		return defaults
	}
	if overrides.Plan != nil {
		defaults.Plan = *overrides.Plan
	}
	if overrides.Clients != nil {
		defaults.Clients = *overrides.Clients
	}
	if overrides.InvoicesPerMonth != nil {
		defaults.InvoicesPerMonth = *overrides.InvoicesPerMonth
	}
	if overrides.BudgetsPerMonth != nil {
		defaults.BudgetsPerMonth = *overrides.BudgetsPerMonth
	}
	if overrides.RecurringTemplates != nil {
		defaults.RecurringTemplates = *overrides.RecurringTemplates
	}
	return defaults
}

// ResolveLimits merges the user's overrides over their plan defaults. An
// overridden plan changes which defaults apply before the per-field
// overrides are laid on top.
func (s *limitService) ResolveLimits(ctx context.Context, userID string) (*models.ResolvedLimits, error) {
	user, err := s.userService.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s for limit resolution: %w", userID, err)
	}

	overrides, err := s.GetOverrides(ctx, userID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	plan := user.Plan
	if overrides != nil && overrides.Plan != nil {
		plan = *overrides.Plan
	}

	resolved := MergeLimits(s.planDefaults(ctx, plan), overrides)
	return &resolved, nil
}

// AssertUnderLimit rejects a create that would exceed the user's limit for
// the given resource kind. The check is best effort: it runs immediately
// before the write, and a race between check and write is tolerated since
// plan limits are a soft quota.
func (s *limitService) AssertUnderLimit(ctx context.Context, userID string, kind ResourceKind) error {
	limits, err := s.ResolveLimits(ctx, userID)
	if err != nil {
		return err
	}

	var limit int
	var count int64
	switch kind {
	case ResourceClients:
		limit = limits.Clients
		count, err = s.countTotal(ctx, "clients", userID)
	case ResourceRecurringTemplates:
		limit = limits.RecurringTemplates
		count, err = s.countTotal(ctx, "recurring_expenses", userID)
	case ResourceInvoices:
		limit = limits.InvoicesPerMonth
		count, err = s.countThisMonth(ctx, "invoices", userID)
	case ResourceBudgets:
		limit = limits.BudgetsPerMonth
		count, err = s.countThisMonth(ctx, "budgets", userID)
	default:
		return fmt.Errorf("unknown resource kind: %s", kind)
	}
	if err != nil {
		return err
	}

	if limit < 0 {
		return nil // Unlimited
	}
	if count >= int64(limit) {
		return &LimitError{Code: LimitErrorCode, Kind: kind, Limit: limit}
	}
	return nil
}

func (s *limitService) countTotal(ctx context.Context, collection, userID string) (int64, error) {
	count, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s for user %s: %w", collection, userID, err)
	}
	return count, nil
}

func (s *limitService) countThisMonth(ctx context.Context, collection, userID string) (int64, error) {
	monthStart, nextMonthStart := MonthWindow(s.now())
	filter := bson.M{
		"user_id": userID,
		"created": bson.M{"$gte": monthStart, "$lt": nextMonthStart},
	}
	count, err := s.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s this month for user %s: %w", collection, userID, err)
	}
	return count, nil
}

// Usage returns the user's current counts for the admin screens.
func (s *limitService) Usage(ctx context.Context, userID string) (*ResourceUsage, error) {
	var usage ResourceUsage
	var err error
	if usage.Clients, err = s.countTotal(ctx, "clients", userID); err != nil {
		return nil, err
	}
	if usage.RecurringTemplates, err = s.countTotal(ctx, "recurring_expenses", userID); err != nil {
		return nil, err
	}
	if usage.InvoicesThisMonth, err = s.countThisMonth(ctx, "invoices", userID); err != nil {
		return nil, err
	}
	if usage.BudgetsThisMonth, err = s.countThisMonth(ctx, "budgets", userID); err != nil {
		return nil, err
	}
	return &usage, nil
}

// GetOverrides returns the user's limit override document, or
// mongo.ErrNoDocuments when none exists.
func (s *limitService) GetOverrides(ctx context.Context, userID string) (*models.UserLimits, error) {
	var overrides models.UserLimits
	err := s.db.Collection(limitsCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&overrides)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to read limit overrides for user %s: %w", userID, err)
	}
	return &overrides, nil
}

// SetOverrides replaces the user's limit override document.
func (s *limitService) SetOverrides(ctx context.Context, userID string, overrides *models.UserLimits) error {
	overrides.UserID = userID
	opts := options.Replace().SetUpsert(true)
	if _, err := s.db.Collection(limitsCollection).ReplaceOne(ctx, bson.M{"_id": userID}, overrides, opts); err != nil {
		return fmt.Errorf("failed to set limit overrides for user %s: %w", userID, err)
	}
	return nil
}
