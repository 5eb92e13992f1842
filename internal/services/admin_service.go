package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alairock/kash-money/internal/config"
	"github.com/alairock/kash-money/internal/models"
)

// IAdminService backs the super-admin callable endpoint. Authorization is a
// single predicate over the configuration-supplied email allow-list,
// evaluated at the endpoint boundary, never inline in handlers.
type IAdminService interface {
	IsSuperAdmin(email string) bool
	ListAccounts(ctx context.Context) ([]AccountUsage, error)
	UpdateAccountLimits(ctx context.Context, userID string, overrides *models.UserLimits) error
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

// AccountUsage is one row of the admin account listing: the account, its
// effective limits, and its current usage.
type AccountUsage struct {
	UserID  string                `json:"user_id"`
	Email   string                `json:"email"`
	Name    string                `json:"name"`
	Created time.Time             `json:"created"`
	Limits  models.ResolvedLimits `json:"limits"`
	Usage   ResourceUsage         `json:"usage"`
}

// DashboardStats are the aggregate counts on the admin dashboard.
type DashboardStats struct {
	Users             int64 `json:"users"`
	Clients           int64 `json:"clients"`
	Invoices          int64 `json:"invoices"`
	InvoicesThisMonth int64 `json:"invoices_this_month"`
	Budgets           int64 `json:"budgets"`
}

type adminService struct {
	db           *mongo.Database
	cfg          *config.Config
	userService  IUserService
	limitService ILimitService
	now          func() time.Time
}

// NewAdminService creates a new AdminService.
func NewAdminService(database *mongo.Database, cfg *config.Config, userService IUserService, limitService ILimitService) IAdminService {
	return &adminService{
		db:           database,
		cfg:          cfg,
		userService:  userService,
		limitService: limitService,
		now:          time.Now,
	}
}

// IsSuperAdmin reports whether the email is on the allow-list.
func (s *adminService) IsSuperAdmin(email string) bool {
	return s.cfg.IsAdminEmail(email)
}

// ListAccounts returns every account with its effective limits and usage.
func (s *adminService) ListAccounts(ctx context.Context) ([]AccountUsage, error) {
	users, err := s.userService.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]AccountUsage, 0, len(users))
	for _, user := range users {
		limits, err := s.limitService.ResolveLimits(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve limits for user %s: %w", user.ID, err)
		}
		usage, err := s.limitService.Usage(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read usage for user %s: %w", user.ID, err)
		}
		accounts = append(accounts, AccountUsage{
			UserID:  user.ID,
			Email:   user.Email,
			Name:    user.Name,
			Created: user.Created,
			Limits:  *limits,
			Usage:   *usage,
		})
	}
	return accounts, nil
}

// UpdateAccountLimits sets a user's limit overrides, and their plan when the
// override carries one.
func (s *adminService) UpdateAccountLimits(ctx context.Context, userID string, overrides *models.UserLimits) error {
	if _, err := s.userService.FindByID(ctx, userID); err != nil {
		return err
	}
	if overrides.Plan != nil {
		if err := s.userService.SetPlan(ctx, userID, *overrides.Plan); err != nil {
			return err
		}
	}
	return s.limitService.SetOverrides(ctx, userID, overrides)
}

// DashboardStats computes the aggregate dashboard counts.
func (s *adminService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.Users, err = s.userService.CountUsers(ctx); err != nil {
		return nil, err
	}
	if stats.Clients, err = s.db.Collection("clients").CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	if stats.Invoices, err = s.db.Collection("invoices").CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}
	if stats.Budgets, err = s.db.Collection("budgets").CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count budgets: %w", err)
	}

	monthStart, nextMonthStart := MonthWindow(s.now())
	monthFilter := bson.M{"created": bson.M{"$gte": monthStart, "$lt": nextMonthStart}}
	if stats.InvoicesThisMonth, err = s.db.Collection("invoices").CountDocuments(ctx, monthFilter); err != nil {
		return nil, fmt.Errorf("failed to count invoices this month: %w", err)
	}

	return stats, nil
}
