package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alairock/kash-money/internal/config"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/utils"
)

// staticConfigService satisfies IConfigService with env-derived defaults
// only, so limit tests do not need Redis.
type staticConfigService struct{}

func (staticConfigService) Load(ctx context.Context) error { return nil }
func (staticConfigService) Get(ctx context.Context, key string) (interface{}, bool) {
	return nil, false
}
func (staticConfigService) GetInt(ctx context.Context, key string, defaultValue int) int {
	return defaultValue
}
func (staticConfigService) SetConfigValue(ctx context.Context, key string, value interface{}) error {
	return nil
}
func (staticConfigService) SubscribeToChanges(ctx context.Context) error { return nil }

func limitTestConfig() *config.Config {
	return &config.Config{
		FreeClients:            1,
		FreeInvoicesPerMonth:   3,
		FreeBudgetsPerMonth:    2,
		FreeRecurringTemplates: 10,
		BasicClients:           5,
		BasicInvoicesPerMonth:  20,
		BasicBudgetsPerMonth:   10,
	}
}

func TestMonthWindow(t *testing.T) {
	start, end := MonthWindow(time.Date(2026, 8, 15, 13, 45, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestMonthWindowYearBoundary(t *testing.T) {
	start, end := MonthWindow(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestMergeLimits(t *testing.T) {
	defaults := models.ResolvedLimits{
		Plan:               models.PlanFree,
		Clients:            1,
		InvoicesPerMonth:   3,
		BudgetsPerMonth:    2,
		RecurringTemplates: 10,
	}

	assert.Equal(t, defaults, MergeLimits(defaults, nil))

	ten := 10
	unlimited := -1
	merged := MergeLimits(defaults, &models.UserLimits{
		Clients:          &ten,
		InvoicesPerMonth: &unlimited,
	})
	assert.Equal(t, 10, merged.Clients)
	assert.Equal(t, -1, merged.InvoicesPerMonth)
	// Untouched fields keep their defaults.
	assert.Equal(t, 2, merged.BudgetsPerMonth)
	assert.Equal(t, 10, merged.RecurringTemplates)
	assert.Equal(t, models.PlanFree, merged.Plan)
}

func TestAssertUnderLimitGate(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_limits", usersCollection, limitsCollection, clientsCollection)
	ctx := context.Background()

	userService := NewUserService(db)
	limitService := NewLimitService(db, limitTestConfig(), staticConfigService{}, userService)
	clientService := NewClientService(db, limitService)

	user, err := userService.Register(ctx, "limits@example.com", "password123", "Limits Tester")
	require.NoError(t, err)

	// Free plan allows one client; the first create passes, the second is
	// rejected with the stable limit code.
	_, err = clientService.Create(ctx, user.ID, &models.Client{Name: "Acme", Email: "ap@acme.com"})
	require.NoError(t, err)

	_, err = clientService.Create(ctx, user.ID, &models.Client{Name: "Globex", Email: "ap@globex.com"})
	require.Error(t, err)
	assert.True(t, IsLimitError(err))
	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, LimitErrorCode, le.Code)
	assert.Equal(t, ResourceClients, le.Kind)
	assert.Equal(t, 1, le.Limit)
}

func TestAssertUnderLimitOverrideUnlimited(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_limits", usersCollection, limitsCollection, clientsCollection)
	ctx := context.Background()

	userService := NewUserService(db)
	limitService := NewLimitService(db, limitTestConfig(), staticConfigService{}, userService)
	clientService := NewClientService(db, limitService)

	user, err := userService.Register(ctx, "unlimited@example.com", "password123", "Override Tester")
	require.NoError(t, err)

	unlimited := -1
	require.NoError(t, limitService.SetOverrides(ctx, user.ID, &models.UserLimits{Clients: &unlimited}))

	for i := 0; i < 5; i++ {
		_, err := clientService.Create(ctx, user.ID, &models.Client{Name: "Client", Email: "x@example.com"})
		require.NoError(t, err)
	}
}

func TestResolveLimitsPlanOverride(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_limits", usersCollection, limitsCollection, clientsCollection)
	ctx := context.Background()

	userService := NewUserService(db)
	limitService := NewLimitService(db, limitTestConfig(), staticConfigService{}, userService)

	user, err := userService.Register(ctx, "upgraded@example.com", "password123", "Plan Tester")
	require.NoError(t, err)

	// Overriding the plan switches which defaults apply.
	basic := models.PlanBasic
	require.NoError(t, limitService.SetOverrides(ctx, user.ID, &models.UserLimits{Plan: &basic}))

	resolved, err := limitService.ResolveLimits(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, resolved.Plan)
	assert.Equal(t, 5, resolved.Clients)
	assert.Equal(t, 20, resolved.InvoicesPerMonth)
}
