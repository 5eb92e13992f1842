package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alairock/kash-money/internal/config"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/utils"
)

type budgetTestEnv struct {
	userService      IUserService
	recurringService IRecurringService
	budgetService    IBudgetService
	user             *models.User
}

func setupBudgetTest(t *testing.T) (*budgetTestEnv, context.Context) {
	t.Helper()
	db := utils.SetupTestDB(t, "kashmoney_test_budgets",
		usersCollection, limitsCollection, budgetsCollection, recurringCollection)
	ctx := context.Background()

	cfg := &config.Config{
		FreeClients:            10,
		FreeInvoicesPerMonth:   100,
		FreeBudgetsPerMonth:    100,
		FreeRecurringTemplates: 100,
	}
	userService := NewUserService(db)
	limitService := NewLimitService(db, cfg, staticConfigService{}, userService)
	recurringService := NewRecurringService(db, limitService)
	budgetService := NewBudgetService(db, limitService, recurringService)

	user, err := userService.Register(ctx, "budgets@example.com", "password123", "Budget Tester")
	require.NoError(t, err)

	return &budgetTestEnv{
		userService:      userService,
		recurringService: recurringService,
		budgetService:    budgetService,
		user:             user,
	}, ctx
}

func TestBudgetCreateCopiesTemplates(t *testing.T) {
	env, ctx := setupBudgetTest(t)

	rent, err := env.recurringService.Create(ctx, env.user.ID, &models.RecurringExpenseTemplate{Name: "Rent", Amount: -1200, IsAutomatic: true})
	require.NoError(t, err)
	_, err = env.recurringService.Create(ctx, env.user.ID, &models.RecurringExpenseTemplate{Name: "Gym", Amount: -30})
	require.NoError(t, err)

	budget, err := env.budgetService.Create(ctx, env.user.ID, "March", 2000, true)
	require.NoError(t, err)

	require.Len(t, budget.LineItems, 2)
	// Template order is preserved.
	assert.Equal(t, "Rent", budget.LineItems[0].Name)
	assert.Equal(t, models.LineItemAutomatic, budget.LineItems[0].Status)
	assert.Equal(t, "Gym", budget.LineItems[1].Name)
	assert.Equal(t, models.LineItemIncomplete, budget.LineItems[1].Status)
	for _, item := range budget.LineItems {
		assert.True(t, item.IsRecurring)
		assert.NotEqual(t, rent.ID, item.ID)
	}

	totals := budget.Totals()
	assert.InDelta(t, 770.0, totals.UnmarkedTotal, 0.001)
}

func TestBudgetCreateWithoutTemplates(t *testing.T) {
	env, ctx := setupBudgetTest(t)

	_, err := env.recurringService.Create(ctx, env.user.ID, &models.RecurringExpenseTemplate{Name: "Rent", Amount: -1200})
	require.NoError(t, err)

	budget, err := env.budgetService.Create(ctx, env.user.ID, "Empty", 500, false)
	require.NoError(t, err)
	assert.Empty(t, budget.LineItems)
}

func TestBudgetLineItemsIndependentOfTemplates(t *testing.T) {
	env, ctx := setupBudgetTest(t)

	template, err := env.recurringService.Create(ctx, env.user.ID, &models.RecurringExpenseTemplate{Name: "Rent", Amount: -1200})
	require.NoError(t, err)

	budget, err := env.budgetService.Create(ctx, env.user.ID, "April", 0, true)
	require.NoError(t, err)
	require.Len(t, budget.LineItems, 1)

	// Deleting the template leaves the copied line item untouched.
	require.NoError(t, env.recurringService.Delete(ctx, env.user.ID, template.ID))

	reloaded, err := env.budgetService.FindByID(ctx, env.user.ID, budget.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.LineItems, 1)
	assert.Equal(t, "Rent", reloaded.LineItems[0].Name)
}

func TestBudgetLineItemMutations(t *testing.T) {
	env, ctx := setupBudgetTest(t)

	budget, err := env.budgetService.Create(ctx, env.user.ID, "May", 100, false)
	require.NoError(t, err)

	budget, err = env.budgetService.AddLineItem(ctx, env.user.ID, budget.ID, models.BudgetLineItem{
		Status: models.LineItemIncomplete, Name: "Groceries", Amount: -150,
	})
	require.NoError(t, err)
	require.Len(t, budget.LineItems, 1)
	item := budget.LineItems[0]
	assert.NotEmpty(t, item.ID)

	item.Amount = -175.25
	item.IsMarked = true
	budget, err = env.budgetService.UpdateLineItem(ctx, env.user.ID, budget.ID, item)
	require.NoError(t, err)
	assert.Equal(t, -175.25, budget.LineItems[0].Amount)
	assert.True(t, budget.LineItems[0].IsMarked)

	budget, err = env.budgetService.RemoveLineItem(ctx, env.user.ID, budget.ID, item.ID)
	require.NoError(t, err)
	assert.Empty(t, budget.LineItems)
}

func TestNormalizeListLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, normalizeListLimit(0))
	assert.Equal(t, defaultListLimit, normalizeListLimit(-5))
	assert.Equal(t, 1, normalizeListLimit(1))
	assert.Equal(t, 42, normalizeListLimit(42))
	assert.Equal(t, maxListLimit, normalizeListLimit(maxListLimit))
	assert.Equal(t, maxListLimit, normalizeListLimit(maxListLimit+1))
}

func TestBudgetListHostileLimits(t *testing.T) {
	env, ctx := setupBudgetTest(t)

	for i := 0; i < 2; i++ {
		_, err := env.budgetService.Create(ctx, env.user.ID, "B", 0, false)
		require.NoError(t, err)
	}

	// Unparseable or missing query limits reach the service as zero;
	// negatives come straight from the query string. Both must page with
	// the default size instead of panicking on the slice bound.
	for _, limit := range []int{0, -1} {
		budgets, next, err := env.budgetService.List(ctx, env.user.ID, limit, nil)
		require.NoError(t, err)
		assert.Len(t, budgets, 2)
		assert.Empty(t, next)
	}
}

func TestBudgetTenancyScoping(t *testing.T) {
	env, ctx := setupBudgetTest(t)

	budget, err := env.budgetService.Create(ctx, env.user.ID, "Private", 0, false)
	require.NoError(t, err)

	other, err := env.userService.Register(ctx, "intruder@example.com", "password123", "Intruder")
	require.NoError(t, err)

	_, err = env.budgetService.FindByID(ctx, other.ID, budget.ID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	assert.ErrorIs(t, env.budgetService.Delete(ctx, other.ID, budget.ID), mongo.ErrNoDocuments)
}

func TestRecurringReorder(t *testing.T) {
	env, ctx := setupBudgetTest(t)

	a, err := env.recurringService.Create(ctx, env.user.ID, &models.RecurringExpenseTemplate{Name: "A", Amount: -1})
	require.NoError(t, err)
	b, err := env.recurringService.Create(ctx, env.user.ID, &models.RecurringExpenseTemplate{Name: "B", Amount: -2})
	require.NoError(t, err)
	c, err := env.recurringService.Create(ctx, env.user.ID, &models.RecurringExpenseTemplate{Name: "C", Amount: -3})
	require.NoError(t, err)

	require.NoError(t, env.recurringService.Reorder(ctx, env.user.ID, []string{c.ID, a.ID, b.ID}))

	templates, err := env.recurringService.List(ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	assert.Equal(t, "C", templates[0].Name)
	assert.Equal(t, "A", templates[1].Name)
	assert.Equal(t, "B", templates[2].Name)
}
