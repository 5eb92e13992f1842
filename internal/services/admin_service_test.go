package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alairock/kash-money/internal/config"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/utils"
)

func TestIsSuperAdmin(t *testing.T) {
	cfg := &config.Config{AdminEmails: []string{"root@example.com", "ops@example.com"}}
	svc := NewAdminService(nil, cfg, nil, nil)

	assert.True(t, svc.IsSuperAdmin("root@example.com"))
	assert.True(t, svc.IsSuperAdmin("ROOT@Example.com"), "allow-list match is case-insensitive")
	assert.False(t, svc.IsSuperAdmin("user@example.com"))
	assert.False(t, svc.IsSuperAdmin(""))
}

func TestAdminListAccountsAndStats(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_admin",
		usersCollection, limitsCollection, clientsCollection, invoicesCollection, budgetsCollection)
	ctx := context.Background()

	cfg := &config.Config{
		AdminEmails:            []string{"root@example.com"},
		FreeClients:            1,
		FreeInvoicesPerMonth:   3,
		FreeBudgetsPerMonth:    2,
		FreeRecurringTemplates: 10,
	}
	userService := NewUserService(db)
	limitService := NewLimitService(db, cfg, staticConfigService{}, userService)
	adminService := NewAdminService(db, cfg, userService, limitService)

	alice, err := userService.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)
	_, err = userService.Register(ctx, "bob@example.com", "password123", "Bob")
	require.NoError(t, err)

	accounts, err := adminService.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, acct := range accounts {
		assert.NotEmpty(t, acct.Email)
		assert.Equal(t, models.PlanFree, acct.Limits.Plan)
	}

	// Raising a single account's limits shows up in the listing.
	ten := 10
	require.NoError(t, adminService.UpdateAccountLimits(ctx, alice.ID, &models.UserLimits{Clients: &ten}))
	resolved, err := limitService.ResolveLimits(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, resolved.Clients)

	stats, err := adminService.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users)
	assert.Equal(t, int64(0), stats.Invoices)
}
