package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alairock/kash-money/internal/config"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/utils"
)

type invoiceTestEnv struct {
	userService    IUserService
	clientService  IClientService
	invoiceService IInvoiceService
	user           *models.User
	client         *models.Client
}

func setupInvoiceTest(t *testing.T) (*invoiceTestEnv, context.Context) {
	t.Helper()
	db := utils.SetupTestDB(t, "kashmoney_test_invoices",
		usersCollection, limitsCollection, clientsCollection, invoicesCollection, countersCollection)
	ctx := context.Background()

	cfg := &config.Config{
		InvoiceDueDays:         30,
		FreeClients:            10,
		FreeInvoicesPerMonth:   100,
		FreeBudgetsPerMonth:    10,
		FreeRecurringTemplates: 10,
	}
	userService := NewUserService(db)
	limitService := NewLimitService(db, cfg, staticConfigService{}, userService)
	clientService := NewClientService(db, limitService)
	numberService := NewInvoiceNumberService(db)
	invoiceService := NewInvoiceService(db, cfg, limitService, clientService, numberService)

	user, err := userService.Register(ctx, "invoices@example.com", "password123", "Invoice Tester")
	require.NoError(t, err)
	client, err := clientService.Create(ctx, user.ID, &models.Client{Name: "Acme", Email: "ap@acme.com"})
	require.NoError(t, err)

	return &invoiceTestEnv{
		userService:    userService,
		clientService:  clientService,
		invoiceService: invoiceService,
		user:           user,
		client:         client,
	}, ctx
}

func TestInvoiceCreate(t *testing.T) {
	env, ctx := setupInvoiceTest(t)

	items := []models.InvoiceLineItem{
		{Description: "Development", Hours: 10, Rate: 150},
		{Description: "Review", Hours: 2, Rate: 100},
	}
	invoice, err := env.invoiceService.Create(ctx, env.user.ID, env.client.ID, items)
	require.NoError(t, err)

	year := time.Now().UTC().Year()
	assert.Equal(t, FormatInvoiceNumber(year, 1), invoice.Number)
	assert.Equal(t, models.InvoiceDraft, invoice.Status)
	assert.InDelta(t, 1700.0, invoice.Total, 0.001)
	assert.NotEmpty(t, invoice.LineItems[0].ID)
	assert.WithinDuration(t, invoice.Created.AddDate(0, 0, 30), invoice.DateDue, time.Second)

	// Sequential numbering within the user.
	second, err := env.invoiceService.Create(ctx, env.user.ID, env.client.ID, items)
	require.NoError(t, err)
	assert.Equal(t, FormatInvoiceNumber(year, 2), second.Number)
}

func TestInvoiceCreateUnknownClient(t *testing.T) {
	env, ctx := setupInvoiceTest(t)

	_, err := env.invoiceService.Create(ctx, env.user.ID, "no-such-client", []models.InvoiceLineItem{{Description: "x", Hours: 1, Rate: 1}})
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestInvoiceCreateCrossTenantClient(t *testing.T) {
	env, ctx := setupInvoiceTest(t)

	other, err := env.userService.Register(ctx, "other@example.com", "password123", "Other")
	require.NoError(t, err)

	// Another user's client reads as not-found, never as a hint that it
	// exists.
	_, err = env.invoiceService.Create(ctx, other.ID, env.client.ID, []models.InvoiceLineItem{{Description: "x", Hours: 1, Rate: 1}})
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestInvoicePaidGuard(t *testing.T) {
	env, ctx := setupInvoiceTest(t)

	invoice, err := env.invoiceService.Create(ctx, env.user.ID, env.client.ID, []models.InvoiceLineItem{{Description: "Work", Hours: 1, Rate: 100}})
	require.NoError(t, err)

	paid, err := env.invoiceService.SetStatus(ctx, env.user.ID, invoice.ID, models.InvoicePaid)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// Edits and deletes are refused while paid.
	_, err = env.invoiceService.UpdateLineItems(ctx, env.user.ID, invoice.ID, []models.InvoiceLineItem{{Description: "More", Hours: 2, Rate: 100}})
	assert.ErrorIs(t, err, ErrInvoicePaid)
	assert.ErrorIs(t, env.invoiceService.Delete(ctx, env.user.ID, invoice.ID), ErrInvoicePaid)

	// The transition out of paid is always allowed and clears paid_at.
	reverted, err := env.invoiceService.SetStatus(ctx, env.user.ID, invoice.ID, models.InvoiceSent)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceSent, reverted.Status)
	assert.Nil(t, reverted.PaidAt)

	_, err = env.invoiceService.UpdateLineItems(ctx, env.user.ID, invoice.ID, []models.InvoiceLineItem{{Description: "More", Hours: 2, Rate: 100}})
	assert.NoError(t, err)
}

func TestInvoiceListStatusFilterAndCursor(t *testing.T) {
	env, ctx := setupInvoiceTest(t)

	items := []models.InvoiceLineItem{{Description: "Work", Hours: 1, Rate: 100}}
	for i := 0; i < 5; i++ {
		_, err := env.invoiceService.Create(ctx, env.user.ID, env.client.ID, items)
		require.NoError(t, err)
	}

	page1, cursor, err := env.invoiceService.List(ctx, env.user.ID, nil, 3, nil)
	require.NoError(t, err)
	assert.Len(t, page1, 3)
	require.NotEmpty(t, cursor)

	page2, cursor2, err := env.invoiceService.List(ctx, env.user.ID, nil, 3, &cursor)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.Empty(t, cursor2)

	seen := make(map[string]bool)
	for _, inv := range append(page1, page2...) {
		assert.False(t, seen[inv.ID], "invoice %s returned twice", inv.Number)
		seen[inv.ID] = true
	}

	draft := models.InvoiceDraft
	drafts, _, err := env.invoiceService.List(ctx, env.user.ID, &draft, 10, nil)
	require.NoError(t, err)
	assert.Len(t, drafts, 5)

	paid := models.InvoicePaid
	none, _, err := env.invoiceService.List(ctx, env.user.ID, &paid, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInvoiceListHostileLimits(t *testing.T) {
	env, ctx := setupInvoiceTest(t)

	items := []models.InvoiceLineItem{{Description: "Work", Hours: 1, Rate: 100}}
	_, err := env.invoiceService.Create(ctx, env.user.ID, env.client.ID, items)
	require.NoError(t, err)

	for _, limit := range []int{0, -3} {
		invoices, next, err := env.invoiceService.List(ctx, env.user.ID, nil, limit, nil)
		require.NoError(t, err)
		assert.Len(t, invoices, 1)
		assert.Empty(t, next)
	}
}

func TestInvoiceMarkSent(t *testing.T) {
	env, ctx := setupInvoiceTest(t)

	invoice, err := env.invoiceService.Create(ctx, env.user.ID, env.client.ID, []models.InvoiceLineItem{{Description: "Work", Hours: 1, Rate: 100}})
	require.NoError(t, err)

	require.NoError(t, env.invoiceService.MarkSent(ctx, env.user.ID, invoice.ID, "invoices/u/INV.pdf"))

	sent, err := env.invoiceService.FindByID(ctx, env.user.ID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, "invoices/u/INV.pdf", sent.PdfKey)
}
