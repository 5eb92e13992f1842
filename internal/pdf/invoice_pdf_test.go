package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alairock/kash-money/internal/models"
)

func TestRenderInvoice(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	invoice := &models.Invoice{
		Base:    models.NewBase(),
		Number:  "INV-2026-0012",
		Status:  models.InvoiceDraft,
		Created: now,
		DateDue: now.AddDate(0, 0, 30),
		LineItems: []models.InvoiceLineItem{
			{Description: "Development", Hours: 12, Rate: 150, Amount: 1800},
			{Description: "Deployment support", Hours: 3.5, Rate: 120, Amount: 420},
		},
		Total: 2220,
	}
	client := &models.Client{
		Name:     "Acme Corp",
		Email:    "ap@acme.com",
		Address1: "1 Main St",
		City:     "Springfield",
		State:    "OR",
		Zip:      "97477",
	}
	company := &models.CompanySettings{
		CompanyName: "Example Consulting",
		OwnerName:   "Pat Example",
		Email:       "pat@example.com",
	}

	data, err := RenderInvoice(invoice, client, company)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderInvoiceMinimalData(t *testing.T) {
	// Missing company settings and client address must not break rendering.
	invoice := &models.Invoice{
		Base:    models.NewBase(),
		Number:  "INV-2026-0001",
		Created: time.Now().UTC(),
		DateDue: time.Now().UTC(),
	}
	data, err := RenderInvoice(invoice, &models.Client{Name: "X"}, &models.CompanySettings{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
