package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alairock/kash-money/internal/utils"
)

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-2026-0001", FormatInvoiceNumber(2026, 1))
	assert.Equal(t, "INV-2026-0042", FormatInvoiceNumber(2026, 42))
	assert.Equal(t, "INV-2027-10000", FormatInvoiceNumber(2027, 10000)) // No truncation past 4 digits
}

func TestAllocateSequence(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_counters", countersCollection)
	svc := NewInvoiceNumberService(db)
	ctx := context.Background()
	year := time.Now().UTC().Year()

	for i := 1; i <= 3; i++ {
		number, err := svc.Allocate(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, FormatInvoiceNumber(year, i), number)
	}

	// A second user gets an independent sequence.
	number, err := svc.Allocate(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, FormatInvoiceNumber(year, 1), number)
}

func TestAllocateYearRollover(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_counters", countersCollection)
	svc := NewInvoiceNumberService(db).(*invoiceNumberService)
	ctx := context.Background()

	svc.now = func() time.Time { return time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC) }
	number, err := svc.Allocate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", number)
	number, err = svc.Allocate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0002", number)

	// The first allocation of the new year resets the sequence to 1.
	svc.now = func() time.Time { return time.Date(2027, 1, 1, 0, 1, 0, 0, time.UTC) }
	number, err = svc.Allocate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-0001", number)
}

func TestAllocateConcurrent(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_counters", countersCollection)
	svc := NewInvoiceNumberService(db)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	results := make(chan string, n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := svc.Allocate(ctx, "user-1")
			if err != nil {
				errs <- err
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent allocation failed: %v", err)
	}

	seen := make(map[string]bool, n)
	for number := range results {
		assert.False(t, seen[number], "number %s allocated twice", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)

	counter, err := svc.GetCounter(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, n, counter.Count)
}

func TestSetCounterRenumbering(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_counters", countersCollection)
	svc := NewInvoiceNumberService(db).(*invoiceNumberService)
	ctx := context.Background()
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.SetCounter(ctx, "user-1", 2026, 99))

	number, err := svc.Allocate(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0100", number)
}

func TestSetCounterValidation(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_counters", countersCollection)
	svc := NewInvoiceNumberService(db)
	ctx := context.Background()

	assert.Error(t, svc.SetCounter(ctx, "user-1", 999, 0), "three-digit year")
	assert.Error(t, svc.SetCounter(ctx, "user-1", 10000, 0), "five-digit year")
	assert.Error(t, svc.SetCounter(ctx, "user-1", 2026, -1), "negative count")
	assert.NoError(t, svc.SetCounter(ctx, "user-1", 2026, 0))
}

func TestGetCounterNeverAllocated(t *testing.T) {
	db := utils.SetupTestDB(t, "kashmoney_test_counters", countersCollection)
	svc := NewInvoiceNumberService(db)

	_, err := svc.GetCounter(context.Background(), fmt.Sprintf("user-%d", time.Now().UnixNano()))
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}
