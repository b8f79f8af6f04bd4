package invoice_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/shop-backend/internal/invoice"
	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
)

func TestAllocator_Allocate(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()

	seed := []string{"INV-2026-001", "INV-2026-007", "INV-2025-042", "not-an-invoice", ""}
	for _, number := range seed {
		err := store.Append(ctx, ledger.TabOrders, map[string]string{ledger.FieldInvoiceNumber: number})
		require.NoError(t, err)
	}

	a := invoice.NewAllocator(store, "INV")
	assert.Equal(t, "INV-2026-008", a.Allocate(ctx, 2026))
	assert.Equal(t, "INV-2025-043", a.Allocate(ctx, 2025))
	assert.Equal(t, "INV-2024-001", a.Allocate(ctx, 2024))
}

func TestAllocator_ConcurrentAllocationsAreDistinct(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	a := invoice.NewAllocator(store, "INV")

	const n = 50
	numbers := make(chan string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fields := map[string]string{ledger.FieldSessionID: fmt.Sprintf("cs_%d", i)}
			number, err := a.AllocateAndAppend(ctx, 2026, fields)
			assert.NoError(t, err)
			numbers <- number
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, n)
	for number := range numbers {
		assert.False(t, seen[number], "duplicate invoice number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["INV-2026-001"])
	assert.True(t, seen[fmt.Sprintf("INV-2026-%03d", n)])
}

type failingStore struct {
	ledger.Store
}

func (f *failingStore) Rows(_ context.Context, _ string) ([]ledger.Row, error) {
	return nil, errors.New("store unreachable")
}

func TestAllocator_FallsBackWhenScanFails(t *testing.T) {
	a := invoice.NewAllocator(&failingStore{}, "INV")

	number := a.Allocate(context.Background(), 2026)
	assert.True(t, strings.HasPrefix(number, "INV-2026-T"), "got %s", number)
}
