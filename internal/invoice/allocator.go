package invoice

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
)

// Allocator assigns year-scoped sequential invoice numbers of the form
// PREFIX-YEAR-NNN. The ledger has no atomic increment, so the allocator is
// the single writer to the Orders tab: the mutex covers the whole
// scan-compute-append sequence, which is what keeps concurrent allocations
// from computing the same next number.
type Allocator struct {
	store  ledger.Store
	prefix string

	mu sync.Mutex
}

func NewAllocator(store ledger.Store, prefix string) *Allocator {
	return &Allocator{store: store, prefix: prefix}
}

// Allocate returns the next invoice number for year without persisting
// anything. Callers that append the row themselves must not interleave with
// AllocateAndAppend.
func (a *Allocator) Allocate(ctx context.Context, year int) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nextLocked(ctx, year)
}

// AllocateAndAppend computes the next invoice number for year, stamps it
// into fields and appends the row, all under the allocator's lock.
func (a *Allocator) AllocateAndAppend(ctx context.Context, year int, fields map[string]string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	number := a.nextLocked(ctx, year)
	fields[ledger.FieldInvoiceNumber] = number
	if err := a.store.Append(ctx, ledger.TabOrders, fields); err != nil {
		return "", fmt.Errorf("invoice: failed to append order row: %w", err)
	}
	return number, nil
}

func (a *Allocator) nextLocked(ctx context.Context, year int) string {
	rows, err := a.store.Rows(ctx, ledger.TabOrders)
	if err != nil {
		// Invoice issuance must never block order completion: degrade to
		// a timestamp-derived suffix that cannot collide with the
		// sequential range.
		fallback := fmt.Sprintf("%s-%d-T%d", a.prefix, year, time.Now().Unix())
		log.Warn().Err(err).Str("invoice_number", fallback).
			Msg("invoice: ledger scan failed, falling back to timestamp-derived number")
		return fallback
	}

	re := regexp.MustCompile(fmt.Sprintf(`^%s-%d-(\d+)$`, regexp.QuoteMeta(a.prefix), year))
	max := 0
	for _, row := range rows {
		m := re.FindStringSubmatch(row.Get(ledger.FieldInvoiceNumber))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%d-%03d", a.prefix, year, max+1)
}
