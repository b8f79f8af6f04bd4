package download_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/shop-backend/internal/download"
	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
)

func TestService_IssueAndValidate(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	svc := download.NewService(store)

	tok, err := svc.Issue(ctx, "anna@example.com", 2, "INV-2026-001")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, tok.Created.Add(download.TokenTTL), tok.Expiry)

	got, err := svc.Validate(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", got.Email)
	assert.Equal(t, 2, got.ProductID)
	assert.Equal(t, "INV-2026-001", got.InvoiceNumber)
	assert.False(t, got.Used)
}

func TestService_ValidateUnknownToken(t *testing.T) {
	svc := download.NewService(ledger.NewMemoryStore())

	_, err := svc.Validate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, download.ErrTokenNotFound)
}

func TestService_ValidateExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := download.NewServiceWithClock(store, clock)

	tok, err := svc.Issue(ctx, "anna@example.com", 2, "INV-2026-001")
	require.NoError(t, err)

	// one second past the 7-day policy, used still false
	now = tok.Expiry.Add(time.Second)
	_, err = svc.Validate(ctx, tok.Token)
	assert.ErrorIs(t, err, download.ErrTokenExpired)
}

func TestService_RedeemIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	svc := download.NewService(store)

	tok, err := svc.Issue(ctx, "anna@example.com", 2, "INV-2026-001")
	require.NoError(t, err)

	validated, err := svc.Validate(ctx, tok.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, validated, "203.0.113.7"))

	_, err = svc.Validate(ctx, tok.Token)
	assert.ErrorIs(t, err, download.ErrTokenUsed)

	row, err := store.Find(ctx, ledger.TabDownloadLinks, ledger.FieldToken, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "true", row.Get(ledger.FieldTokenUsed))
	assert.Equal(t, "203.0.113.7", row.Get(ledger.FieldIPAddress))
	assert.NotEmpty(t, row.Get(ledger.FieldDownloadDate))
}

func TestService_ConcurrentRedeemsAllowOneWinner(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	svc := download.NewService(store)

	tok, err := svc.Issue(ctx, "anna@example.com", 2, "INV-2026-001")
	require.NoError(t, err)

	// every goroutine holds a copy that already passed Validate, which is
	// exactly the check-then-act window the conditional update closes
	validated, err := svc.Validate(ctx, tok.Token)
	require.NoError(t, err)

	const n = 20
	results := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			copied := *validated
			results <- svc.Redeem(ctx, &copied, "203.0.113.7")
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, download.ErrTokenUsed)
		}
	}
	assert.Equal(t, 1, successes)
}
