package webhook_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/shop-backend/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/internal/download"
	"github.com/vasiliy-maslov/shop-backend/internal/invoice"
	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
	"github.com/vasiliy-maslov/shop-backend/internal/notify"
	"github.com/vasiliy-maslov/shop-backend/internal/order"
	"github.com/vasiliy-maslov/shop-backend/internal/payment"
	"github.com/vasiliy-maslov/shop-backend/internal/webhook"
)

type mockGateway struct {
	createSessionFunc func(ctx context.Context, items []payment.LineItem, email string, metadata map[string]string) (*payment.Session, error)
	verifyWebhookFunc func(payload []byte, signature string) (*payment.Event, error)
	listLineItemsFunc func(ctx context.Context, sessionID string) ([]payment.PurchasedLine, error)
}

func (m *mockGateway) CreateSession(ctx context.Context, items []payment.LineItem, email string, metadata map[string]string) (*payment.Session, error) {
	return m.createSessionFunc(ctx, items, email, metadata)
}

func (m *mockGateway) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	return m.verifyWebhookFunc(payload, signature)
}

func (m *mockGateway) ListLineItems(ctx context.Context, sessionID string) ([]payment.PurchasedLine, error) {
	return m.listLineItemsFunc(ctx, sessionID)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []*notify.Message
	err      error
}

func (n *recordingNotifier) Send(_ context.Context, msg *notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) sent() []*notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.messages
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Product{
		{ID: 2, Name: "Art Pack", UnitPrice: 1000, Digital: true, File: "art-pack.zip"},
		{ID: 3, Name: "Sketchbook PDF", UnitPrice: 1500, Digital: true, File: "sketchbook.pdf"},
		{ID: 7, Name: "Tote Bag", UnitPrice: 2500},
	})
}

type fixture struct {
	store      *ledger.MemoryStore
	notifier   *recordingNotifier
	reconciler *webhook.Reconciler
	tokens     download.Service
}

func newFixture(t *testing.T, gateway payment.Gateway) *fixture {
	t.Helper()

	store := ledger.NewMemoryStore()
	notifier := &recordingNotifier{}
	tokens := download.NewService(store)

	reconciler := webhook.NewReconciler(webhook.ReconcilerDeps{
		Store:    store,
		Gateway:  gateway,
		Tokens:   tokens,
		Renderer: invoice.NewRenderer(invoice.Seller{Name: "Atelier Example"}, "EUR"),
		Notifier: notifier,
		Catalog:  testCatalog(),
		BaseURL:  "http://localhost:8080",
		// synchronous so assertions see fulfillment results
		Detach: false,
	})
	return &fixture{store: store, notifier: notifier, reconciler: reconciler, tokens: tokens}
}

func seedOrder(t *testing.T, store ledger.Store, sessionID string, cart []order.CartItem) {
	t.Helper()

	builder := order.NewBuilder(testCatalog(), order.NewPricer(1500))
	lines, err := builder.Lines(cart)
	require.NoError(t, err)

	rec := builder.Build(lines, order.Customer{Name: "Anna", Email: "anna@example.com"}, order.ShippingDigital, sessionID, "INV-2026-001")
	fields, err := rec.LedgerFields()
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), ledger.TabOrders, fields))
}

func countTokenRows(t *testing.T, store ledger.Store) int {
	t.Helper()
	rows, err := store.Rows(context.Background(), ledger.TabDownloadLinks)
	require.NoError(t, err)
	return len(rows)
}

func TestReconciler_PaymentCompletedFulfillsDigitalOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockGateway{})
	seedOrder(t, f.store, "cs_test_1", []order.CartItem{{ProductID: 2, Quantity: 1}})

	require.NoError(t, f.reconciler.HandlePaymentCompleted(ctx, "cs_test_1"))

	row, err := f.store.Find(ctx, ledger.TabOrders, ledger.FieldSessionID, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "PAID", row.Get(ledger.FieldStatus))

	// exactly one token for product 2
	tokenRows, err := f.store.Rows(ctx, ledger.TabDownloadLinks)
	require.NoError(t, err)
	require.Len(t, tokenRows, 1)
	assert.Equal(t, "2", tokenRows[0].Get(ledger.FieldProductID))

	messages := f.notifier.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, "anna@example.com", messages[0].To)
	require.Len(t, messages[0].Attachments, 1)
	assert.Equal(t, "INV-2026-001.pdf", messages[0].Attachments[0].Filename)
	assert.Contains(t, messages[0].HTML, "/download/"+tokenRows[0].Get(ledger.FieldToken))
}

func TestReconciler_PhysicalOrderIssuesNoTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockGateway{})
	seedOrder(t, f.store, "cs_test_2", []order.CartItem{{ProductID: 7, Quantity: 2}})

	require.NoError(t, f.reconciler.HandlePaymentCompleted(ctx, "cs_test_2"))

	assert.Zero(t, countTokenRows(t, f.store))
	assert.Len(t, f.notifier.sent(), 1)
}

func TestReconciler_BundleGetsOneTokenPerDigitalLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockGateway{})
	seedOrder(t, f.store, "cs_test_3", []order.CartItem{
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 1},
		{ProductID: 7, Quantity: 1},
	})

	require.NoError(t, f.reconciler.HandlePaymentCompleted(ctx, "cs_test_3"))
	assert.Equal(t, 2, countTokenRows(t, f.store))
}

func TestReconciler_DuplicateDeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockGateway{})
	seedOrder(t, f.store, "cs_test_4", []order.CartItem{{ProductID: 2, Quantity: 1}})

	require.NoError(t, f.reconciler.HandlePaymentCompleted(ctx, "cs_test_4"))
	require.NoError(t, f.reconciler.HandlePaymentCompleted(ctx, "cs_test_4"))

	assert.Len(t, f.notifier.sent(), 1, "redelivery must not send a second email")
	assert.Equal(t, 1, countTokenRows(t, f.store), "redelivery must not issue more tokens")
}

func TestReconciler_UnknownSessionIsAcknowledged(t *testing.T) {
	f := newFixture(t, &mockGateway{})

	err := f.reconciler.HandlePaymentCompleted(context.Background(), "cs_unknown")
	assert.NoError(t, err)
	assert.Empty(t, f.notifier.sent())
}

func TestReconciler_NotifierFailureDoesNotFailAck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockGateway{})
	f.notifier.err = assert.AnError
	seedOrder(t, f.store, "cs_test_5", []order.CartItem{{ProductID: 2, Quantity: 1}})

	require.NoError(t, f.reconciler.HandlePaymentCompleted(ctx, "cs_test_5"))

	// payment stays recorded even though fulfillment is pending
	row, err := f.store.Find(ctx, ledger.TabOrders, ledger.FieldSessionID, "cs_test_5")
	require.NoError(t, err)
	assert.Equal(t, "PAID", row.Get(ledger.FieldStatus))
}

func TestReconciler_ConcurrentDeliveriesFulfillOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &mockGateway{})
	seedOrder(t, f.store, "cs_test_6", []order.CartItem{{ProductID: 2, Quantity: 1}})

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.reconciler.HandlePaymentCompleted(ctx, "cs_test_6"))
		}()
	}
	wg.Wait()

	assert.Len(t, f.notifier.sent(), 1)
	assert.Equal(t, 1, countTokenRows(t, f.store))
}
