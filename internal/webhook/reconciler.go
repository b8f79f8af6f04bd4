package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/shop-backend/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/internal/download"
	"github.com/vasiliy-maslov/shop-backend/internal/invoice"
	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
	"github.com/vasiliy-maslov/shop-backend/internal/notify"
	"github.com/vasiliy-maslov/shop-backend/internal/order"
	"github.com/vasiliy-maslov/shop-backend/internal/payment"
)

const defaultFulfillTimeout = 2 * time.Minute

// ReconcilerDeps wires the reconciler's collaborators.
type ReconcilerDeps struct {
	Store    ledger.Store
	Gateway  payment.Gateway
	Tokens   download.Service
	Renderer *invoice.Renderer
	Notifier notify.Notifier
	Catalog  *catalog.Catalog
	BaseURL  string

	// Detach runs fulfillment in its own goroutine after the status flip,
	// so the webhook ack never waits on PDF rendering or the mail server.
	// Tests run synchronously.
	Detach         bool
	FulfillTimeout time.Duration
}

// Reconciler drives the AwaitingPayment -> Paid transition and the
// exactly-once downstream effects. It is safe under at-least-once,
// out-of-order webhook delivery: the conditional status flip is the
// idempotency gate, and only the caller that wins the flip fulfills.
type Reconciler struct {
	deps ReconcilerDeps
}

func NewReconciler(deps ReconcilerDeps) *Reconciler {
	if deps.FulfillTimeout == 0 {
		deps.FulfillTimeout = defaultFulfillTimeout
	}
	return &Reconciler{deps: deps}
}

// HandlePaymentCompleted processes one verified payment-completed event. A
// nil return means the event is acknowledged to the gateway; fulfillment
// failures never surface here once the status flip has been persisted.
func (r *Reconciler) HandlePaymentCompleted(ctx context.Context, sessionID string) error {
	row, err := r.deps.Store.Find(ctx, ledger.TabOrders, ledger.FieldSessionID, sessionID)
	if err != nil {
		if errors.Is(err, ledger.ErrRowNotFound) {
			// Acknowledge anyway: the gateway retrying an unknown
			// session cannot produce a different outcome.
			log.Warn().Str("session_id", sessionID).Msg("webhook: no order row for completed session")
			return nil
		}
		return fmt.Errorf("webhook: failed to look up session %s: %w", sessionID, err)
	}

	if row.Get(ledger.FieldStatus) == order.StatusPaid.String() {
		log.Info().Str("session_id", sessionID).Msg("webhook: session already paid, skipping")
		return nil
	}

	ok, err := r.deps.Store.UpdateIf(ctx, ledger.TabOrders, row.ID, ledger.FieldStatus,
		order.StatusAwaitingPayment.String(), order.StatusPaid.String())
	if err != nil {
		return fmt.Errorf("webhook: failed to mark session %s paid: %w", sessionID, err)
	}
	if !ok {
		// A concurrent delivery won the flip and owns fulfillment.
		log.Info().Str("session_id", sessionID).Msg("webhook: lost status flip to concurrent delivery")
		return nil
	}

	rec, err := order.RecordFromRow(row)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).
			Msg("webhook: order row is not fully parseable, fulfilling from gateway line items")
		rec = &order.Record{
			SessionID:     row.Get(ledger.FieldSessionID),
			InvoiceNumber: row.Get(ledger.FieldInvoiceNumber),
			Customer:      order.Customer{Email: row.Get(ledger.FieldCustomerEmail)},
		}
	}
	rec.Status = order.StatusPaid

	if r.deps.Detach {
		go func() {
			fctx, cancel := context.WithTimeout(context.Background(), r.deps.FulfillTimeout)
			defer cancel()
			r.fulfill(fctx, rec)
		}()
		return nil
	}
	r.fulfill(ctx, rec)
	return nil
}

// fulfill runs the post-payment effects: download tokens for digital lines,
// the invoice PDF and the customer email. Each step degrades independently;
// a failure here leaves the order as "payment recorded, fulfillment
// pending" and is only logged.
func (r *Reconciler) fulfill(ctx context.Context, rec *order.Record) {
	if len(rec.Items) == 0 {
		r.recoverItems(ctx, rec)
	}

	links := r.issueTokens(ctx, rec)

	var attachments []notify.Attachment
	if pdfBytes, err := r.deps.Renderer.Render(rec); err != nil {
		log.Error().Err(err).Str("invoice_number", rec.InvoiceNumber).
			Msg("webhook: failed to render invoice pdf, sending email without attachment")
	} else {
		attachments = append(attachments, notify.Attachment{
			Filename: rec.InvoiceNumber + ".pdf",
			Content:  pdfBytes,
		})
	}

	emailData := &notify.OrderEmail{
		CustomerName:  rec.Customer.Name,
		InvoiceNumber: rec.InvoiceNumber,
		GrandTotal:    order.FormatMinor(rec.GrandTotal),
		DownloadLinks: links,
	}
	for _, item := range rec.Items {
		emailData.Lines = append(emailData.Lines, notify.OrderEmailLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Total:    order.FormatMinor(item.Total()),
		})
	}

	html, err := notify.RenderOrderEmail(emailData)
	if err != nil {
		log.Error().Err(err).Str("invoice_number", rec.InvoiceNumber).Msg("webhook: failed to render order email")
		return
	}

	msg := &notify.Message{
		To:          rec.Customer.Email,
		Subject:     "Your order " + rec.InvoiceNumber,
		HTML:        html,
		Attachments: attachments,
	}
	if err := r.deps.Notifier.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("invoice_number", rec.InvoiceNumber).
			Msg("webhook: failed to send order email, fulfillment pending")
		return
	}

	log.Info().Str("session_id", rec.SessionID).Str("invoice_number", rec.InvoiceNumber).
		Int("download_links", len(links)).Msg("webhook: order fulfilled")
}

// recoverItems rebuilds the line items from the gateway for rows written
// before the canonical items column existed.
func (r *Reconciler) recoverItems(ctx context.Context, rec *order.Record) {
	lines, err := r.deps.Gateway.ListLineItems(ctx, rec.SessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", rec.SessionID).
			Msg("webhook: failed to list gateway line items")
		return
	}
	for _, line := range lines {
		item := order.LineItem{
			ProductID: line.ProductID,
			Name:      line.Description,
			Quantity:  line.Quantity,
		}
		if line.Quantity > 0 {
			item.UnitPrice = line.AmountTotal / int64(line.Quantity)
		}
		if product, ok := r.deps.Catalog.Product(line.ProductID); ok {
			item.Digital = product.Digital
		}
		rec.Items = append(rec.Items, item)
	}
}

// issueTokens creates one download credential per digital line and returns
// the redemption links for the email.
func (r *Reconciler) issueTokens(ctx context.Context, rec *order.Record) []string {
	var links []string
	for _, item := range rec.Items {
		if !item.Digital {
			continue
		}
		tok, err := r.deps.Tokens.Issue(ctx, rec.Customer.Email, item.ProductID, rec.InvoiceNumber)
		if err != nil {
			log.Error().Err(err).Int("product_id", item.ProductID).Str("invoice_number", rec.InvoiceNumber).
				Msg("webhook: failed to issue download token")
			continue
		}
		links = append(links, r.deps.BaseURL+"/download/"+tok.Token)
	}
	return links
}
