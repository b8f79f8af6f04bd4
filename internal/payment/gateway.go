package payment

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is the provider event type that marks a session as
// paid.
const EventCheckoutCompleted = "checkout.session.completed"

var ErrBadSignature = errors.New("payment: invalid webhook signature")

// LineItem is one priced line sent to the provider. Amount is the per-unit
// price in minor currency units.
type LineItem struct {
	ProductID int
	Name      string
	Amount    int64
	Quantity  int
}

// Session is the provider's checkout session: the ID keys the order row and
// the redirect URL is handed back to the client.
type Session struct {
	ID          string
	RedirectURL string
}

// Event is a verified webhook event.
type Event struct {
	Type      string
	SessionID string
}

// PurchasedLine is one settled line item as reported by the provider after
// payment.
type PurchasedLine struct {
	Description string
	AmountTotal int64
	Quantity    int
	ProductID   int
}

// Gateway wraps the payment provider's narrow API surface.
type Gateway interface {
	CreateSession(ctx context.Context, items []LineItem, customerEmail string, metadata map[string]string) (*Session, error)
	// VerifyWebhook authenticates a raw webhook payload. It returns
	// ErrBadSignature (possibly wrapped) when the signature does not
	// match; nothing may be processed in that case.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
	// ListLineItems reports the settled lines of a session. Used as a
	// fallback when an order row predates the canonical items column.
	ListLineItems(ctx context.Context, sessionID string) ([]PurchasedLine, error)
}
