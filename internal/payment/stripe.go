package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"
)

const metadataProductID = "product_id"

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

// StripeGateway adapts the Stripe checkout API to the Gateway interface.
type StripeGateway struct {
	cfg StripeConfig
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{cfg: cfg}
}

func (g *StripeGateway) CreateSession(ctx context.Context, items []LineItem, customerEmail string, metadata map[string]string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(g.cfg.SuccessURL),
		CancelURL:     stripe.String(g.cfg.CancelURL),
		CustomerEmail: stripe.String(customerEmail),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	for _, item := range items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.cfg.Currency),
				UnitAmount: stripe.Int64(item.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
					Metadata: map[string]string{
						metadataProductID: strconv.Itoa(item.ProductID),
					},
				},
			},
		})
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("payment: failed to create checkout session: %w", err)
	}
	return &Session{ID: s.ID, RedirectURL: s.URL}, nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, g.cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	out := &Event{Type: string(ev.Type)}
	if out.Type == EventCheckoutCompleted {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("payment: failed to decode checkout session event: %w", err)
		}
		out.SessionID = s.ID
	}
	return out, nil
}

func (g *StripeGateway) ListLineItems(ctx context.Context, sessionID string) ([]PurchasedLine, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.AddExpand("data.price.product")

	lines := make([]PurchasedLine, 0)
	iter := session.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		line := PurchasedLine{
			Description: li.Description,
			AmountTotal: li.AmountTotal,
			Quantity:    int(li.Quantity),
		}
		if li.Price != nil && li.Price.Product != nil {
			if raw, ok := li.Price.Product.Metadata[metadataProductID]; ok {
				if id, err := strconv.Atoi(raw); err == nil {
					line.ProductID = id
				}
			}
		}
		lines = append(lines, line)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("payment: failed to list line items of session %s: %w", sessionID, err)
	}
	return lines, nil
}
