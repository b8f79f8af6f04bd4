package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/shop-backend/internal/invoice"
	"github.com/vasiliy-maslov/shop-backend/internal/order"
	"github.com/vasiliy-maslov/shop-backend/internal/payment"
)

// ErrGateway marks a payment provider failure so the HTTP layer can report
// it as an upstream problem rather than a server bug.
var ErrGateway = errors.New("checkout: payment gateway failure")

// Input is the session-creation request body.
type Input struct {
	Cart           []order.CartItem     `json:"cart"`
	Customer       order.Customer       `json:"customer"`
	ShippingMethod order.ShippingMethod `json:"shipping_method"`
}

type Service interface {
	// CreateCheckout prices the cart, opens a provider session, records
	// the order row and returns the provider redirect URL.
	CreateCheckout(ctx context.Context, in *Input) (string, error)
}

type service struct {
	builder   *order.Builder
	pricer    *order.Pricer
	allocator *invoice.Allocator
	gateway   payment.Gateway
}

func NewService(builder *order.Builder, pricer *order.Pricer, allocator *invoice.Allocator, gateway payment.Gateway) Service {
	return &service{builder: builder, pricer: pricer, allocator: allocator, gateway: gateway}
}

func (s *service) CreateCheckout(ctx context.Context, in *Input) (string, error) {
	if err := order.ValidateCustomer(in.Customer); err != nil {
		return "", err
	}
	lines, err := s.builder.Lines(in.Cart)
	if err != nil {
		return "", err
	}

	payItems := make([]payment.LineItem, 0, len(lines)+1)
	for _, line := range lines {
		payItems = append(payItems, payment.LineItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Amount:    line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	// The session must charge exactly what the ledger records: shipping
	// goes to the provider as its own priced line.
	if shippingCost := s.pricer.ShippingCost(lines, in.ShippingMethod); shippingCost > 0 {
		payItems = append(payItems, payment.LineItem{
			Name:     "Shipping",
			Amount:   shippingCost,
			Quantity: 1,
		})
	}

	sess, err := s.gateway.CreateSession(ctx, payItems, in.Customer.Email, map[string]string{
		"shipping_method": string(in.ShippingMethod),
	})
	if err != nil {
		log.Error().Err(err).Msg("checkout: failed to create payment session")
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	rec := s.builder.Build(lines, in.Customer, in.ShippingMethod, sess.ID, "")
	fields, err := rec.LedgerFields()
	if err != nil {
		return "", fmt.Errorf("checkout: failed to build order row: %w", err)
	}

	invoiceNumber, err := s.allocator.AllocateAndAppend(ctx, time.Now().UTC().Year(), fields)
	if err != nil {
		return "", fmt.Errorf("checkout: failed to record order: %w", err)
	}
	rec.InvoiceNumber = invoiceNumber

	log.Info().Str("session_id", sess.ID).Str("invoice_number", invoiceNumber).
		Int64("grand_total", rec.GrandTotal).Msg("checkout: order recorded")
	return sess.RedirectURL, nil
}
