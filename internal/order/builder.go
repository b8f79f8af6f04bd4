package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/vasiliy-maslov/shop-backend/internal/catalog"
)

var (
	ErrEmptyCart       = errors.New("order: cart is empty")
	ErrUnknownProduct  = errors.New("order: unknown product")
	ErrInvalidQuantity = errors.New("order: item quantity must be greater than zero")
	ErrMissingEmail    = errors.New("order: customer email is required")
)

// Placeholder fills optional ledger cells so no column is ever left
// semantically undefined.
const Placeholder = "-"

// Builder resolves raw carts against the catalog and assembles order
// records. It holds no mutable state.
type Builder struct {
	catalog *catalog.Catalog
	pricer  *Pricer
}

func NewBuilder(c *catalog.Catalog, p *Pricer) *Builder {
	return &Builder{catalog: c, pricer: p}
}

// Lines validates the cart and resolves every item to a catalog snapshot.
// Prices and digital flags come from the catalog, never from the client.
func (b *Builder) Lines(cart []CartItem) ([]LineItem, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]LineItem, 0, len(cart))
	for _, item := range cart {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ProductID)
		}
		product, ok := b.catalog.Product(item.ProductID)
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownProduct, item.ProductID)
		}
		lines = append(lines, LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Digital:   product.Digital,
		})
	}
	return lines, nil
}

// Build assembles the order record from resolved lines. Totals are
// recomputed here; nothing monetary is trusted from the caller.
func (b *Builder) Build(lines []LineItem, cust Customer, method ShippingMethod, sessionID, invoiceNumber string) *Record {
	shippingCost := b.pricer.ShippingCost(lines, method)
	productTotal, grandTotal := Totals(lines, shippingCost)

	return &Record{
		SessionID:      sessionID,
		Customer:       cust,
		Items:          lines,
		ShippingMethod: method,
		ShippingCost:   shippingCost,
		ProductTotal:   productTotal,
		GrandTotal:     grandTotal,
		InvoiceNumber:  invoiceNumber,
		Status:         StatusAwaitingPayment,
		CreatedAt:      time.Now().UTC(),
	}
}

// ValidateCustomer rejects input the order flow cannot proceed without.
func ValidateCustomer(cust Customer) error {
	if cust.Email == "" {
		return ErrMissingEmail
	}
	return nil
}
