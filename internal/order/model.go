package order

import (
	"time"
)

type Status string

const (
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPaid            Status = "PAID"
)

func (s Status) String() string {
	return string(s)
}

type ShippingMethod string

const (
	ShippingDigital ShippingMethod = "digital"
	ShippingHome    ShippingMethod = "home"
)

// CartItem is the raw client cart line; prices are never taken from it.
type CartItem struct {
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
}

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// LineItem is a cart line resolved against the catalog: an immutable
// snapshot of name and unit price at purchase time. UnitPrice is in minor
// currency units.
type LineItem struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Digital   bool   `json:"digital"`
}

func (li LineItem) Total() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// Record is one checkout session's full order state, the durable row in the
// Orders tab. All amounts are minor currency units.
type Record struct {
	SessionID      string
	Customer       Customer
	Items          []LineItem
	ShippingMethod ShippingMethod
	ShippingCost   int64
	ProductTotal   int64
	GrandTotal     int64
	InvoiceNumber  string
	Status         Status
	CreatedAt      time.Time
}
