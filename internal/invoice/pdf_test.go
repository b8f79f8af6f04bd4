package invoice_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/shop-backend/internal/invoice"
	"github.com/vasiliy-maslov/shop-backend/internal/order"
)

func TestRenderer_Render(t *testing.T) {
	r := invoice.NewRenderer(invoice.Seller{
		Name:    "Atelier Example",
		Address: "1 Example Street",
		TaxID:   "12345678-1-42",
	}, "EUR")

	rec := &order.Record{
		SessionID: "cs_test_123",
		Customer: order.Customer{
			Name: "Anna", Email: "anna@example.com",
			Address: "2 Customer Road", City: "Budapest", Zip: "1111", Country: "HU",
		},
		Items: []order.LineItem{
			{ProductID: 7, Name: "Tote Bag", UnitPrice: 2500, Quantity: 2},
			{ProductID: 2, Name: "Art Pack", UnitPrice: 1000, Quantity: 1, Digital: true},
		},
		ShippingMethod: order.ShippingHome,
		ShippingCost:   1500,
		ProductTotal:   6000,
		GrandTotal:     7500,
		InvoiceNumber:  "INV-2026-003",
		Status:         order.StatusPaid,
		CreatedAt:      time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}

	pdfBytes, err := r.Render(rec)
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}
