package invoice

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/vasiliy-maslov/shop-backend/internal/order"
)

type Seller struct {
	Name    string
	Address string
	TaxID   string
}

// Renderer produces the invoice PDF for a paid order. Rendering is a pure
// function of the record snapshot and the configured seller block.
type Renderer struct {
	seller   Seller
	currency string
}

func NewRenderer(seller Seller, currency string) *Renderer {
	return &Renderer{seller: seller, currency: currency}
}

func (r *Renderer) Render(rec *order.Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Invoice "+rec.InvoiceNumber)
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(95, 5, r.seller.Name)
	pdf.Cell(95, 5, "Bill to:")
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(95, 5, r.seller.Address)
	pdf.Cell(95, 5, rec.Customer.Name)
	pdf.Ln(5)
	pdf.Cell(95, 5, "Tax ID: "+r.seller.TaxID)
	pdf.Cell(95, 5, rec.Customer.Address)
	pdf.Ln(5)
	pdf.Cell(95, 5, "")
	pdf.Cell(95, 5, fmt.Sprintf("%s %s, %s", rec.Customer.Zip, rec.Customer.City, rec.Customer.Country))
	pdf.Ln(5)
	pdf.Cell(95, 5, "")
	pdf.Cell(95, 5, rec.Customer.Email)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 7, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range rec.Items {
		name := item.Name
		if item.Size != "" {
			name += " (" + item.Size + ")"
		}
		pdf.CellFormat(90, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, strconv.Itoa(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, r.amount(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, r.amount(item.Total()), "1", 1, "R", false, 0, "")
	}

	pdf.CellFormat(150, 7, "Shipping", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, r.amount(rec.ShippingCost), "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(150, 8, "Grand Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, r.amount(rec.GrandTotal), "1", 1, "R", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, "Issued on "+rec.CreatedAt.Format("2006-01-02"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoice: failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) amount(v int64) string {
	return order.FormatMinor(v) + " " + r.currency
}
