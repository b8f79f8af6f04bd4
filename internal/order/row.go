package order

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
)

// LedgerFields maps the record to the Orders tab row shape. Amounts are
// stored as canonical minor-unit integers; the items column additionally
// carries a human-readable summary next to the canonical JSON.
func (r *Record) LedgerFields() (map[string]string, error) {
	itemsJSON, err := json.Marshal(r.Items)
	if err != nil {
		return nil, fmt.Errorf("order: failed to encode items: %w", err)
	}

	return map[string]string{
		ledger.FieldSessionID:      r.SessionID,
		ledger.FieldCustomerName:   orPlaceholder(r.Customer.Name),
		ledger.FieldCustomerEmail:  r.Customer.Email,
		ledger.FieldCustomerPhone:  orPlaceholder(r.Customer.Phone),
		ledger.FieldAddress:        orPlaceholder(r.Customer.Address),
		ledger.FieldCity:           orPlaceholder(r.Customer.City),
		ledger.FieldZip:            orPlaceholder(r.Customer.Zip),
		ledger.FieldCountry:        orPlaceholder(r.Customer.Country),
		ledger.FieldItems:          itemsSummary(r.Items),
		ledger.FieldItemsJSON:      string(itemsJSON),
		ledger.FieldShippingMethod: string(r.ShippingMethod),
		ledger.FieldShippingCost:   strconv.FormatInt(r.ShippingCost, 10),
		ledger.FieldProductTotal:   strconv.FormatInt(r.ProductTotal, 10),
		ledger.FieldGrandTotal:     strconv.FormatInt(r.GrandTotal, 10),
		ledger.FieldInvoiceNumber:  r.InvoiceNumber,
		ledger.FieldStatus:         string(r.Status),
		ledger.FieldCreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}, nil
}

// RecordFromRow rebuilds a record from an Orders tab row. Amounts come from
// the canonical integer columns, never from display strings.
func RecordFromRow(row *ledger.Row) (*Record, error) {
	rec := &Record{
		SessionID: row.Get(ledger.FieldSessionID),
		Customer: Customer{
			Name:    fromPlaceholder(row.Get(ledger.FieldCustomerName)),
			Email:   row.Get(ledger.FieldCustomerEmail),
			Phone:   fromPlaceholder(row.Get(ledger.FieldCustomerPhone)),
			Address: fromPlaceholder(row.Get(ledger.FieldAddress)),
			City:    fromPlaceholder(row.Get(ledger.FieldCity)),
			Zip:     fromPlaceholder(row.Get(ledger.FieldZip)),
			Country: fromPlaceholder(row.Get(ledger.FieldCountry)),
		},
		ShippingMethod: ShippingMethod(row.Get(ledger.FieldShippingMethod)),
		InvoiceNumber:  row.Get(ledger.FieldInvoiceNumber),
		Status:         Status(row.Get(ledger.FieldStatus)),
	}

	if raw := row.Get(ledger.FieldItemsJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Items); err != nil {
			return nil, fmt.Errorf("order: failed to decode items of session %s: %w", rec.SessionID, err)
		}
	}

	var err error
	if rec.ShippingCost, err = parseAmount(row.Get(ledger.FieldShippingCost)); err != nil {
		return nil, fmt.Errorf("order: bad shipping cost in session %s: %w", rec.SessionID, err)
	}
	if rec.ProductTotal, err = parseAmount(row.Get(ledger.FieldProductTotal)); err != nil {
		return nil, fmt.Errorf("order: bad product total in session %s: %w", rec.SessionID, err)
	}
	if rec.GrandTotal, err = parseAmount(row.Get(ledger.FieldGrandTotal)); err != nil {
		return nil, fmt.Errorf("order: bad grand total in session %s: %w", rec.SessionID, err)
	}

	if raw := row.Get(ledger.FieldCreatedAt); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			rec.CreatedAt = t
		}
	}
	return rec, nil
}

func itemsSummary(items []LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		part := fmt.Sprintf("%dx %s", item.Quantity, item.Name)
		if item.Size != "" {
			part += " (" + item.Size + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

func parseAmount(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func orPlaceholder(v string) string {
	if v == "" {
		return Placeholder
	}
	return v
}

func fromPlaceholder(v string) string {
	if v == Placeholder {
		return ""
	}
	return v
}
