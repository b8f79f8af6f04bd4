package ledger

// Internal field keys. Domain code reads and writes rows through these keys
// only; deployment column labels live in the Schema and never leak into
// domain logic.
const (
	FieldSessionID      = "session_id"
	FieldCustomerName   = "name"
	FieldCustomerEmail  = "email"
	FieldCustomerPhone  = "phone"
	FieldAddress        = "address"
	FieldCity           = "city"
	FieldZip            = "zip"
	FieldCountry        = "country"
	FieldItems          = "items"
	FieldItemsJSON      = "items_json"
	FieldShippingMethod = "shipping_method"
	FieldShippingCost   = "shipping_cost"
	FieldProductTotal   = "product_total"
	FieldGrandTotal     = "grand_total"
	FieldInvoiceNumber  = "invoice_number"
	FieldStatus         = "status"
	FieldCreatedAt      = "created_at"

	FieldToken        = "token"
	FieldProductID    = "product_id"
	FieldTokenCreated = "created"
	FieldTokenExpiry  = "expiry"
	FieldTokenUsed    = "used"
	FieldIPAddress    = "ip_address"
	FieldDownloadDate = "download_date"
)

// Column binds a stable internal field key to the label a ledger deployment
// shows for it.
type Column struct {
	Key   string
	Label string
}

// Schema is the ordered column layout of one tab.
type Schema []Column

// Index returns the position of key in the schema, or -1.
func (s Schema) Index(key string) int {
	for i, c := range s {
		if c.Key == key {
			return i
		}
	}
	return -1
}

func (s Schema) Labels() []string {
	labels := make([]string, len(s))
	for i, c := range s {
		labels[i] = c.Label
	}
	return labels
}

// OrdersSchema is the default column layout of the Orders tab.
var OrdersSchema = Schema{
	{Key: FieldSessionID, Label: "Session ID"},
	{Key: FieldCustomerName, Label: "Name"},
	{Key: FieldCustomerEmail, Label: "Email"},
	{Key: FieldCustomerPhone, Label: "Phone"},
	{Key: FieldAddress, Label: "Address"},
	{Key: FieldCity, Label: "City"},
	{Key: FieldZip, Label: "Zip"},
	{Key: FieldCountry, Label: "Country"},
	{Key: FieldItems, Label: "Items"},
	{Key: FieldItemsJSON, Label: "Items (raw)"},
	{Key: FieldShippingMethod, Label: "Shipping Method"},
	{Key: FieldShippingCost, Label: "Shipping Cost"},
	{Key: FieldProductTotal, Label: "Product Total"},
	{Key: FieldGrandTotal, Label: "Grand Total"},
	{Key: FieldInvoiceNumber, Label: "Invoice Number"},
	{Key: FieldStatus, Label: "Status"},
	{Key: FieldCreatedAt, Label: "Created At"},
}

// DownloadLinksSchema is the default column layout of the Download_Links tab.
var DownloadLinksSchema = Schema{
	{Key: FieldToken, Label: "Token"},
	{Key: FieldCustomerEmail, Label: "Email"},
	{Key: FieldProductID, Label: "Product ID"},
	{Key: FieldInvoiceNumber, Label: "Invoice Number"},
	{Key: FieldTokenCreated, Label: "Created"},
	{Key: FieldTokenExpiry, Label: "Expiry"},
	{Key: FieldTokenUsed, Label: "Used"},
	{Key: FieldIPAddress, Label: "IP Address"},
	{Key: FieldDownloadDate, Label: "Download Date"},
}

// Schemas maps each tab to its default layout.
var Schemas = map[string]Schema{
	TabOrders:        OrdersSchema,
	TabDownloadLinks: DownloadLinksSchema,
}
