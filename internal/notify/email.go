package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// OrderEmail is the data fed into the order confirmation template. Amount
// strings arrive pre-formatted; the template does no arithmetic.
type OrderEmail struct {
	CustomerName  string
	InvoiceNumber string
	GrandTotal    string
	Lines         []OrderEmailLine
	DownloadLinks []string
}

type OrderEmailLine struct {
	Name     string
	Quantity int
	Total    string
}

var orderEmailTmpl = template.Must(template.New("order_email").Parse(`<html>
<body>
<p>Dear {{.CustomerName}},</p>
<p>Thank you for your order. Your invoice <strong>{{.InvoiceNumber}}</strong> is attached.</p>
<table border="0" cellpadding="4">
{{range .Lines}}<tr><td>{{.Quantity}}x {{.Name}}</td><td align="right">{{.Total}}</td></tr>
{{end}}<tr><td><strong>Total</strong></td><td align="right"><strong>{{.GrandTotal}}</strong></td></tr>
</table>
{{if .DownloadLinks}}<p>Your downloads (links are valid for 7 days and can be used once):</p>
<ul>
{{range .DownloadLinks}}<li><a href="{{.}}">{{.}}</a></li>
{{end}}</ul>
{{end}}<p>Best regards</p>
</body>
</html>`))

// RenderOrderEmail produces the HTML body of the order confirmation.
func RenderOrderEmail(data *OrderEmail) (string, error) {
	var buf bytes.Buffer
	if err := orderEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: failed to render order email: %w", err)
	}
	return buf.String(), nil
}
