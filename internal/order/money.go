package order

import "fmt"

// FormatMinor renders a minor-unit amount as a display string ("1500" ->
// "15.00"). Display strings go to the ledger, PDF and email only and are
// never parsed back; arithmetic stays on the int64 amounts.
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
