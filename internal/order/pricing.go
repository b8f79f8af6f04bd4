package order

// Pricer computes shipping costs from the resolved cart and the declared
// shipping method. All amounts are minor currency units.
type Pricer struct {
	homeShippingCost int64
}

func NewPricer(homeShippingCost int64) *Pricer {
	return &Pricer{homeShippingCost: homeShippingCost}
}

// ShippingCost is zero for digital-only carts regardless of the requested
// method, and zero for the digital method; home delivery costs the
// configured flat amount.
func (p *Pricer) ShippingCost(items []LineItem, method ShippingMethod) int64 {
	if method == ShippingDigital || allDigital(items) {
		return 0
	}
	return p.homeShippingCost
}

// Totals sums the resolved line items and adds shipping.
func Totals(items []LineItem, shippingCost int64) (productTotal, grandTotal int64) {
	for _, item := range items {
		productTotal += item.Total()
	}
	return productTotal, productTotal + shippingCost
}

func allDigital(items []LineItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Digital {
			return false
		}
	}
	return true
}
