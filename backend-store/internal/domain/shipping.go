package domain

import "github.com/shopspring/decimal"

// ShippingPolicy prices delivery for an order
type ShippingPolicy struct {
	FlatRate decimal.Decimal
	// FreeOver waives shipping once the item subtotal reaches it; zero disables the waiver
	FreeOver decimal.Decimal
}

// Cost returns the shipping charged for an item subtotal
func (p ShippingPolicy) Cost(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeOver.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeOver) {
		return decimal.Zero
	}
	if p.FlatRate.IsNegative() {
		return decimal.Zero
	}
	return p.FlatRate
}
