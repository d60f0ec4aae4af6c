// internal/domain/cart/summary.go
package cart

import "math"

// SummaryPolicy holds the pricing knobs applied on top of line totals.
type SummaryPolicy struct {
	// ShippingFee is a flat fee (minor units), charged only when the cart is non-empty.
	ShippingFee int
	// VATRate is a fraction (0.1 = 10%).
	VATRate float64
}

// Summary is the cart footer: sub-total, VAT, shipping and grand total.
type Summary struct {
	ItemCount   int `json:"itemCount"`
	Subtotal    int `json:"subtotal"`
	VAT         int `json:"vat"`
	ShippingFee int `json:"shippingFee"`
	Total       int `json:"total"`
}

// Summarize computes the totals for items.
// total = subtotal + round(subtotal * vatRate) + shippingFee
func Summarize(items []LineItem, p SummaryPolicy) Summary {
	var s Summary
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		s.ItemCount += it.Quantity
		s.Subtotal += it.LineTotal()
	}
	// an empty cart owes nothing; the storefront screen added shipping to an empty subtotal
	if s.ItemCount == 0 {
		return s
	}

	if p.VATRate > 0 {
		s.VAT = int(math.Round(float64(s.Subtotal) * p.VATRate))
	}
	if p.ShippingFee > 0 {
		s.ShippingFee = p.ShippingFee
	}
	s.Total = s.Subtotal + s.VAT + s.ShippingFee
	return s
}
