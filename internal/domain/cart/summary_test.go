package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	items := []LineItem{
		{ProductID: "a", Quantity: 2, UnitPrice: 1250},
		{ProductID: "b", Quantity: 1, UnitPrice: 999},
	}

	t.Run("no vat", func(t *testing.T) {
		got := Summarize(items, SummaryPolicy{ShippingFee: 500})
		assert.Equal(t, Summary{ItemCount: 3, Subtotal: 3499, ShippingFee: 500, Total: 3999}, got)
	})

	t.Run("vat is rounded", func(t *testing.T) {
		got := Summarize(items, SummaryPolicy{VATRate: 0.075})
		// 3499 * 0.075 = 262.425
		assert.Equal(t, 262, got.VAT)
		assert.Equal(t, 3761, got.Total)
	})

	t.Run("empty cart pays no shipping", func(t *testing.T) {
		got := Summarize(nil, SummaryPolicy{ShippingFee: 500, VATRate: 0.1})
		assert.Equal(t, Summary{}, got)
	})
}
