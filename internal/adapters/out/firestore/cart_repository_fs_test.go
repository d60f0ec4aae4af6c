package firestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "marketplace/internal/domain/cart"
)

func TestCartDocFromData_ArrayShape(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	doc := cartDocFromData(map[string]any{
		"createdAt": now,
		"updatedAt": now,
		"expiresAt": now.Add(cartdom.DefaultCartTTL),
		"items": []any{
			map[string]any{"productId": "b", "qty": int64(2), "unitPrice": int64(300)},
			map[string]any{"productId": "a", "qty": int64(1), "unitPrice": 150.0, "selectedOptions": map[string]any{"size": "L"}},
			map[string]any{"productId": "c", "qty": int64(0)},
			"garbage",
		},
	})

	assert.Equal(t, now, doc.CreatedAt)
	assert.Equal(t, []cartItemDoc{
		{ProductID: "b", Qty: 2, UnitPrice: 300},
		{ProductID: "a", Qty: 1, UnitPrice: 150, SelectedOptions: map[string]string{"size": "L"}},
	}, doc.Items)
}

func TestCartDocFromData_LegacyMapShapes(t *testing.T) {
	doc := cartDocFromData(map[string]any{
		"items": map[string]any{
			"z":  int64(3),
			"m":  map[string]any{"qty": int64(1), "unitPrice": int64(90)},
			" ":  int64(4),
			"a":  int64(-1),
			"b2": "2",
		},
	})

	assert.Equal(t, []cartItemDoc{
		{ProductID: "b2", Qty: 2},
		{ProductID: "m", Qty: 1, UnitPrice: 90},
		{ProductID: "z", Qty: 3},
	}, doc.Items)
}

func TestCartDocFromData_Empty(t *testing.T) {
	assert.Empty(t, cartDocFromData(nil).Items)
	assert.Empty(t, cartDocFromData(map[string]any{"items": nil}).Items)
}

func TestCartDoc_DomainRoundTrip(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	c, err := cartdom.NewCart("av1", []cartdom.LineItem{
		{ProductID: "a", Quantity: 2, UnitPrice: 100},
		{ProductID: "b", Quantity: 1, UnitPrice: 50, SelectedOptions: map[string]string{"color": "red"}},
	}, now)
	require.NoError(t, err)

	got := cartDocFromDomain(c).toDomain()
	got.ID = c.ID
	assert.Equal(t, c, got)
}

func TestStockFromData(t *testing.T) {
	assert.Equal(t, 5, stockFromData(map[string]any{"stockQuantity": int64(5)}))
	assert.Equal(t, 2, stockFromData(map[string]any{"stock_quantity": int64(2)}))
	assert.Equal(t, 0, stockFromData(map[string]any{"stockQuantity": int64(-3)}))
	assert.Equal(t, 0, stockFromData(map[string]any{"name": "shirt"}))
	assert.Equal(t, 0, stockFromData(nil))
}
