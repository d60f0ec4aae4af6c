// internal/application/reconcile/ports.go
package reconcile

import (
	"context"

	cartdom "marketplace/internal/domain/cart"
	stockdom "marketplace/internal/domain/stock"
)

// CartStore is the single owner of one cart's state.
// The engine reads items through it on every call and mutates only via SetQuantity/RemoveItem.
type CartStore interface {
	GetItems(ctx context.Context) ([]cartdom.LineItem, error)
	SetQuantity(ctx context.Context, productID string, qty int) error
	RemoveItem(ctx context.Context, productID string) error
}

// StockLookup is the live stock collaborator.
type StockLookup = stockdom.Lookup
