// internal/domain/stock/repository_port.go
package stock

import "context"

// Lookup is the read port for live product stock.
//
// Implementations (adapters/out):
// - db.ProductStockPG      : products.stock_quantity (PostgreSQL)
// - firestore.ProductStockFS : products/{id}.stockQuantity (Firestore)
type Lookup interface {
	// GetMany returns available quantities for productIDs in a single round trip.
	// At most one entry per requested id; an omitted id means zero stock.
	GetMany(ctx context.Context, productIDs []string) (map[string]int, error)

	// GetOne returns the available quantity of one product (interactive path).
	// An unknown product is zero stock, not an error.
	GetOne(ctx context.Context, productID string) (int, error)
}
