// internal/adapters/out/db/product_stock_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	stockdom "marketplace/internal/domain/stock"
)

// ProductStockPG implements stock.Lookup against the products table.
//
//	products(id text primary key, stock_quantity integer not null)
type ProductStockPG struct {
	DB *sql.DB
}

func NewProductStockPG(db *sql.DB) *ProductStockPG {
	return &ProductStockPG{DB: db}
}

// GetMany selects every requested id in one statement.
// Ids without a row are omitted from the result.
func (r *ProductStockPG) GetMany(ctx context.Context, productIDs []string) (map[string]int, error) {
	if r == nil || r.DB == nil {
		return nil, errors.New("product_stock_pg: db is nil")
	}

	ids := stockdom.NormalizeIDs(productIDs)
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const q = `
SELECT id, stock_quantity
FROM products
WHERE id = ANY($1)
`
	rows, err := r.DB.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			qty sql.NullInt64
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		out[strings.TrimSpace(id)] = nullQty(qty)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOne returns 0 when the product row does not exist.
func (r *ProductStockPG) GetOne(ctx context.Context, productID string) (int, error) {
	if r == nil || r.DB == nil {
		return 0, errors.New("product_stock_pg: db is nil")
	}

	id := strings.TrimSpace(productID)
	if id == "" {
		return 0, stockdom.ErrInvalidProductID
	}

	const q = `SELECT stock_quantity FROM products WHERE id = $1`
	var qty sql.NullInt64
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return nullQty(qty), nil
}

func nullQty(v sql.NullInt64) int {
	if !v.Valid || v.Int64 < 0 {
		return 0
	}
	return int(v.Int64)
}
