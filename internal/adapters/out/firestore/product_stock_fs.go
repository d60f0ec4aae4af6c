// internal/adapters/out/firestore/product_stock_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	stockdom "marketplace/internal/domain/stock"
)

// DefaultProductsCollection is used when no collection name is configured.
const DefaultProductsCollection = "products"

// ProductStockFS reads available quantities from product documents.
//
// Field: stockQuantity (stock_quantity is accepted for documents imported from SQL).
// A missing document is reported by omission (= zero stock).
type ProductStockFS struct {
	Client     *firestore.Client
	Collection string
}

func NewProductStockFS(client *firestore.Client, collection string) *ProductStockFS {
	c := strings.TrimSpace(collection)
	if c == "" {
		c = DefaultProductsCollection
	}
	return &ProductStockFS{Client: client, Collection: c}
}

func (r *ProductStockFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// GetMany fetches all ids in one GetAll round trip.
func (r *ProductStockFS) GetMany(ctx context.Context, productIDs []string) (map[string]int, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_stock_fs: firestore client is nil")
	}

	ids := stockdom.NormalizeIDs(productIDs)
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.col().Doc(id))
	}

	snaps, err := r.Client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		out[snap.Ref.ID] = stockFromData(snap.Data())
	}
	return out, nil
}

// GetOne returns 0 for a missing product.
func (r *ProductStockFS) GetOne(ctx context.Context, productID string) (int, error) {
	if r == nil || r.Client == nil {
		return 0, errors.New("product_stock_fs: firestore client is nil")
	}

	id := strings.TrimSpace(productID)
	if id == "" {
		return 0, stockdom.ErrInvalidProductID
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, err
	}
	return stockFromData(snap.Data()), nil
}

func stockFromData(raw map[string]any) int {
	if raw == nil {
		return 0
	}
	v, ok := raw["stockQuantity"]
	if !ok {
		v = raw["stock_quantity"]
	}
	n := asInt(v)
	if n < 0 {
		return 0
	}
	return n
}
