// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	cartdom "marketplace/internal/domain/cart"
)

// DefaultCartsCollection is used when no collection name is configured.
const DefaultCartsCollection = "carts"

// CartRepositoryFS implements cart.Repository using Firestore.
//
// Collection design:
// - collection: carts (configurable)
// - docId: avatarId (docId is the source of truth)
// - fields: items(array), createdAt, updatedAt, expiresAt
//
// TTL:
// - Configure Firestore TTL on "expiresAt".
type CartRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewCartRepositoryFS(client *firestore.Client, collection string) *CartRepositoryFS {
	c := strings.TrimSpace(collection)
	if c == "" {
		c = DefaultCartsCollection
	}
	return &CartRepositoryFS{Client: client, Collection: c}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// GetByAvatarID returns (nil, nil) if not found (nil policy).
func (r *CartRepositoryFS) GetByAvatarID(ctx context.Context, avatarID string) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return nil, errors.New("cart_repository_fs: avatarID is empty")
	}

	snap, err := r.col().Doc(aid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}

	// Parse snap.Data() by hand: older documents stored items as a map keyed by
	// productId, which DataTo cannot decode into a slice.
	doc := cartDocFromData(snap.Data())

	d := doc.toDomain()
	// docId wins even when the doc carries no id field
	d.ID = aid
	return d, nil
}

// Upsert saves cart by docId=cart.ID (= avatarId).
func (r *CartRepositoryFS) Upsert(ctx context.Context, c *cartdom.Cart) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}
	if c == nil {
		return errors.New("cart_repository_fs: cart is nil")
	}

	aid := strings.TrimSpace(c.ID)
	if aid == "" {
		return errors.New("cart_repository_fs: Upsert requires cart.ID (= avatarId) as docId")
	}

	// Overwrite full doc (simple & predictable).
	_, err := r.col().Doc(aid).Set(ctx, cartDocFromDomain(c))
	return err
}

func (r *CartRepositoryFS) DeleteByAvatarID(ctx context.Context, avatarID string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return errors.New("cart_repository_fs: avatarID is empty")
	}

	_, err := r.col().Doc(aid).Delete(ctx)
	return err
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type cartDoc struct {
	Items []cartItemDoc `firestore:"items"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

type cartItemDoc struct {
	ProductID       string            `firestore:"productId"`
	Qty             int               `firestore:"qty"`
	UnitPrice       int               `firestore:"unitPrice"`
	SelectedOptions map[string]string `firestore:"selectedOptions,omitempty"`
}

// cartDocFromData parses Firestore document data with backward compatibility.
//
// Supported item shapes:
//  1. items: [{productId, qty, unitPrice, selectedOptions}]
//  2. items: map[productId] = {qty, unitPrice, ...} (legacy, sorted by key)
//  3. items: map[productId] = qty (legacy)
func cartDocFromData(raw map[string]any) cartDoc {
	out := cartDoc{Items: []cartItemDoc{}}
	if raw == nil {
		return out
	}

	if tt, ok := asTime(raw["createdAt"]); ok {
		out.CreatedAt = tt
	}
	if tt, ok := asTime(raw["updatedAt"]); ok {
		out.UpdatedAt = tt
	}
	if tt, ok := asTime(raw["expiresAt"]); ok {
		out.ExpiresAt = tt
	}

	switch items := raw["items"].(type) {
	case []any:
		for _, v := range items {
			mv, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if it, ok := itemDocFromMap("", mv); ok {
				out.Items = append(out.Items, it)
			}
		}

	case map[string]any:
		keys := make([]string, 0, len(items))
		for k := range items {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			key := strings.TrimSpace(k)
			if key == "" {
				continue
			}
			if mv, ok := items[k].(map[string]any); ok {
				if it, ok := itemDocFromMap(key, mv); ok {
					out.Items = append(out.Items, it)
				}
				continue
			}
			// qty only
			if qty := asInt(items[k]); qty > 0 {
				out.Items = append(out.Items, cartItemDoc{ProductID: key, Qty: qty})
			}
		}
	}

	return out
}

func itemDocFromMap(fallbackID string, mv map[string]any) (cartItemDoc, bool) {
	pid := strings.TrimSpace(asString(mv["productId"]))
	if pid == "" {
		pid = fallbackID
	}
	qty := asInt(mv["qty"])
	if pid == "" || qty <= 0 {
		return cartItemDoc{}, false
	}

	it := cartItemDoc{
		ProductID: pid,
		Qty:       qty,
		UnitPrice: asInt(mv["unitPrice"]),
	}
	if opts, ok := mv["selectedOptions"].(map[string]any); ok && len(opts) > 0 {
		it.SelectedOptions = make(map[string]string, len(opts))
		for k, v := range opts {
			it.SelectedOptions[k] = asString(v)
		}
	}
	return it, true
}

func cartDocFromDomain(c *cartdom.Cart) cartDoc {
	items := make([]cartItemDoc, 0, len(c.Items))
	for _, it := range cartdom.MergeItems(c.Items) {
		items = append(items, cartItemDoc{
			ProductID:       it.ProductID,
			Qty:             it.Quantity,
			UnitPrice:       it.UnitPrice,
			SelectedOptions: it.SelectedOptions,
		})
	}

	return cartDoc{
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		ExpiresAt: c.ExpiresAt,
	}
}

func (d cartDoc) toDomain() *cartdom.Cart {
	items := make([]cartdom.LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, cartdom.LineItem{
			ProductID:       it.ProductID,
			Quantity:        it.Qty,
			UnitPrice:       it.UnitPrice,
			SelectedOptions: it.SelectedOptions,
		})
	}

	return &cartdom.Cart{
		// ID is filled by the caller (docId)
		Items:     cartdom.MergeItems(items),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}
