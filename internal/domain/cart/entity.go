// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCart  = errors.New("cart: invalid")
	ErrInvalidItem  = errors.New("cart: invalid item")
	ErrItemNotFound = errors.New("cart: item not found")
)

// DefaultCartTTL is the inactivity window after which the cart becomes eligible for auto deletion
// (Firestore TTL should be configured on expiresAt).
const DefaultCartTTL = 7 * 24 * time.Hour

// LineItem represents one product entry in a cart.
//   - ProductID is a foreign reference; the cart does not own the product.
//   - Quantity is >= 1 while present (an item reaching 0 is removed).
//   - UnitPrice is the price snapshot (minor units) taken when the item was added.
//   - SelectedOptions is an opaque variant selection (optionId -> value).
type LineItem struct {
	ProductID       string            `json:"productId" firestore:"productId"`
	Quantity        int               `json:"qty" firestore:"qty"`
	UnitPrice       int               `json:"unitPrice" firestore:"unitPrice"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty" firestore:"selectedOptions,omitempty"`
}

// Clone returns a deep copy (options map included).
func (it LineItem) Clone() LineItem {
	out := it
	out.SelectedOptions = cloneOptions(it.SelectedOptions)
	return out
}

func cloneOptions(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// LineTotal is UnitPrice * Quantity.
func (it LineItem) LineTotal() int {
	return it.UnitPrice * it.Quantity
}

// Cart represents "a cart document".
//   - docId = avatarId (Firestore)
//   - Items keep insertion order; one entry per productId
//   - ExpiresAt: for Firestore TTL (auto deletion), updated on each cart mutation
type Cart struct {
	// ID is Firestore docId (= avatarId).
	ID string `json:"id" firestore:"id"`

	Items []LineItem `json:"items" firestore:"items"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt"`
}

// NewCart creates a new cart doc.
// id is the Firestore docId (avatarId). items can be nil (treated as empty).
func NewCart(id string, items []LineItem, now time.Time) (*Cart, error) {
	c := &Cart{
		ID:        strings.TrimSpace(id),
		Items:     CloneItems(items),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(DefaultCartTTL),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Add increases quantity for productID, or appends a new line.
// The price snapshot of an existing line is kept as-is.
func (c *Cart) Add(productID string, qty, unitPrice int, options map[string]string, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}

	pid := strings.TrimSpace(productID)
	if pid == "" || qty <= 0 || unitPrice < 0 {
		return ErrInvalidItem
	}

	if idx := findItemIndex(c.Items, pid); idx >= 0 {
		c.Items[idx].Quantity += qty
	} else {
		c.Items = append(c.Items, LineItem{
			ProductID:       pid,
			Quantity:        qty,
			UnitPrice:       unitPrice,
			SelectedOptions: cloneOptions(options),
		})
	}

	c.touch(now)
	return c.validate()
}

// SetQty sets quantity for productID.
// If qty <= 0, it removes the item. Setting a positive qty on a missing line is ErrItemNotFound
// (there is no price snapshot to create it from).
func (c *Cart) SetQty(productID string, qty int, now time.Time) error {
	if c == nil {
		return ErrInvalidCart
	}

	pid := strings.TrimSpace(productID)
	if pid == "" {
		return ErrInvalidItem
	}

	idx := findItemIndex(c.Items, pid)

	if qty <= 0 {
		if idx >= 0 {
			c.Items = removeIndex(c.Items, idx)
		}
		c.touch(now)
		return c.validate()
	}

	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items[idx].Quantity = qty

	c.touch(now)
	return c.validate()
}

// Remove removes productID from the cart (no-op if absent).
func (c *Cart) Remove(productID string, now time.Time) error {
	return c.SetQty(productID, 0, now)
}

// Find returns a copy of the line for productID.
func (c *Cart) Find(productID string) (LineItem, bool) {
	if c == nil {
		return LineItem{}, false
	}
	idx := findItemIndex(c.Items, strings.TrimSpace(productID))
	if idx < 0 {
		return LineItem{}, false
	}
	return c.Items[idx].Clone(), true
}

// Snapshot returns a deep copy of the items.
func (c *Cart) Snapshot() []LineItem {
	if c == nil {
		return []LineItem{}
	}
	out := make([]LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.Clone())
	}
	return out
}

func (c *Cart) touch(now time.Time) {
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(DefaultCartTTL)
}

func (c *Cart) validate() error {
	if c == nil {
		return ErrInvalidCart
	}

	// docId (= avatarId) must exist
	if strings.TrimSpace(c.ID) == "" {
		return ErrInvalidCart
	}

	if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() || c.ExpiresAt.IsZero() {
		return ErrInvalidCart
	}
	if c.UpdatedAt.Before(c.CreatedAt) {
		return ErrInvalidCart
	}
	if c.ExpiresAt.Before(c.UpdatedAt) {
		return ErrInvalidCart
	}

	if len(c.Items) == 0 {
		c.Items = []LineItem{}
		return nil
	}

	c.Items = MergeItems(c.Items)
	for _, it := range c.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			return ErrInvalidCart
		}
	}
	return nil
}

// ----------------------------
// Helpers
// ----------------------------

func findItemIndex(items []LineItem, pid string) int {
	for i := range items {
		if items[i].ProductID == pid {
			return i
		}
	}
	return -1
}

func removeIndex(items []LineItem, idx int) []LineItem {
	if idx < 0 || idx >= len(items) {
		return items
	}
	// preserve order
	return append(items[:idx], items[idx+1:]...)
}

// MergeItems trims ids, drops lines with an empty id or qty <= 0, and merges
// duplicate productIds into their first occurrence (quantities summed).
// Relative order of first occurrences is preserved.
func MergeItems(src []LineItem) []LineItem {
	out := make([]LineItem, 0, len(src))
	pos := make(map[string]int, len(src))

	for _, it := range src {
		pid := strings.TrimSpace(it.ProductID)
		if pid == "" || it.Quantity <= 0 {
			continue
		}
		if i, ok := pos[pid]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		cp := it.Clone()
		cp.ProductID = pid
		pos[pid] = len(out)
		out = append(out, cp)
	}
	return out
}

// CloneItems deep-copies and merges items (see MergeItems).
func CloneItems(src []LineItem) []LineItem {
	if len(src) == 0 {
		return []LineItem{}
	}
	return MergeItems(src)
}
