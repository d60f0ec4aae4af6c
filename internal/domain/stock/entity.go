// internal/domain/stock/entity.go
package stock

import (
	"errors"
	"strings"
)

var (
	ErrInvalidProductID = errors.New("stock: invalid productID")
)

// Snapshot is the authoritative available quantity of one product at read time.
// Snapshots are ephemeral: fetched per reconciliation pass and never cached.
type Snapshot struct {
	ProductID string `json:"productId"`
	Available int    `json:"available"`
}

// Levels is a batched lookup response: productId -> available quantity.
type Levels map[string]int

// Available resolves the quantity for productID.
// A missing key is zero stock; negative values are clamped to zero.
func (l Levels) Available(productID string) int {
	n, ok := l[strings.TrimSpace(productID)]
	if !ok || n < 0 {
		return 0
	}
	return n
}

// Snapshots returns one Snapshot per id, in the given order.
func (l Levels) Snapshots(productIDs []string) []Snapshot {
	out := make([]Snapshot, 0, len(productIDs))
	for _, id := range NormalizeIDs(productIDs) {
		out = append(out, Snapshot{ProductID: id, Available: l.Available(id)})
	}
	return out
}

// NormalizeIDs trims, drops empties and de-duplicates while keeping first-seen order.
func NormalizeIDs(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
