// Package reconciletest provides in-memory collaborators for exercising the reconcile engine.
package reconciletest

import (
	"context"
	"errors"
	"sync"

	cartdom "marketplace/internal/domain/cart"
)

// ErrBackend is the canned failure used by the fakes.
var ErrBackend = errors.New("reconciletest: backend unavailable")

// StockLookup is a fake stock.Lookup backed by a map.
// Products absent from Levels are omitted from GetMany responses.
type StockLookup struct {
	mu sync.Mutex

	Levels map[string]int
	Err    error

	ManyCalls [][]string
	OneCalls  []string
}

func NewStockLookup(levels map[string]int) *StockLookup {
	cp := make(map[string]int, len(levels))
	for k, v := range levels {
		cp[k] = v
	}
	return &StockLookup{Levels: cp}
}

func (s *StockLookup) GetMany(_ context.Context, productIDs []string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ManyCalls = append(s.ManyCalls, append([]string(nil), productIDs...))
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		if n, ok := s.Levels[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (s *StockLookup) GetOne(_ context.Context, productID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.OneCalls = append(s.OneCalls, productID)
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Levels[productID], nil
}

// Set changes the stock of one product.
func (s *StockLookup) Set(productID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Levels == nil {
		s.Levels = map[string]int{}
	}
	s.Levels[productID] = n
}

// Mutation is one recorded Cart Store write.
type Mutation struct {
	Op        string
	ProductID string
	Qty       int
}

// CartStore is a fake reconcile.CartStore holding items in memory.
type CartStore struct {
	mu sync.Mutex

	Items []cartdom.LineItem

	GetErr    error
	SetErr    map[string]error
	RemoveErr map[string]error

	Mutations []Mutation
}

func NewCartStore(items ...cartdom.LineItem) *CartStore {
	cp := make([]cartdom.LineItem, 0, len(items))
	for _, it := range items {
		cp = append(cp, it.Clone())
	}
	return &CartStore{Items: cp}
}

func (c *CartStore) GetItems(_ context.Context) ([]cartdom.LineItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.GetErr != nil {
		return nil, c.GetErr
	}
	out := make([]cartdom.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.Clone())
	}
	return out, nil
}

func (c *CartStore) SetQuantity(_ context.Context, productID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Mutations = append(c.Mutations, Mutation{Op: "set", ProductID: productID, Qty: qty})
	if err := c.SetErr[productID]; err != nil {
		return err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
		}
	}
	return nil
}

func (c *CartStore) RemoveItem(_ context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Mutations = append(c.Mutations, Mutation{Op: "remove", ProductID: productID})
	if err := c.RemoveErr[productID]; err != nil {
		return err
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return nil
}

// Snapshot returns a copy of the current items.
func (c *CartStore) Snapshot() []cartdom.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]cartdom.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.Clone())
	}
	return out
}

// MutationCount returns the number of recorded writes.
func (c *CartStore) MutationCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Mutations)
}
