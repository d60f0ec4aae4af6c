package usecase_test

import (
	"context"
	"sync"
	"time"

	cartdom "marketplace/internal/domain/cart"
)

type memCartRepo struct {
	mu    sync.Mutex
	carts map[string]*cartdom.Cart

	getErr    error
	upsertErr error
	upserts   int
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: map[string]*cartdom.Cart{}}
}

func (r *memCartRepo) GetByAvatarID(_ context.Context, avatarID string) (*cartdom.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	c, ok := r.carts[avatarID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = c.Snapshot()
	return &cp, nil
}

func (r *memCartRepo) Upsert(_ context.Context, c *cartdom.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	cp := *c
	cp.Items = c.Snapshot()
	r.carts[c.ID] = &cp
	return nil
}

func (r *memCartRepo) DeleteByAvatarID(_ context.Context, avatarID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, avatarID)
	return nil
}

func (r *memCartRepo) seed(avatarID string, items ...cartdom.LineItem) {
	c, err := cartdom.NewCart(avatarID, items, fixedNow)
	if err != nil {
		panic(err)
	}
	r.carts[avatarID] = c
}

func (r *memCartRepo) items(avatarID string) []cartdom.LineItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[avatarID]
	if !ok {
		return nil
	}
	return c.Snapshot()
}

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
