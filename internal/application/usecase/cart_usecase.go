// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace/internal/application/reconcile"
	cartdom "marketplace/internal/domain/cart"
)

var (
	ErrCartInvalidArgument = errors.New("cart_usecase: invalid argument")
	ErrCartNotFound        = errors.New("cart_usecase: not found")
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// CartUsecase coordinates cart operations.
type CartUsecase struct {
	repo   cartdom.Repository
	clock  Clock
	logger *zap.Logger
}

func NewCartUsecase(repo cartdom.Repository, logger *zap.Logger) *CartUsecase {
	return NewCartUsecaseWithClock(repo, systemClock{}, logger)
}

// NewCartUsecaseWithClock is useful for tests.
func NewCartUsecaseWithClock(repo cartdom.Repository, clock Clock, logger *zap.Logger) *CartUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartUsecase{repo: repo, clock: clock, logger: logger.Named("cart_uc")}
}

// Get returns the cart for avatarID.
// If cart does not exist, returns (nil, ErrCartNotFound).
func (uc *CartUsecase) Get(ctx context.Context, avatarID string) (*cartdom.Cart, error) {
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return nil, ErrCartInvalidArgument
	}

	c, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCartNotFound
	}
	return c, nil
}

// AddItemInput is the app-level input for AddItem.
type AddItemInput struct {
	ProductID       string
	Qty             int
	UnitPrice       int
	SelectedOptions map[string]string
}

// AddItem increments qty for productID (creating the cart when absent).
// qty must be >= 1.
func (uc *CartUsecase) AddItem(ctx context.Context, avatarID string, in AddItemInput) (*cartdom.Cart, error) {
	aid := strings.TrimSpace(avatarID)
	pid := strings.TrimSpace(in.ProductID)
	if aid == "" || pid == "" || in.Qty <= 0 || in.UnitPrice < 0 {
		return nil, ErrCartInvalidArgument
	}

	now := uc.clock.Now()

	c, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c, err = cartdom.NewCart(aid, nil, now)
		if err != nil {
			return nil, err
		}
	}

	if err := c.Add(pid, in.Qty, in.UnitPrice, in.SelectedOptions, now); err != nil {
		return nil, err
	}
	if err := uc.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	uc.logger.Debug("item added", zap.String("avatarId", aid), zap.String("productId", pid), zap.Int("qty", in.Qty))
	return c, nil
}

// SetItemQty sets qty for productID.
// If qty <= 0, it removes the item.
func (uc *CartUsecase) SetItemQty(ctx context.Context, avatarID, productID string, qty int) (*cartdom.Cart, error) {
	aid := strings.TrimSpace(avatarID)
	pid := strings.TrimSpace(productID)
	if aid == "" || pid == "" {
		return nil, ErrCartInvalidArgument
	}

	c, err := uc.repo.GetByAvatarID(ctx, aid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		if qty <= 0 {
			// nothing to remove
			return nil, nil
		}
		return nil, ErrCartNotFound
	}

	if err := c.SetQty(pid, qty, uc.clock.Now()); err != nil {
		return nil, err
	}
	if err := uc.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem removes productID from cart.
func (uc *CartUsecase) RemoveItem(ctx context.Context, avatarID, productID string) (*cartdom.Cart, error) {
	return uc.SetItemQty(ctx, avatarID, productID, 0)
}

// Clear deletes the cart doc (useful for "empty cart" UX).
func (uc *CartUsecase) Clear(ctx context.Context, avatarID string) error {
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return ErrCartInvalidArgument
	}
	return uc.repo.DeleteByAvatarID(ctx, aid)
}

// Store binds the usecase to one avatar's cart so the reconcile engine can use it as its Cart Store.
// Every call re-reads the cart document; nothing is cached between calls.
func (uc *CartUsecase) Store(avatarID string) reconcile.CartStore {
	return &avatarCartStore{uc: uc, avatarID: strings.TrimSpace(avatarID)}
}

type avatarCartStore struct {
	uc       *CartUsecase
	avatarID string
}

func (s *avatarCartStore) GetItems(ctx context.Context) ([]cartdom.LineItem, error) {
	if s.avatarID == "" {
		return nil, ErrCartInvalidArgument
	}
	c, err := s.uc.repo.GetByAvatarID(ctx, s.avatarID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return []cartdom.LineItem{}, nil
	}
	return c.Snapshot(), nil
}

func (s *avatarCartStore) SetQuantity(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: qty must be >= 1 (use RemoveItem)", ErrCartInvalidArgument)
	}
	_, err := s.uc.SetItemQty(ctx, s.avatarID, productID, qty)
	return err
}

func (s *avatarCartStore) RemoveItem(ctx context.Context, productID string) error {
	_, err := s.uc.RemoveItem(ctx, s.avatarID, productID)
	return err
}
