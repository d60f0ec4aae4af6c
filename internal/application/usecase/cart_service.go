// internal/application/usecase/cart_service.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"marketplace/internal/application/reconcile"
	cartdom "marketplace/internal/domain/cart"
)

var (
	ErrCartServiceNotConfigured = errors.New("cart_service: not configured")
)

// CartView is the buyer-facing cart: reconciled items, diagnostics and totals.
// Unconfirmed lists products whose corrective write failed; their state is advisory.
type CartView struct {
	AvatarID          string             `json:"avatarId"`
	Items             []cartdom.LineItem `json:"items"`
	Warnings          reconcile.Warnings `json:"warnings"`
	RemovedProductIDs []string           `json:"removedProductIds"`
	CheckoutAllowed   bool               `json:"checkoutAllowed"`
	Summary           cartdom.Summary    `json:"summary"`
	Unconfirmed       []string           `json:"unconfirmed,omitempty"`
}

// CartService orchestrates cart mutations and the reconcile engine for one avatar at a time.
// Both call sites (cart load and pre-checkout) go through the same engine.
type CartService struct {
	carts  *CartUsecase
	engine *reconcile.Engine
	policy cartdom.SummaryPolicy
	logger *zap.Logger
}

func NewCartService(carts *CartUsecase, engine *reconcile.Engine, policy cartdom.SummaryPolicy, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		carts:  carts,
		engine: engine,
		policy: policy,
		logger: logger.Named("cart_service"),
	}
}

func (s *CartService) ready() error {
	if s == nil || s.carts == nil || s.engine == nil {
		return ErrCartServiceNotConfigured
	}
	return nil
}

// View reconciles the avatar's cart against live stock and returns it with totals.
func (s *CartService) View(ctx context.Context, avatarID string) (CartView, error) {
	if err := s.ready(); err != nil {
		return CartView{}, err
	}
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return CartView{}, ErrCartInvalidArgument
	}

	res, err := s.engine.Reconcile(ctx, s.carts.Store(aid))
	if err != nil {
		return CartView{}, err
	}
	return s.view(aid, res), nil
}

// AddItem adds qty of a product (price snapshot taken now).
func (s *CartService) AddItem(ctx context.Context, avatarID string, in AddItemInput) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.carts.AddItem(ctx, avatarID, in)
	return err
}

// Adjust applies a stepper change after a single-item stock check.
func (s *CartService) Adjust(ctx context.Context, avatarID, productID string, qty int) (reconcile.AdjustResult, error) {
	if err := s.ready(); err != nil {
		return reconcile.AdjustResult{}, err
	}
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return reconcile.AdjustResult{}, ErrCartInvalidArgument
	}

	if _, err := s.carts.Get(ctx, aid); err != nil {
		return reconcile.AdjustResult{}, err
	}
	return s.engine.AdjustQuantity(ctx, s.carts.Store(aid), productID, qty)
}

// RemoveItem is the explicit "remove" action.
func (s *CartService) RemoveItem(ctx context.Context, avatarID, productID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.carts.RemoveItem(ctx, avatarID, productID)
	return err
}

// Clear empties the avatar's cart.
func (s *CartService) Clear(ctx context.Context, avatarID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.carts.Clear(ctx, avatarID)
}

// Gate re-checks live stock immediately before checkout.
func (s *CartService) Gate(ctx context.Context, avatarID string) (reconcile.GateDecision, CartView, error) {
	if err := s.ready(); err != nil {
		return reconcile.GateDecision{}, CartView{}, err
	}
	aid := strings.TrimSpace(avatarID)
	if aid == "" {
		return reconcile.GateDecision{}, CartView{}, ErrCartInvalidArgument
	}

	d, err := s.engine.GateCheckout(ctx, s.carts.Store(aid))
	if err != nil {
		s.logger.Warn("checkout gate failed", zap.String("avatarId", aid), zap.Error(err))
		return d, CartView{}, err
	}
	return d, s.view(aid, d.Result), nil
}

func (s *CartService) view(aid string, res reconcile.Result) CartView {
	return CartView{
		AvatarID:          aid,
		Items:             res.CorrectedItems,
		Warnings:          res.Warnings,
		RemovedProductIDs: res.RemovedProductIDs,
		CheckoutAllowed:   res.CheckoutAllowed,
		Summary:           cartdom.Summarize(res.CorrectedItems, s.policy),
		Unconfirmed:       res.UnconfirmedProductIDs(),
	}
}
