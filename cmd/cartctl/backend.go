// cmd/cartctl/backend.go
package main

import (
	"context"
	"errors"

	"marketplace/internal/application/reconcile"
	usecase "marketplace/internal/application/usecase"
	cartdom "marketplace/internal/domain/cart"
	appcfg "marketplace/internal/infra/config"
	"marketplace/internal/infra/logging"
	mallDI "marketplace/internal/platform/di/mall"
	shared "marketplace/internal/platform/di/shared"
)

// backend is what the commands need from the mall container.
type backend interface {
	View(ctx context.Context, avatarID string) (usecase.CartView, error)
	Adjust(ctx context.Context, avatarID, productID string, qty int) (reconcile.AdjustResult, error)
	Gate(ctx context.Context, avatarID string) (reconcile.GateDecision, usecase.CartView, error)
	Stock(ctx context.Context, productIDs []string) (map[string]int, error)
	Cart(ctx context.Context, avatarID string) (*cartdom.Cart, error)
	Close() error
}

type openFunc func(ctx context.Context, configFile string) (backend, error)

type containerBackend struct {
	infra *shared.Infra
	cont  *mallDI.Container
}

// openContainerBackend builds the same infra and container the server uses.
// Logs go to stderr so stdout stays pure JSON.
func openContainerBackend(ctx context.Context, configFile string) (backend, error) {
	var (
		cfg *appcfg.Config
		err error
	)
	if configFile != "" {
		cfg, err = appcfg.LoadFile(configFile)
	} else {
		cfg, err = appcfg.Load()
	}
	if err != nil {
		return nil, err
	}
	// no token verification from the CLI
	cfg.AuthDisabled = true

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	infra, err := shared.NewInfra(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	cont, err := mallDI.NewContainer(ctx, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return &containerBackend{infra: infra, cont: cont}, nil
}

func (b *containerBackend) View(ctx context.Context, avatarID string) (usecase.CartView, error) {
	return b.cont.CartService.View(ctx, avatarID)
}

func (b *containerBackend) Adjust(ctx context.Context, avatarID, productID string, qty int) (reconcile.AdjustResult, error) {
	return b.cont.CartService.Adjust(ctx, avatarID, productID, qty)
}

func (b *containerBackend) Gate(ctx context.Context, avatarID string) (reconcile.GateDecision, usecase.CartView, error) {
	return b.cont.CartService.Gate(ctx, avatarID)
}

func (b *containerBackend) Stock(ctx context.Context, productIDs []string) (map[string]int, error) {
	return b.cont.Stock.GetMany(ctx, productIDs)
}

func (b *containerBackend) Cart(ctx context.Context, avatarID string) (*cartdom.Cart, error) {
	return b.cont.CartUC.Get(ctx, avatarID)
}

func (b *containerBackend) Close() error {
	_ = b.cont.Logger.Sync()
	return errors.Join(b.cont.Close(), b.infra.Close())
}

var _ backend = (*containerBackend)(nil)
