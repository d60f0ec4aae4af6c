// internal/platform/di/mall/container.go
package mall

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	outdb "marketplace/internal/adapters/out/db"
	outfs "marketplace/internal/adapters/out/firestore"
	"marketplace/internal/application/reconcile"
	usecase "marketplace/internal/application/usecase"
	cartdom "marketplace/internal/domain/cart"
	stockdom "marketplace/internal/domain/stock"
	appcfg "marketplace/internal/infra/config"
	shared "marketplace/internal/platform/di/shared"
)

// Container is the mall DI container.
// Pure DI: build deps only. No routing here.
type Container struct {
	Infra *shared.Infra

	CartRepo cartdom.Repository
	Stock    stockdom.Lookup

	Engine      *reconcile.Engine
	CartUC      *usecase.CartUsecase
	CartService *usecase.CartService

	Logger *zap.Logger
}

func NewContainer(ctx context.Context, infra *shared.Infra) (*Container, error) {
	if infra == nil {
		return nil, errors.New("di.mall: shared infra is nil")
	}
	if infra.Config == nil {
		return nil, errors.New("di.mall: shared infra config is nil")
	}
	if infra.Firestore == nil {
		return nil, errors.New("di.mall: infra.Firestore is nil")
	}

	logger := infra.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := infra.Config

	stock, err := buildStockLookup(infra)
	if err != nil {
		return nil, err
	}

	cartRepo := outfs.NewCartRepositoryFS(infra.Firestore, cfg.CartsCollection)
	engine := reconcile.NewEngine(stock, logger)
	cartUC := usecase.NewCartUsecase(cartRepo, logger)
	cartSvc := usecase.NewCartService(cartUC, engine, SummaryPolicy(cfg), logger)

	logger.Named("di.mall").Info("container built",
		zap.String("stockBackend", cfg.StockBackend),
		zap.String("cartsCollection", cfg.CartsCollection),
	)

	return &Container{
		Infra:       infra,
		CartRepo:    cartRepo,
		Stock:       stock,
		Engine:      engine,
		CartUC:      cartUC,
		CartService: cartSvc,
		Logger:      logger,
	}, nil
}

// Close releases container-owned resources. Infra is closed by its owner.
func (c *Container) Close() error { return nil }

// SummaryPolicy maps pricing settings onto the cart summary policy.
func SummaryPolicy(cfg *appcfg.Config) cartdom.SummaryPolicy {
	if cfg == nil {
		return cartdom.SummaryPolicy{}
	}
	return cartdom.SummaryPolicy{ShippingFee: cfg.ShippingFee, VATRate: cfg.VATRate}
}

func buildStockLookup(infra *shared.Infra) (stockdom.Lookup, error) {
	switch infra.Config.StockBackend {
	case appcfg.StockBackendPostgres:
		if infra.Postgres == nil || infra.Postgres.Client == nil {
			return nil, errors.New("di.mall: STOCK_BACKEND=postgres but no database connection")
		}
		return outdb.NewProductStockPG(infra.Postgres.Client), nil
	case appcfg.StockBackendFirestore:
		return outfs.NewProductStockFS(infra.Firestore, infra.Config.ProductsCollection), nil
	default:
		return nil, fmt.Errorf("di.mall: unknown stock backend %q", infra.Config.StockBackend)
	}
}
