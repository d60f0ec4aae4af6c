package mall

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	outdb "marketplace/internal/adapters/out/db"
	outfs "marketplace/internal/adapters/out/firestore"
	"marketplace/internal/application/reconcile"
	"marketplace/internal/application/reconcile/reconciletest"
	usecase "marketplace/internal/application/usecase"
	cartdom "marketplace/internal/domain/cart"
	appcfg "marketplace/internal/infra/config"
	"marketplace/internal/infra/database"
	shared "marketplace/internal/platform/di/shared"
)

func TestBuildStockLookup(t *testing.T) {
	inf := &shared.Infra{Config: &appcfg.Config{StockBackend: appcfg.StockBackendFirestore, ProductsCollection: "items"}}
	got, err := buildStockLookup(inf)
	require.NoError(t, err)
	fs, ok := got.(*outfs.ProductStockFS)
	require.True(t, ok)
	assert.Equal(t, "items", fs.Collection)

	inf = &shared.Infra{Config: &appcfg.Config{StockBackend: appcfg.StockBackendPostgres}}
	_, err = buildStockLookup(inf)
	assert.Error(t, err)

	inf.Postgres = &database.DB{Client: &sql.DB{}}
	got, err = buildStockLookup(inf)
	require.NoError(t, err)
	assert.IsType(t, &outdb.ProductStockPG{}, got)

	inf = &shared.Infra{Config: &appcfg.Config{StockBackend: "redis"}}
	_, err = buildStockLookup(inf)
	assert.Error(t, err)
}

func TestNewContainer_RequiresFirestore(t *testing.T) {
	_, err := NewContainer(context.Background(), &shared.Infra{Config: &appcfg.Config{}})
	assert.Error(t, err)

	_, err = NewContainer(context.Background(), nil)
	assert.Error(t, err)
}

func TestSummaryPolicy(t *testing.T) {
	assert.Equal(t, cartdom.SummaryPolicy{ShippingFee: 500, VATRate: 0.1},
		SummaryPolicy(&appcfg.Config{ShippingFee: 500, VATRate: 0.1}))
	assert.Equal(t, cartdom.SummaryPolicy{}, SummaryPolicy(nil))
}

type memRepo struct{ carts map[string]*cartdom.Cart }

func (m *memRepo) GetByAvatarID(_ context.Context, id string) (*cartdom.Cart, error) {
	return m.carts[id], nil
}
func (m *memRepo) Upsert(_ context.Context, c *cartdom.Cart) error {
	m.carts[c.ID] = c
	return nil
}
func (m *memRepo) DeleteByAvatarID(_ context.Context, id string) error {
	delete(m.carts, id)
	return nil
}

func TestHandler_DevAuthServesCart(t *testing.T) {
	repo := &memRepo{carts: map[string]*cartdom.Cart{}}
	stock := reconciletest.NewStockLookup(map[string]int{"A": 1})
	uc := usecase.NewCartUsecase(repo, nil)
	svc := usecase.NewCartService(uc, reconcile.NewEngine(stock, nil), cartdom.SummaryPolicy{}, nil)

	cont := &Container{
		Infra:       &shared.Infra{Config: &appcfg.Config{AuthDisabled: true}},
		CartService: svc,
		Logger:      zap.NewNop(),
	}

	h := Handler(cont)
	req := httptest.NewRequest(http.MethodGet, "/mall/me/cart", nil)
	req.Header.Set("X-Avatar-Id", "av-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_FailsClosedWithoutFirebase(t *testing.T) {
	cont := &Container{Infra: &shared.Infra{Config: &appcfg.Config{}}, Logger: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/mall/me/cart", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	Handler(cont).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
