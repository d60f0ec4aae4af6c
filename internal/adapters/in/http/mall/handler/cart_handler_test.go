package mallHandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace/internal/adapters/in/http/middleware"
	"marketplace/internal/application/reconcile"
	usecase "marketplace/internal/application/usecase"
	cartdom "marketplace/internal/domain/cart"
)

type fakeCartService struct {
	view     usecase.CartView
	viewErr  error
	addIn    usecase.AddItemInput
	addErr   error
	adjust   reconcile.AdjustResult
	adjErr   error
	removed  string
	rmErr    error
	cleared  bool
	decision reconcile.GateDecision
	gateErr  error

	avatars []string
}

func (f *fakeCartService) View(_ context.Context, aid string) (usecase.CartView, error) {
	f.avatars = append(f.avatars, aid)
	return f.view, f.viewErr
}

func (f *fakeCartService) AddItem(_ context.Context, aid string, in usecase.AddItemInput) error {
	f.avatars = append(f.avatars, aid)
	f.addIn = in
	return f.addErr
}

func (f *fakeCartService) Adjust(_ context.Context, aid, pid string, qty int) (reconcile.AdjustResult, error) {
	f.avatars = append(f.avatars, aid)
	return f.adjust, f.adjErr
}

func (f *fakeCartService) RemoveItem(_ context.Context, aid, pid string) error {
	f.avatars = append(f.avatars, aid)
	f.removed = pid
	return f.rmErr
}

func (f *fakeCartService) Clear(_ context.Context, aid string) error {
	f.avatars = append(f.avatars, aid)
	f.cleared = true
	return nil
}

func (f *fakeCartService) Gate(_ context.Context, aid string) (reconcile.GateDecision, usecase.CartView, error) {
	f.avatars = append(f.avatars, aid)
	return f.decision, f.view, f.gateErr
}

func newTestRouter(h *CartHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/mall/me/cart", h.Get)
	r.Delete("/mall/me/cart", h.Clear)
	r.Post("/mall/me/cart/items", h.AddItem)
	r.Put("/mall/me/cart/items", h.AdjustItem)
	r.Delete("/mall/me/cart/items/{productId}", h.RemoveItem)
	r.Post("/mall/me/cart/checkout", h.Checkout)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req = req.WithContext(middleware.WithUID(req.Context(), "av-1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sampleView() usecase.CartView {
	return usecase.CartView{
		AvatarID:          "av-1",
		Items:             []cartdom.LineItem{{ProductID: "A", Quantity: 2, UnitPrice: 100}},
		Warnings:          reconcile.Warnings{"A": reconcile.ClampWarning(2)},
		RemovedProductIDs: []string{"B"},
		Summary:           cartdom.Summary{ItemCount: 2, Subtotal: 200, Total: 200},
	}
}

func TestCartHandler_Get(t *testing.T) {
	svc := &fakeCartService{view: sampleView()}
	rec := do(t, newTestRouter(NewCartHandler(svc, zap.NewNop())), http.MethodGet, "/mall/me/cart", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got usecase.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sampleView(), got)
	assert.Equal(t, []string{"av-1"}, svc.avatars)
}

func TestCartHandler_GetRequiresUser(t *testing.T) {
	h := newTestRouter(NewCartHandler(&fakeCartService{}, nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mall/me/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartHandler_GetLookupFailure(t *testing.T) {
	svc := &fakeCartService{viewErr: &reconcile.LookupError{ProductIDs: []string{"A"}, Err: errors.New("db down")}}
	rec := do(t, newTestRouter(NewCartHandler(svc, nil)), http.MethodGet, "/mall/me/cart", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"`+reconcile.RetryNotice+`"}`, rec.Body.String())
}

func TestCartHandler_AddItem(t *testing.T) {
	svc := &fakeCartService{}
	h := newTestRouter(NewCartHandler(svc, nil))

	rec := do(t, h, http.MethodPost, "/mall/me/cart/items", `{"productId":"A","qty":2,"unitPrice":1500,"selectedOptions":{"size":"M"}}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, usecase.AddItemInput{ProductID: "A", Qty: 2, UnitPrice: 1500, SelectedOptions: map[string]string{"size": "M"}}, svc.addIn)

	rec = do(t, h, http.MethodPost, "/mall/me/cart/items", `{"productId":"A","qty":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/mall/me/cart/items", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandler_AdjustFoldsStepperWarning(t *testing.T) {
	view := sampleView()
	view.Warnings = reconcile.Warnings{}
	svc := &fakeCartService{
		view:   view,
		adjust: reconcile.AdjustResult{ProductID: "A", Quantity: 2, Warning: reconcile.StepperWarning(2), Clamped: true},
	}
	rec := do(t, newTestRouter(NewCartHandler(svc, nil)), http.MethodPut, "/mall/me/cart/items", `{"productId":"A","qty":9}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got adjustResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, svc.adjust, got.Adjusted)
	require.NotNil(t, got.Cart)
	assert.Equal(t, reconcile.Warnings{"A": "Only 2 items available in stock"}, got.Cart.Warnings)
	assert.False(t, got.Cart.CheckoutAllowed)
}

func TestCartHandler_AdjustRemovedLineHasNoWarning(t *testing.T) {
	svc := &fakeCartService{
		view:   usecase.CartView{AvatarID: "av-1", Warnings: reconcile.Warnings{}, CheckoutAllowed: true},
		adjust: reconcile.AdjustResult{ProductID: "A", Warning: reconcile.StepperWarning(0), Clamped: true, Removed: true},
	}
	rec := do(t, newTestRouter(NewCartHandler(svc, nil)), http.MethodPut, "/mall/me/cart/items", `{"productId":"A","qty":1}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got adjustResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Adjusted.Removed)
	require.NotNil(t, got.Cart)
	assert.Empty(t, got.Cart.Warnings)
	assert.True(t, got.Cart.CheckoutAllowed)
}

func TestCartHandler_AdjustErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"zero qty", `{"productId":"A","qty":0}`, nil, http.StatusBadRequest},
		{"empty product", `{"productId":"","qty":1}`, reconcile.ErrInvalidProductID, http.StatusBadRequest},
		{"no cart", `{"productId":"A","qty":1}`, usecase.ErrCartNotFound, http.StatusNotFound},
		{"line missing", `{"productId":"A","qty":1}`, &reconcile.WriteError{ProductID: "A", Op: reconcile.OpSetQuantity, Err: cartdom.ErrItemNotFound}, http.StatusNotFound},
		{"lookup failure", `{"productId":"A","qty":1}`, &reconcile.LookupError{ProductIDs: []string{"A"}, Err: errors.New("x")}, http.StatusServiceUnavailable},
		{"write failure", `{"productId":"A","qty":1}`, &reconcile.WriteError{ProductID: "A", Op: reconcile.OpSetQuantity, Err: errors.New("deadline")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeCartService{adjErr: tc.err}
			rec := do(t, newTestRouter(NewCartHandler(svc, nil)), http.MethodPut, "/mall/me/cart/items", tc.body)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCartHandler_RemoveAndClear(t *testing.T) {
	svc := &fakeCartService{}
	h := newTestRouter(NewCartHandler(svc, nil))

	rec := do(t, h, http.MethodDelete, "/mall/me/cart/items/sku-9", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "sku-9", svc.removed)

	rec = do(t, h, http.MethodDelete, "/mall/me/cart", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.cleared)
}

func TestCartHandler_Checkout(t *testing.T) {
	t.Run("proceeds", func(t *testing.T) {
		svc := &fakeCartService{view: sampleView(), decision: reconcile.GateDecision{Proceed: true}}
		rec := do(t, newTestRouter(NewCartHandler(svc, nil)), http.MethodPost, "/mall/me/cart/checkout", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got checkoutResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, got.Proceed)
		assert.Empty(t, got.Notice)
	})

	t.Run("blocked", func(t *testing.T) {
		svc := &fakeCartService{view: sampleView(), decision: reconcile.GateDecision{Proceed: false, Notice: reconcile.ReviewNotice}}
		rec := do(t, newTestRouter(NewCartHandler(svc, nil)), http.MethodPost, "/mall/me/cart/checkout", "")
		require.Equal(t, http.StatusConflict, rec.Code)

		var got checkoutResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.False(t, got.Proceed)
		assert.Equal(t, reconcile.ReviewNotice, got.Notice)
		require.NotNil(t, got.Cart)
		assert.Equal(t, []string{"B"}, got.Cart.RemovedProductIDs)
	})

	t.Run("lookup failure", func(t *testing.T) {
		svc := &fakeCartService{
			decision: reconcile.GateDecision{Proceed: false, Notice: reconcile.RetryNotice},
			gateErr:  &reconcile.LookupError{ProductIDs: []string{"A"}, Err: errors.New("timeout")},
		}
		rec := do(t, newTestRouter(NewCartHandler(svc, nil)), http.MethodPost, "/mall/me/cart/checkout", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"proceed":false,"notice":"`+reconcile.RetryNotice+`"}`, rec.Body.String())
	})
}

func TestCartHandler_NotConfigured(t *testing.T) {
	var h *CartHandler
	rec := do(t, newTestRouter(h), http.MethodGet, "/mall/me/cart", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
