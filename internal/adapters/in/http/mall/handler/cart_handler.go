// internal/adapters/in/http/mall/handler/cart_handler.go
package mallHandler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"marketplace/internal/adapters/in/http/middleware"
	"marketplace/internal/application/reconcile"
	usecase "marketplace/internal/application/usecase"
	cartdom "marketplace/internal/domain/cart"
)

// CartService is the cart facade the handler drives (usecase.CartService).
type CartService interface {
	View(ctx context.Context, avatarID string) (usecase.CartView, error)
	AddItem(ctx context.Context, avatarID string, in usecase.AddItemInput) error
	Adjust(ctx context.Context, avatarID, productID string, qty int) (reconcile.AdjustResult, error)
	RemoveItem(ctx context.Context, avatarID, productID string) error
	Clear(ctx context.Context, avatarID string) error
	Gate(ctx context.Context, avatarID string) (reconcile.GateDecision, usecase.CartView, error)
}

// CartHandler serves /mall/me/cart endpoints for the authenticated buyer.
type CartHandler struct {
	svc    CartService
	logger *zap.Logger
}

func NewCartHandler(svc CartService, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{svc: svc, logger: logger.Named("mall_cart_handler")}
}

type addItemRequest struct {
	ProductID       string            `json:"productId"`
	Qty             int               `json:"qty"`
	UnitPrice       int               `json:"unitPrice"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
}

type adjustItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type adjustResponse struct {
	Adjusted reconcile.AdjustResult `json:"adjusted"`
	Cart     *usecase.CartView      `json:"cart,omitempty"`
}

type checkoutResponse struct {
	Proceed bool              `json:"proceed"`
	Notice  string            `json:"notice,omitempty"`
	Cart    *usecase.CartView `json:"cart,omitempty"`
}

// Get: GET /mall/me/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	aid, ok := h.avatarID(w, r)
	if !ok {
		return
	}

	v, err := h.svc.View(r.Context(), aid)
	if err != nil {
		h.writeCartErr(w, r, "view", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// AddItem: POST /mall/me/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	aid, ok := h.avatarID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ProductID) == "" || req.Qty <= 0 {
		writeErr(w, http.StatusBadRequest, "productId and qty >= 1 are required")
		return
	}

	err := h.svc.AddItem(r.Context(), aid, usecase.AddItemInput{
		ProductID:       req.ProductID,
		Qty:             req.Qty,
		UnitPrice:       req.UnitPrice,
		SelectedOptions: req.SelectedOptions,
	})
	if err != nil {
		h.writeCartErr(w, r, "add", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdjustItem: PUT /mall/me/cart/items
// The stepper path: single-item stock check, then the refreshed cart with the stepper warning folded in.
func (h *CartHandler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	aid, ok := h.avatarID(w, r)
	if !ok {
		return
	}

	var req adjustItemRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Qty <= 0 {
		writeErr(w, http.StatusBadRequest, "qty must be >= 1 (use DELETE to remove)")
		return
	}

	res, err := h.svc.Adjust(r.Context(), aid, req.ProductID, req.Qty)
	if err != nil {
		h.writeCartErr(w, r, "adjust", err)
		return
	}

	out := adjustResponse{Adjusted: res}
	v, err := h.svc.View(r.Context(), aid)
	if err != nil {
		// the adjustment itself succeeded; the client refreshes on its next GET
		h.logger.Warn("cart refresh after adjust failed", zap.String("avatarId", aid), zap.Error(err))
	} else {
		if v.Warnings == nil {
			v.Warnings = reconcile.Warnings{}
		}
		// a removed line carries no warning
		if !res.Removed {
			v.Warnings.ApplyAdjust(res)
		}
		v.CheckoutAllowed = v.Warnings.Empty()
		out.Cart = &v
	}
	writeJSON(w, http.StatusOK, out)
}

// RemoveItem: DELETE /mall/me/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	aid, ok := h.avatarID(w, r)
	if !ok {
		return
	}

	pid := strings.TrimSpace(chi.URLParam(r, "productId"))
	if pid == "" {
		writeErr(w, http.StatusBadRequest, "productId is required")
		return
	}

	if err := h.svc.RemoveItem(r.Context(), aid, pid); err != nil {
		h.writeCartErr(w, r, "remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear: DELETE /mall/me/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	aid, ok := h.avatarID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Clear(r.Context(), aid); err != nil {
		h.writeCartErr(w, r, "clear", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout: POST /mall/me/cart/checkout
// 200 proceed, 409 blocked by stock changes, 503 when stock could not be verified.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	aid, ok := h.avatarID(w, r)
	if !ok {
		return
	}

	d, v, err := h.svc.Gate(r.Context(), aid)
	if err != nil {
		if reconcile.IsLookupFailure(err) {
			writeJSON(w, http.StatusServiceUnavailable, checkoutResponse{Proceed: false, Notice: d.Notice})
			return
		}
		h.writeCartErr(w, r, "checkout", err)
		return
	}

	if !d.Proceed {
		writeJSON(w, http.StatusConflict, checkoutResponse{Proceed: false, Notice: d.Notice, Cart: &v})
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Proceed: true, Cart: &v})
}

func (h *CartHandler) avatarID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h == nil || h.svc == nil {
		writeErr(w, http.StatusServiceUnavailable, "cart handler is not configured")
		return "", false
	}
	uid, ok := middleware.CurrentUserUID(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return uid, true
}

func (h *CartHandler) writeCartErr(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := cartErrStatus(err)

	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", code),
		zap.String("requestId", middleware.RequestIDFrom(r.Context())),
		zap.Error(err),
	}
	if code >= 500 {
		h.logger.Error("cart request failed", fields...)
	} else {
		h.logger.Info("cart request rejected", fields...)
	}

	msg := err.Error()
	if code == http.StatusServiceUnavailable && reconcile.IsLookupFailure(err) {
		msg = reconcile.RetryNotice
	} else if code >= 500 {
		msg = http.StatusText(code)
	}
	writeErr(w, code, msg)
}

func cartErrStatus(err error) int {
	switch {
	case errors.Is(err, usecase.ErrCartInvalidArgument),
		errors.Is(err, reconcile.ErrInvalidProductID),
		errors.Is(err, reconcile.ErrInvalidQuantity),
		errors.Is(err, cartdom.ErrInvalidItem):
		return http.StatusBadRequest

	case errors.Is(err, usecase.ErrCartNotFound),
		errors.Is(err, cartdom.ErrItemNotFound):
		return http.StatusNotFound

	case errors.Is(err, reconcile.ErrLookupFailure),
		errors.Is(err, reconcile.ErrCartReadFailure),
		errors.Is(err, reconcile.ErrNotConfigured),
		errors.Is(err, usecase.ErrCartServiceNotConfigured):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
