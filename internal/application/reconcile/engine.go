// internal/application/reconcile/engine.go
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	cartdom "marketplace/internal/domain/cart"
	stockdom "marketplace/internal/domain/stock"
)

// Engine turns a possibly-stale cart into a stock-consistent one and gates checkout.
//
// The engine is stateless between calls: every Reconcile/AdjustQuantity/GateCheckout is an
// independent transaction against the current CartStore and StockLookup. Nothing is cached.
type Engine struct {
	stock  StockLookup
	logger *zap.Logger
}

func NewEngine(lookup StockLookup, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		stock:  lookup,
		logger: logger.Named("reconcile"),
	}
}

// Reconcile re-reads the cart from store and reconciles it against live stock.
func (e *Engine) Reconcile(ctx context.Context, store CartStore) (Result, error) {
	if e == nil || e.stock == nil || store == nil {
		return Result{}, ErrNotConfigured
	}

	items, err := store.GetItems(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCartReadFailure, err)
	}
	return e.ReconcileItems(ctx, store, items)
}

// ReconcileItems reconciles items against live stock, issuing Cart Store side effects.
//
//   - one batched stock lookup for the distinct product ids
//   - zero stock (or unknown product): removed, no warning
//   - qty > available: clamped, warning
//   - otherwise: kept unchanged
//
// A lookup failure aborts before any Cart Store mutation. A write failure is recorded
// and logged; the pass continues and the result reflects the intended state.
func (e *Engine) ReconcileItems(ctx context.Context, store CartStore, items []cartdom.LineItem) (Result, error) {
	if e == nil || e.stock == nil || store == nil {
		return Result{}, ErrNotConfigured
	}

	lines := prepareLines(items)
	res := emptyResult()
	if len(lines) == 0 {
		return res, nil
	}

	ids := lookupIDs(lines)

	var levels stockdom.Levels
	if len(ids) > 0 {
		got, err := e.stock.GetMany(ctx, ids)
		if err != nil {
			e.logger.Warn("stock lookup failed; cart left untouched",
				zap.Strings("productIds", ids),
				zap.Error(err),
			)
			return Result{}, &LookupError{ProductIDs: ids, Err: err}
		}
		levels = stockdom.Levels(got)
	}

	for _, ln := range lines {
		switch {
		case ln.invalid:
			// treated as already clamped to 0
			if ln.item.ProductID == "" {
				e.logger.Warn("dropping line item without productId", zap.Int("qty", ln.item.Quantity))
				continue
			}
			e.remove(ctx, store, &res, ln.item.ProductID)

		default:
			pid := ln.item.ProductID
			available := levels.Available(pid)

			switch {
			case available == 0:
				e.remove(ctx, store, &res, pid)

			case ln.item.Quantity > available:
				if err := store.SetQuantity(ctx, pid, available); err != nil {
					e.recordWriteFailure(&res, pid, OpSetQuantity, err)
				}
				clamped := ln.item.Clone()
				clamped.Quantity = available
				res.CorrectedItems = append(res.CorrectedItems, clamped)
				res.Warnings.set(pid, ClampWarning(available))

			default:
				res.CorrectedItems = append(res.CorrectedItems, ln.item.Clone())
				res.Warnings.clear(pid)
			}
		}
	}

	res.CheckoutAllowed = res.Warnings.Empty()

	e.logger.Debug("reconciled",
		zap.Int("lines", len(lines)),
		zap.Int("kept", len(res.CorrectedItems)),
		zap.Int("clamped", len(res.Warnings)),
		zap.Int("removed", len(res.RemovedProductIDs)),
		zap.Int("writeFailures", len(res.WriteFailures)),
		zap.Bool("checkoutAllowed", res.CheckoutAllowed),
	)
	return res, nil
}

// AdjustQuantity applies a stepper change for one product after a single-item stock check.
// requested must be >= 1; removal is a distinct action.
func (e *Engine) AdjustQuantity(ctx context.Context, store CartStore, productID string, requested int) (AdjustResult, error) {
	if e == nil || e.stock == nil || store == nil {
		return AdjustResult{}, ErrNotConfigured
	}

	pid := strings.TrimSpace(productID)
	if pid == "" {
		return AdjustResult{}, ErrInvalidProductID
	}
	if requested <= 0 {
		return AdjustResult{}, ErrInvalidQuantity
	}

	available, err := e.stock.GetOne(ctx, pid)
	if err != nil {
		e.logger.Warn("stock lookup failed (adjust)", zap.String("productId", pid), zap.Error(err))
		return AdjustResult{}, &LookupError{ProductIDs: []string{pid}, Err: err}
	}
	if available < 0 {
		available = 0
	}

	if requested <= available {
		out := AdjustResult{ProductID: pid, Quantity: requested}
		if err := store.SetQuantity(ctx, pid, requested); err != nil {
			return out, e.writeError(pid, OpSetQuantity, err)
		}
		return out, nil
	}

	out := AdjustResult{
		ProductID: pid,
		Quantity:  available,
		Warning:   StepperWarning(available),
		Clamped:   true,
	}
	if available == 0 {
		// a cart line never stays at 0
		out.Removed = true
		if err := store.RemoveItem(ctx, pid); err != nil {
			return out, e.writeError(pid, OpRemoveItem, err)
		}
		return out, nil
	}
	if err := store.SetQuantity(ctx, pid, available); err != nil {
		return out, e.writeError(pid, OpSetQuantity, err)
	}
	return out, nil
}

// GateCheckout runs a fresh reconciliation immediately before checkout navigation.
// On lookup failure the decision is Proceed=false and the LookupError is returned.
func (e *Engine) GateCheckout(ctx context.Context, store CartStore) (GateDecision, error) {
	res, err := e.Reconcile(ctx, store)
	return e.decide(res, err)
}

// GateCheckoutItems is GateCheckout over an explicit item list.
func (e *Engine) GateCheckoutItems(ctx context.Context, store CartStore, items []cartdom.LineItem) (GateDecision, error) {
	res, err := e.ReconcileItems(ctx, store, items)
	return e.decide(res, err)
}

func (e *Engine) decide(res Result, err error) (GateDecision, error) {
	if err != nil {
		notice := ReviewNotice
		if IsLookupFailure(err) {
			notice = RetryNotice
		}
		blocked := emptyResult()
		blocked.CheckoutAllowed = false
		return GateDecision{Proceed: false, Notice: notice, Result: blocked}, err
	}

	d := GateDecision{Proceed: res.CheckoutAllowed, Result: res}
	if !d.Proceed {
		d.Notice = ReviewNotice
	}
	e.logger.Info("checkout gate",
		zap.Bool("proceed", d.Proceed),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int("removed", len(res.RemovedProductIDs)),
	)
	return d, nil
}

func (e *Engine) remove(ctx context.Context, store CartStore, res *Result, pid string) {
	if err := store.RemoveItem(ctx, pid); err != nil {
		e.recordWriteFailure(res, pid, OpRemoveItem, err)
	}
	res.Warnings.clear(pid)
	res.RemovedProductIDs = append(res.RemovedProductIDs, pid)
}

func (e *Engine) recordWriteFailure(res *Result, pid string, op WriteOp, err error) {
	if res.WriteFailures == nil {
		res.WriteFailures = map[string]error{}
	}
	res.WriteFailures[pid] = e.writeError(pid, op, err)
}

func (e *Engine) writeError(pid string, op WriteOp, err error) error {
	e.logger.Warn("cart write failed",
		zap.String("productId", pid),
		zap.String("op", string(op)),
		zap.Error(err),
	)
	return &WriteError{ProductID: pid, Op: op, Err: err}
}

// ----------------------------
// Helpers
// ----------------------------

type line struct {
	item    cartdom.LineItem
	invalid bool
}

// prepareLines trims ids and merges duplicate products into their first valid occurrence,
// so each product is checked and written exactly once per pass.
// A product is invalid (removed by the pass) only when none of its lines has qty >= 1;
// lines with an empty id are always invalid.
func prepareLines(items []cartdom.LineItem) []line {
	valid := make(map[string]bool, len(items))
	for _, it := range items {
		if pid := strings.TrimSpace(it.ProductID); pid != "" && it.Quantity > 0 {
			valid[pid] = true
		}
	}

	out := make([]line, 0, len(items))
	pos := make(map[string]int, len(items))
	removed := make(map[string]bool, len(items))

	for _, it := range items {
		it = it.Clone()
		it.ProductID = strings.TrimSpace(it.ProductID)

		switch {
		case it.ProductID == "":
			out = append(out, line{item: it, invalid: true})

		case it.Quantity <= 0:
			if valid[it.ProductID] || removed[it.ProductID] {
				continue
			}
			removed[it.ProductID] = true
			out = append(out, line{item: it, invalid: true})

		default:
			if i, ok := pos[it.ProductID]; ok {
				out[i].item.Quantity += it.Quantity
				continue
			}
			pos[it.ProductID] = len(out)
			out = append(out, line{item: it})
		}
	}
	return out
}

func lookupIDs(lines []line) []string {
	ids := make([]string, 0, len(lines))
	for _, ln := range lines {
		if ln.invalid {
			continue
		}
		ids = append(ids, ln.item.ProductID)
	}
	return stockdom.NormalizeIDs(ids)
}
