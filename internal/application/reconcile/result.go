// internal/application/reconcile/result.go
package reconcile

import (
	"fmt"

	cartdom "marketplace/internal/domain/cart"
)

// ReviewNotice is the non-itemized prompt shown when checkout is blocked by stock changes.
const ReviewNotice = "Please review your cart. Some items have been adjusted due to stock availability."

// RetryNotice is shown when checkout is blocked because stock could not be verified.
const RetryNotice = "We could not verify stock availability. Please try again."

// ClampWarning is the per-item message of a reconciliation clamp.
func ClampWarning(available int) string {
	return fmt.Sprintf("Quantity adjusted to available stock (%d)", available)
}

// StepperWarning is the per-item message of an interactive quantity clamp.
func StepperWarning(available int) string {
	return fmt.Sprintf("Only %d items available in stock", available)
}

// Result is the outcome of one reconciliation pass.
// It is computed on demand and discarded once the caller has applied it.
type Result struct {
	// CorrectedItems is the cart after stock constraints, in input order.
	CorrectedItems []cartdom.LineItem `json:"items"`

	// Warnings holds one entry per clamped product.
	Warnings Warnings `json:"warnings"`

	// RemovedProductIDs lists products dropped for zero stock, in input order.
	RemovedProductIDs []string `json:"removedProductIds"`

	// CheckoutAllowed is true iff Warnings is empty.
	CheckoutAllowed bool `json:"checkoutAllowed"`

	// WriteFailures records Cart Store writes that failed during the pass.
	// The item state above still reflects the intended clamp; treat it as advisory for these ids.
	WriteFailures map[string]error `json:"-"`
}

// UnconfirmedProductIDs returns the ids whose Cart Store write failed:
// kept items first, then removed ones, each in pass order.
func (r Result) UnconfirmedProductIDs() []string {
	if len(r.WriteFailures) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.WriteFailures))
	for _, it := range r.CorrectedItems {
		if _, ok := r.WriteFailures[it.ProductID]; ok {
			out = append(out, it.ProductID)
		}
	}
	for _, pid := range r.RemovedProductIDs {
		if _, ok := r.WriteFailures[pid]; ok {
			out = append(out, pid)
		}
	}
	return out
}

func emptyResult() Result {
	return Result{
		CorrectedItems:    []cartdom.LineItem{},
		Warnings:          Warnings{},
		RemovedProductIDs: []string{},
		CheckoutAllowed:   true,
	}
}

// AdjustResult is the outcome of an interactive quantity change.
type AdjustResult struct {
	ProductID string `json:"productId"`
	// Quantity is the accepted (or clamped) quantity now in the cart.
	Quantity int `json:"qty"`
	// Warning is empty when the request was accepted as-is.
	Warning string `json:"warning,omitempty"`
	Clamped bool   `json:"clamped"`
	// Removed is set when the product had no stock left at all.
	Removed bool `json:"removed,omitempty"`
}

// GateDecision is the pre-checkout verdict.
type GateDecision struct {
	Proceed bool   `json:"proceed"`
	Notice  string `json:"notice,omitempty"`
	Result  Result `json:"result"`
}
