// internal/application/reconcile/warnings.go
package reconcile

// Warnings maps productId -> user-facing message.
// Entries are replaced, never merged, and cleared once the quantity is valid again.
type Warnings map[string]string

func (w Warnings) set(productID, msg string) {
	w[productID] = msg
}

func (w Warnings) clear(productID string) {
	delete(w, productID)
}

// Empty reports whether no product has an outstanding warning.
func (w Warnings) Empty() bool {
	return len(w) == 0
}

// ApplyAdjust folds an interactive AdjustResult into a caller-held warning set:
// a clamp replaces the product's message, an accepted quantity clears it.
func (w Warnings) ApplyAdjust(res AdjustResult) {
	if w == nil || res.ProductID == "" {
		return
	}
	if res.Warning != "" {
		w.set(res.ProductID, res.Warning)
		return
	}
	w.clear(res.ProductID)
}
