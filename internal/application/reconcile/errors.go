// internal/application/reconcile/errors.go
package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLookupFailure means the stock check itself could not run.
	// It is never interpreted as zero stock.
	ErrLookupFailure = errors.New("reconcile: stock lookup failed")

	ErrCartReadFailure  = errors.New("reconcile: cart read failed")
	ErrWriteFailure     = errors.New("reconcile: cart write failed")
	ErrInvalidProductID = errors.New("reconcile: productId is empty")
	ErrInvalidQuantity  = errors.New("reconcile: quantity must be >= 1")
	ErrNotConfigured    = errors.New("reconcile: engine is not configured")
)

// LookupError carries the ids that were being looked up when the lookup failed.
type LookupError struct {
	ProductIDs []string
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("reconcile: stock lookup failed ids=[%s]: %v", strings.Join(e.ProductIDs, ","), e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

func (e *LookupError) Is(target error) bool { return target == ErrLookupFailure }

// WriteOp names the Cart Store mutation that failed.
type WriteOp string

const (
	OpSetQuantity WriteOp = "setQuantity"
	OpRemoveItem  WriteOp = "removeItem"
)

// WriteError is a failed Cart Store mutation for one product.
type WriteError struct {
	ProductID string
	Op        WriteOp
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("reconcile: %s failed productId=%s: %v", e.Op, e.ProductID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWriteFailure }

// IsLookupFailure reports whether err is (or wraps) a stock lookup failure.
func IsLookupFailure(err error) bool {
	return errors.Is(err, ErrLookupFailure)
}
