package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart rejects a checkout with no items before anything else runs.
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

	// ErrProductUnavailable means at least one requested product is missing
	// or inactive; the whole checkout is rejected, never partially fulfilled.
	ErrProductUnavailable = errors.New("one or more products are no longer available")

	// ErrSessionFailed means the payment provider could not open a session.
	// The pending order survives as an auditable orphaned draft.
	ErrSessionFailed = errors.New("failed to create payment session")
)

// StockError names the product whose requested quantity exceeds live stock.
type StockError struct {
	ProductName string
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (%d available)", e.ProductName, e.Available)
}

// ReconciliationGapError marks the known at-least-once window: a payment
// session was opened but the order failed to record it. It must be logged
// as its own error class so alerting can pick it up; recovery runs
// out-of-band via the session metadata.
type ReconciliationGapError struct {
	OrderID   string
	SessionID string
	Cause     error
}

func (e *ReconciliationGapError) Error() string {
	return fmt.Sprintf("order %s does not record opened payment session %s: %v", e.OrderID, e.SessionID, e.Cause)
}

func (e *ReconciliationGapError) Unwrap() error { return e.Cause }

// ValidationError covers malformed checkout input (addresses, quantities).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
