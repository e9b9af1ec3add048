package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kingrea/chili-mate/internal/catalog"
)

var (
	// ErrEmptyCartCheckout is returned when checkout starts with nothing in the cart.
	ErrEmptyCartCheckout = errors.New("checkout: cart is empty")
	// ErrInvalidTransition is returned when an operation does not apply to the current state.
	ErrInvalidTransition = errors.New("checkout: invalid transition")
	// ErrStaleAttempt is returned when a result arrives for an attempt that is no longer current.
	ErrStaleAttempt = errors.New("checkout: stale payment attempt")
	// ErrPaymentCancelled is returned by processors when the attempt context ends early.
	ErrPaymentCancelled = errors.New("checkout: payment cancelled")
	// ErrPaymentDeclined is the simulated processor's failure outcome.
	ErrPaymentDeclined = errors.New("checkout: payment declined")
)

// ValidationError carries one message per invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "checkout: validation failed"
	}
	names := e.FieldNames()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %s", name, e.Fields[name]))
	}
	return "checkout: validation failed: " + strings.Join(parts, "; ")
}

// FieldNames returns the invalid field names in sorted order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// PaymentFailure records an attempt that did not produce an order.
type PaymentFailure struct {
	AttemptID string
	Amount    catalog.Money
	Method    PaymentMethod
	Reason    error
	At        time.Time
}

func (f *PaymentFailure) Error() string {
	if f.Reason == nil {
		return "checkout: payment failed"
	}
	return fmt.Sprintf("checkout: payment failed: %v", f.Reason)
}

func (f *PaymentFailure) Unwrap() error {
	return f.Reason
}
