// Package checkout drives a session's cart through delivery details, payment
// method selection, a simulated payment and confirmation.
//
// The Flow is a small state machine guarded by a mutex. Payment runs as an
// Attempt whose Run method blocks in the caller's goroutine; the result is
// handed back through Complete, which discards results from attempts that
// were cancelled or superseded.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/chili-mate/internal/pricing"
	"github.com/kingrea/chili-mate/internal/session"
)

// State enumerates checkout phases.
type State string

const (
	StateEmpty            State = "empty"
	StateCollectingInfo   State = "collecting_info"
	StateSelectingPayment State = "selecting_payment"
	StateProcessing       State = "processing"
	StateConfirmed        State = "confirmed"
	StateFailed           State = "failed"
)

// Flow owns the in-progress or completed order for one session.
type Flow struct {
	mu       sync.Mutex
	sess     *session.Session
	rules    pricing.Rules
	clock    func() time.Time
	state    State
	delivery DeliveryInfo
	method   PaymentMethod
	details  PaymentDetails
	order    *Order
	failure  *PaymentFailure
	attempt  *Attempt
	// paid holds the cart entry IDs snapshotted into the pending order.
	paid []string
}

// Option customizes a Flow.
type Option func(*Flow)

// WithRules overrides the default shipping rules.
func WithRules(rules pricing.Rules) Option {
	return func(f *Flow) {
		f.rules = rules
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(f *Flow) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// New binds a checkout flow to a session.
func New(sess *session.Session, opts ...Option) (*Flow, error) {
	if sess == nil {
		return nil, fmt.Errorf("checkout: session is required")
	}
	flow := &Flow{
		sess:  sess,
		rules: pricing.DefaultRules(),
		clock: time.Now,
		state: StateEmpty,
	}
	for _, opt := range opts {
		opt(flow)
	}
	if err := flow.rules.Validate(); err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	return flow, nil
}

// State reports the current phase. With no order held and an empty cart the
// flow is always Empty, whatever phase it was in before.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentLocked()
}

func (f *Flow) currentLocked() State {
	if f.order == nil && f.sess.CartCount() == 0 && f.state != StateFailed {
		f.state = StateEmpty
	}
	return f.state
}

// Rules returns the shipping rules in effect.
func (f *Flow) Rules() pricing.Rules {
	return f.rules
}

// Summary prices the session's current cart.
func (f *Flow) Summary() pricing.Summary {
	return f.rules.Quote(f.sess.CartProducts())
}

// Start opens the delivery form. It is a no-op while the form or payment
// selection is already open.
func (f *Flow) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.currentLocked() {
	case StateEmpty:
		if f.sess.CartCount() == 0 {
			return ErrEmptyCartCheckout
		}
		f.state = StateCollectingInfo
		return nil
	case StateCollectingInfo, StateSelectingPayment:
		return nil
	default:
		return f.invalidLocked("start")
	}
}

// SubmitDelivery validates the delivery form and moves on to payment selection.
func (f *Flow) SubmitDelivery(info DeliveryInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentLocked() != StateCollectingInfo {
		return f.invalidLocked("submit delivery")
	}
	if err := info.Validate(); err != nil {
		return err
	}
	f.delivery = info.Normalized()
	f.state = StateSelectingPayment
	return nil
}

// SelectPayment records the payment method and its sub-fields.
func (f *Flow) SelectPayment(method PaymentMethod, details PaymentDetails) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentLocked() != StateSelectingPayment {
		return f.invalidLocked("select payment")
	}
	if !method.Valid() {
		return &ValidationError{Fields: map[string]string{"method": "is not a supported payment method"}}
	}
	f.method = method
	f.details = details
	return nil
}

// BeginPayment snapshots the priced cart into a pending order and returns the
// attempt that will carry it through the processor.
func (f *Flow) BeginPayment(ctx context.Context) (*Attempt, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentLocked() != StateSelectingPayment {
		return nil, f.invalidLocked("begin payment")
	}
	if !f.method.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"method": "is required"}}
	}
	items := f.sess.CartProducts()
	if len(items) == 0 {
		return nil, ErrEmptyCartCheckout
	}
	summary := f.rules.Quote(items)
	order := Order{
		Subtotal: summary.Subtotal,
		Shipping: summary.Shipping,
		Amount:   summary.Total,
		Method:   f.method,
		Details:  f.details,
		Delivery: f.delivery,
		Items:    items,
		Status:   OrderPending,
	}
	attemptCtx, cancel := context.WithCancel(ctx)
	attempt := &Attempt{
		id:     uuid.NewString(),
		ctx:    attemptCtx,
		cancel: cancel,
		order:  order.clone(),
	}
	f.order = &order
	f.failure = nil
	f.attempt = attempt
	f.paid = f.paid[:0]
	for _, e := range f.sess.Cart() {
		f.paid = append(f.paid, e.ID)
	}
	f.state = StateProcessing
	return attempt, nil
}

// Complete applies a processor result to the flow.
func (f *Flow) Complete(res Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempt == nil || f.attempt.id != res.AttemptID || f.state != StateProcessing {
		return ErrStaleAttempt
	}
	attempt := f.attempt
	f.attempt = nil
	attempt.cancel()
	if res.Err != nil {
		f.failure = &PaymentFailure{
			AttemptID: attempt.id,
			Amount:    attempt.order.Amount,
			Method:    attempt.order.Method,
			Reason:    res.Err,
			At:        f.clock(),
		}
		f.order = nil
		f.state = StateFailed
		return nil
	}
	order := attempt.order.clone()
	order.ID = res.Receipt.OrderID
	order.Timestamp = res.Receipt.PaidAt
	if order.Timestamp.IsZero() {
		order.Timestamp = f.clock()
	}
	order.Status = OrderSuccess
	f.order = &order
	f.state = StateConfirmed
	return nil
}

// CancelPayment abandons the running attempt and returns to payment selection.
func (f *Flow) CancelPayment() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateProcessing || f.attempt == nil {
		return f.invalidLocked("cancel payment")
	}
	f.attempt.cancel()
	f.attempt = nil
	f.order = nil
	f.state = StateSelectingPayment
	return nil
}

// RetryPayment returns a failed flow to payment selection.
func (f *Flow) RetryPayment() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateFailed {
		return f.invalidLocked("retry payment")
	}
	f.failure = nil
	if f.sess.CartCount() == 0 {
		f.state = StateEmpty
		return ErrEmptyCartCheckout
	}
	f.state = StateSelectingPayment
	return nil
}

// ReturnHome closes a finished checkout. A confirmed order takes its paid
// entries out of the cart; a failed one leaves the cart as it was.
func (f *Flow) ReturnHome() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateConfirmed && f.state != StateFailed {
		return f.invalidLocked("return home")
	}
	if f.state == StateConfirmed {
		for _, id := range f.paid {
			f.sess.RemoveCartEntry(id)
		}
	}
	f.resetLocked()
	return nil
}

// Back steps one phase back from payment selection or the delivery form.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.currentLocked() {
	case StateSelectingPayment:
		f.state = StateCollectingInfo
	case StateCollectingInfo:
		f.state = StateEmpty
	default:
		return f.invalidLocked("back")
	}
	return nil
}

// Order returns a copy of the held order, if any.
func (f *Flow) Order() (Order, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.order == nil {
		return Order{}, false
	}
	return f.order.clone(), true
}

// Failure returns the last payment failure, if any.
func (f *Flow) Failure() *PaymentFailure {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure == nil {
		return nil
	}
	failure := *f.failure
	return &failure
}

// Delivery returns the accepted delivery details.
func (f *Flow) Delivery() DeliveryInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delivery
}

// Payment returns the selected method and details.
func (f *Flow) Payment() (PaymentMethod, PaymentDetails) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method, f.details
}

func (f *Flow) resetLocked() {
	if f.attempt != nil {
		f.attempt.cancel()
	}
	f.attempt = nil
	f.order = nil
	f.failure = nil
	f.paid = nil
	f.delivery = DeliveryInfo{}
	f.method = ""
	f.details = PaymentDetails{}
	f.state = StateEmpty
}

func (f *Flow) invalidLocked(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, f.state)
}

// Attempt is one run of the payment processor.
type Attempt struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	order  Order
}

// ID identifies the attempt.
func (a *Attempt) ID() string {
	return a.id
}

// Order returns the pending order the attempt is paying for.
func (a *Attempt) Order() Order {
	return a.order.clone()
}

// Context is cancelled when the attempt is abandoned.
func (a *Attempt) Context() context.Context {
	return a.ctx
}

// Run blocks on the processor and packages its outcome for Complete.
func (a *Attempt) Run(p Processor) Result {
	if p == nil {
		return Result{AttemptID: a.id, Err: fmt.Errorf("checkout: processor is required")}
	}
	receipt, err := p.Process(a.ctx, a.Order())
	if err == nil && a.ctx.Err() != nil {
		err = fmt.Errorf("%w: %v", ErrPaymentCancelled, a.ctx.Err())
	}
	return Result{AttemptID: a.id, Receipt: receipt, Err: err}
}

// Result is a processor outcome tagged with its attempt.
type Result struct {
	AttemptID string
	Receipt   Receipt
	Err       error
}
