package checkout

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// DefaultLatency is how long the simulated processor takes to answer.
const DefaultLatency = 3 * time.Second

// Receipt is what a processor returns for an accepted payment.
type Receipt struct {
	OrderID string
	PaidAt  time.Time
}

// Processor settles a pending order.
type Processor interface {
	Process(ctx context.Context, order Order) (Receipt, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, order Order) (Receipt, error)

// Process calls fn.
func (fn ProcessorFunc) Process(ctx context.Context, order Order) (Receipt, error) {
	return fn(ctx, order)
}

// SimulatedProcessor waits a fixed latency and then accepts or declines.
type SimulatedProcessor struct {
	latency     time.Duration
	failureRate float64
	clock       func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// ProcessorOption customizes a SimulatedProcessor.
type ProcessorOption func(*SimulatedProcessor)

// WithLatency sets the simulated delay. Negative values are treated as zero.
func WithLatency(d time.Duration) ProcessorOption {
	return func(p *SimulatedProcessor) {
		if d < 0 {
			d = 0
		}
		p.latency = d
	}
}

// WithFailureRate sets the probability in [0,1] that a payment is declined.
func WithFailureRate(rate float64) ProcessorOption {
	return func(p *SimulatedProcessor) {
		switch {
		case rate < 0:
			rate = 0
		case rate > 1:
			rate = 1
		}
		p.failureRate = rate
	}
}

// WithProcessorClock injects the clock used for order IDs and receipts.
func WithProcessorClock(clock func() time.Time) ProcessorOption {
	return func(p *SimulatedProcessor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithRand injects the random source used for declines and order numbers.
func WithRand(rng *rand.Rand) ProcessorOption {
	return func(p *SimulatedProcessor) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// NewSimulatedProcessor returns a processor with the default latency that never declines.
func NewSimulatedProcessor(opts ...ProcessorOption) *SimulatedProcessor {
	p := &SimulatedProcessor{
		latency: DefaultLatency,
		clock:   time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Latency reports the configured delay.
func (p *SimulatedProcessor) Latency() time.Duration {
	return p.latency
}

// Process waits for the latency or the context, whichever ends first.
func (p *SimulatedProcessor) Process(ctx context.Context, order Order) (Receipt, error) {
	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, fmt.Errorf("%w: %v", ErrPaymentCancelled, ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrPaymentCancelled, err)
	}

	p.mu.Lock()
	declined := p.failureRate > 0 && p.rng.Float64() < p.failureRate
	suffix := 1000 + p.rng.Intn(9000)
	p.mu.Unlock()

	if declined {
		return Receipt{}, fmt.Errorf("%w: %s for %d", ErrPaymentDeclined, order.Method.Label(), order.Amount)
	}
	now := p.clock()
	return Receipt{
		OrderID: FormatOrderID(now, suffix),
		PaidAt:  now,
	}, nil
}

// FormatOrderID builds ORD-YYYYMMDD-NNNN.
func FormatOrderID(at time.Time, suffix int) string {
	return fmt.Sprintf("ORD-%s-%04d", at.Format("20060102"), suffix)
}
