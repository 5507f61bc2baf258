package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"onboarding/pkg/platform/circuit"
)

const tracerName = "onboarding/providers"

// Caller bounds every vendor call with a timeout, traces it and records its
// latency. Failures that are not already a *ProviderError are categorized.
type Caller struct {
	timeout time.Duration
	tracer  trace.Tracer
	metrics *Metrics

	// breakerOpts is nil when circuit breaking is off.
	breakerOpts []circuit.Option
	mu          sync.Mutex
	breakers    map[string]*circuit.Breaker
}

type CallerOption func(*Caller)

func WithTracerProvider(tp trace.TracerProvider) CallerOption {
	return func(c *Caller) {
		c.tracer = tp.Tracer(tracerName)
	}
}

func WithCallMetrics(m *Metrics) CallerOption {
	return func(c *Caller) {
		c.metrics = m
	}
}

// WithCircuitBreaker gives every provider its own breaker. Retryable
// failures count against it; while it is open calls fail fast as an outage.
func WithCircuitBreaker(opts ...circuit.Option) CallerOption {
	return func(c *Caller) {
		c.breakerOpts = append([]circuit.Option{}, opts...)
	}
}

// NewCaller creates a Caller. A zero timeout leaves calls unbounded.
func NewCaller(timeout time.Duration, opts ...CallerOption) *Caller {
	c := &Caller{
		timeout:  timeout,
		tracer:   otel.Tracer(tracerName),
		breakers: make(map[string]*circuit.Breaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs fn under the call budget.
func (c *Caller) Do(ctx context.Context, provider, operation string, fn func(ctx context.Context) error) error {
	_, err := Call(ctx, c, provider, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call runs fn under the call budget of c and returns its value.
func Call[T any](ctx context.Context, c *Caller, provider, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := c.tracer.Start(ctx, "provider."+operation, trace.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	))
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	breaker := c.breaker(provider)
	var zero T
	if breaker != nil && !breaker.Allow() {
		err := NewProviderError(ErrorProviderOutage, provider, operation+" refused: circuit open", nil)
		c.metrics.IncrementError(provider, operation, err.Category)
		span.SetStatus(codes.Error, "circuit open")
		return zero, err
	}

	start := time.Now()
	v, err := fn(ctx)
	c.metrics.ObserveCall(provider, operation, time.Since(start))
	if err != nil {
		err = classify(ctx, provider, operation, err)
	}
	c.record(breaker, provider, err)
	if err == nil {
		return v, nil
	}

	category := GetCategory(err)
	c.metrics.IncrementError(provider, operation, category)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(category))
	return zero, err
}

func (c *Caller) breaker(provider string) *circuit.Breaker {
	if c.breakerOpts == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.breakers[provider]
	if !ok {
		b = circuit.New(provider, c.breakerOpts...)
		c.breakers[provider] = b
	}
	return b
}

// record feeds the outcome to the breaker. A vendor that answered, even with
// a non-retryable error, counts as up.
func (c *Caller) record(b *circuit.Breaker, provider string, err error) {
	if b == nil {
		return
	}
	if err != nil && IsRetryable(err) {
		if _, change := b.RecordFailure(); change.Opened {
			c.metrics.IncrementCircuit(provider, string(circuit.StateOpen))
		}
		return
	}
	if _, change := b.RecordSuccess(); change.Closed {
		c.metrics.IncrementCircuit(provider, string(circuit.StateClosed))
	}
}

func classify(ctx context.Context, provider, operation string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewProviderError(ErrorTimeout, provider, operation+" timed out", err)
	}
	return NewProviderError(ErrorProviderOutage, provider, operation+" failed", err)
}
