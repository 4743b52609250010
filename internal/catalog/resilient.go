package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resonate/internal/middleware"
	"resonate/internal/models"
	"resonate/internal/observability"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// ResilienceConfig bounds how hard the upstream catalog is hit.
type ResilienceConfig struct {
	Timeout         time.Duration
	RatePerSecond   float64
	Burst           int
	BreakerFailures int
	// BreakerCooldown is how long the breaker stays open before probing again.
	BreakerCooldown time.Duration
}

// Resilient wraps a Lookup with a token-bucket limiter, a circuit breaker and a per-call timeout.
// It does not retry.
type Resilient struct {
	next    Lookup
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*Result]
	timeout time.Duration
}

// NewResilient wraps next.
func NewResilient(next Lookup, cfg ResilienceConfig) *Resilient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	failures := uint32(cfg.BreakerFailures)
	observability.CatalogBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			middleware.Logger.Warn("Catalog circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			observability.CatalogBreakerState.Set(breakerStateValue(to))
		},
	})

	return &Resilient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		cb:      cb,
		timeout: cfg.Timeout,
	}
}

// Lookup applies the limiter, breaker and timeout around the wrapped lookup.
func (r *Resilient) Lookup(ctx context.Context, query string, kind models.CatalogKind) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, end := observability.StartSpan(ctx, "catalog.lookup",
		attribute.String("catalog.kind", string(kind)),
	)

	start := time.Now()
	res, err := r.lookup(ctx, query, kind)
	observability.CatalogLatency.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	end(err)

	outcome := "hit"
	switch {
	case errors.Is(err, ErrUnavailable):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	case res == nil:
		outcome = "miss"
	}
	observability.CatalogLookups.WithLabelValues(string(kind), outcome).Inc()
	return res, err
}

func (r *Resilient) lookup(ctx context.Context, query string, kind models.CatalogKind) (*Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limited: %v", ErrUnavailable, err)
	}

	res, err := r.cb.Execute(func() (*Result, error) {
		return r.next.Lookup(ctx, query, kind)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, err
}

// State reports the breaker state.
func (r *Resilient) State() gobreaker.State {
	return r.cb.State()
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
