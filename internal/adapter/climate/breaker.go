package climate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
	"github.com/couchcryptid/farm-yield-sim/internal/observability"
	"github.com/sony/gobreaker"
)

// BreakerSettings configures Breaker.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32        // consecutive timeouts that open the breaker
	OpenTimeout time.Duration // time spent open before a half-open probe
}

// Breaker decorates a Predictor with a circuit breaker. Only the oracle's
// per-call timeout (domain.ErrPredictionTimeout) counts as a failure; a
// deadline set by the caller does not. While the breaker is open, predictions
// are answered with domain.ErrUnavailable without reaching the inner predictor.
type Breaker struct {
	inner domain.Predictor
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker wraps inner.
func NewBreaker(inner domain.Predictor, settings BreakerSettings, logger *slog.Logger, metrics *observability.Metrics) *Breaker {
	if settings.Name == "" {
		settings.Name = "climate"
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	gauge := metrics.BreakerState.WithLabelValues(settings.Name)
	gauge.Set(stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    settings.Name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= settings.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			var te *timeoutError
			return !errors.As(err, &te)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("predictor breaker state changed", "name", name, "from", from.String(), "to", to.String())
			gauge.Set(stateValue(to))
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

// Predict forwards to the inner predictor unless the breaker is open.
func (b *Breaker) Predict(ctx context.Context, dim domain.Dimension, lat, lon float64, day domain.DayOfYear) (float64, error) {
	res, err := b.cb.Execute(func() (any, error) {
		v, err := b.inner.Predict(ctx, dim, lat, lon, day)
		if errors.Is(err, context.DeadlineExceeded) && errors.Is(context.Cause(ctx), domain.ErrPredictionTimeout) {
			return v, &timeoutError{err: err}
		}
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	if err != nil {
		return 0, err
	}
	return res.(float64), nil
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// CheckReadiness delegates to the inner predictor when it reports readiness.
func (b *Breaker) CheckReadiness(ctx context.Context) error {
	if rc, ok := b.inner.(interface{ CheckReadiness(context.Context) error }); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// timeoutError marks a per-call timeout for the breaker's failure count.
type timeoutError struct{ err error }

func (e *timeoutError) Error() string { return e.err.Error() }
func (e *timeoutError) Unwrap() error { return e.err }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
