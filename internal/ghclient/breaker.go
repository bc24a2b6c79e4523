package ghclient

import (
	"context"
	"errors"
	"net/http"

	gobreaker "github.com/sony/gobreaker/v2"

	"repomatch/internal/config"
	"repomatch/internal/logging"
	"repomatch/internal/metrics"
)

// newBreaker returns nil when the breaker is disabled.
func newBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker[[]byte] {
	if !cfg.Enabled {
		return nil
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= failures
			if trip {
				logging.Warn("circuit_open", map[string]any{"name": name, "failures": counts.ConsecutiveFailures})
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info("circuit_state", map[string]any{"name": name, "from": from.String(), "to": to.String()})
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: isSuccessful,
	})
}

// isSuccessful keeps client-side outcomes from tripping the breaker:
// missing resources, rejected queries and cancelled callers.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusNotFound || se.Code == http.StatusUnprocessableEntity
	}
	return false
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

func (c *HTTPClient) execute(fn func() ([]byte, error)) ([]byte, error) {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Execute(fn)
}
