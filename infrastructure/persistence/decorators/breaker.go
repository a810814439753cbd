package decorators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
)

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Requests allowed while half-open
	Interval         time.Duration // Closed-state window after which counts reset
	Timeout          time.Duration // Open duration before trying half-open
	FailureThreshold float64       // Failure ratio that trips the breaker
	MinRequests      uint32        // Requests needed before the ratio is evaluated
}

// DefaultBreakerConfig returns a default configuration.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerStore rejects remote calls with ErrCircuitOpen while the remote
// store keeps failing.
type BreakerStore struct {
	inner ports.RemoteStore
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerStore creates a circuit breaker decorator.
func NewBreakerStore(
	inner ports.RemoteStore,
	config BreakerConfig,
	logger *zap.Logger,
	metrics *observability.Collector,
) *BreakerStore {
	metrics.SetBreakerState(config.Name, stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, stateValue(to))
		},
		// A cancelled context is the caller giving up (a superseded
		// refetch), not the remote store failing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerStore{inner: inner, cb: cb}
}

// State returns the breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

// Query delegates through the breaker.
func (s *BreakerStore) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	return s.rows(func() ([]ports.Row, error) {
		return s.inner.Query(ctx, table, q)
	})
}

// Insert delegates through the breaker.
func (s *BreakerStore) Insert(ctx context.Context, table string, rows []ports.Row) ([]ports.Row, error) {
	return s.rows(func() ([]ports.Row, error) {
		return s.inner.Insert(ctx, table, rows)
	})
}

// Update delegates through the breaker.
func (s *BreakerStore) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	return s.rows(func() ([]ports.Row, error) {
		return s.inner.Update(ctx, table, patch, match)
	})
}

// Delete delegates through the breaker.
func (s *BreakerStore) Delete(ctx context.Context, table string, match ports.Filter) error {
	_, err := s.rows(func() ([]ports.Row, error) {
		return nil, s.inner.Delete(ctx, table, match)
	})
	return err
}

func (s *BreakerStore) rows(fn func() ([]ports.Row, error)) ([]ports.Row, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	rows, _ := out.([]ports.Row)
	return rows, nil
}

func stateValue(st gobreaker.State) float64 {
	switch st {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
