// Package persistence holds decorators shared by the workflow saver backends.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"flowcanvas/application/ports"
	"flowcanvas/domain/core/aggregates"
	pkgerrors "flowcanvas/pkg/errors"
)

// CircuitBreakerConfig holds configuration for the saver circuit breaker
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// CircuitBreakerSaver stops calling a failing saver until it recovers
type CircuitBreakerSaver struct {
	next ports.WorkflowSaver
	cb   *gobreaker.CircuitBreaker
	name string
}

// NewCircuitBreakerSaver wraps next in a circuit breaker
func NewCircuitBreakerSaver(next ports.WorkflowSaver, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerSaver {
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
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A missing save is an answer, not a failure
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsNotFound(err) || errors.Is(err, context.Canceled)
		},
	})
	return &CircuitBreakerSaver{next: next, cb: cb, name: config.Name}
}

// State returns the breaker state
func (s *CircuitBreakerSaver) State() gobreaker.State {
	return s.cb.State()
}

// Save stores a snapshot through the breaker
func (s *CircuitBreakerSaver) Save(ctx context.Context, req ports.SaveRequest) (ports.SaveReceipt, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Save(ctx, req)
	})
	if err != nil {
		return ports.SaveReceipt{}, s.translate(err)
	}
	return out.(ports.SaveReceipt), nil
}

// ListVersions lists saved snapshots through the breaker
func (s *CircuitBreakerSaver) ListVersions(ctx context.Context, canvasID aggregates.CanvasID, limit int) ([]ports.SavedVersion, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.ListVersions(ctx, canvasID, limit)
	})
	if err != nil {
		return nil, s.translate(err)
	}
	return out.([]ports.SavedVersion), nil
}

// LoadLatest loads the newest snapshot through the breaker
func (s *CircuitBreakerSaver) LoadLatest(ctx context.Context, canvasID aggregates.CanvasID) (*ports.SavedWorkflow, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.LoadLatest(ctx, canvasID)
	})
	if err != nil {
		return nil, s.translate(err)
	}
	return out.(*ports.SavedWorkflow), nil
}

func (s *CircuitBreakerSaver) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError(s.name).WithCause(err)
	}
	return err
}
