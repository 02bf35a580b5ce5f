package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrAllFailed is returned when every provider in a [FallbackGroup] fails or
// has an open circuit breaker.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig tunes the per-provider circuit breakers of a
// [FallbackGroup]. Zero values take the breaker defaults.
type FallbackConfig struct {
	// MaxFailures is the consecutive-failure count that trips a provider's
	// breaker.
	MaxFailures int

	// ResetTimeout is how long a tripped provider stays bypassed before a
	// probe call is allowed.
	ResetTimeout time.Duration
}

// breaker builds the circuit breaker for one named provider entry.
func (cfg FallbackConfig) breaker(name string) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:         name,
		MaxFailures:  cfg.MaxFailures,
		ResetTimeout: cfg.ResetTimeout,
	})
}

// fallbackEntry pairs a provider value with its dedicated circuit breaker.
type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup wraps a primary and zero or more fallback instances of the
// same provider type. When the primary fails (or its circuit breaker is open),
// the next healthy fallback is tried in registration order.
//
// FallbackGroup is safe for concurrent use once all fallbacks are registered.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first entry.
// Additional fallbacks are registered via [FallbackGroup.AddFallback].
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	return &FallbackGroup[T]{
		entries: []fallbackEntry[T]{{
			name:    primaryName,
			value:   primary,
			breaker: cfg.breaker(primaryName),
		}},
		cfg: cfg,
	}
}

// AddFallback appends a fallback provider. Fallbacks are tried in the order
// they are added, after the primary.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	fg.entries = append(fg.entries, fallbackEntry[T]{
		name:    name,
		value:   fallback,
		breaker: fg.cfg.breaker(name),
	})
}

// ExecuteWithResult tries fn against each entry in the group until one
// succeeds, returning the first successful result. Entries with an open
// circuit breaker are skipped. Returns [ErrAllFailed] wrapped with the last
// error when every entry fails.
//
// This is a package-level function because Go does not support method-level
// type parameters.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range fg.entries {
		entry := &fg.entries[i]
		var result R
		err := entry.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(entry.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("skipping provider (circuit open)", "provider", entry.name)
		} else {
			slog.Warn("provider failed, trying next",
				"provider", entry.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
