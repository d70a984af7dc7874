// Package circuitbreaker stops calling an external sink after repeated
// failures and probes it again after a cool-down.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current state of the circuit breaker.
type State int

const (
	// StateClosed lets requests through.
	StateClosed State = iota
	// StateOpen blocks requests.
	StateOpen
	// StateHalfOpen lets a limited number of probe requests through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when half-open probes are exhausted.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config holds circuit breaker configuration.
type Config struct {
	Name string

	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int

	// SuccessThreshold is the number of half-open successes that closes it.
	SuccessThreshold int

	// Timeout is the open period before probing.
	Timeout time.Duration

	MaxHalfOpenRequests int

	OnStateChange func(name string, from, to State)

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		FailureThreshold:    5,
		SuccessThreshold:    1,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
		Now:                 time.Now,
	}
}

// Option is a functional option for configuring the circuit breaker.
type Option func(*Config)

// WithFailureThreshold sets the failure threshold.
func WithFailureThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

// WithTimeout sets the open period.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithOnStateChange sets the state change callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.Now = now
		}
	}
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	config Config

	mu                   sync.Mutex
	state                State
	consecutiveFailures  int
	consecutiveSuccesses int
	openedAt             time.Time
	halfOpenRequests     int
}

// New creates a new CircuitBreaker with the given name and options.
func New(name string, opts ...Option) *CircuitBreaker {
	config := DefaultConfig(name)
	for _, opt := range opts {
		opt(&config)
	}
	return &CircuitBreaker{config: config}
}

// Execute runs fn if the circuit allows it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.afterRequest(err)
	return err
}

// ExecuteWithFallback runs fn, calling fallback when the circuit rejects it.
func (cb *CircuitBreaker) ExecuteWithFallback(ctx context.Context, fn func(context.Context) error, fallback func(error) error) error {
	err := cb.Execute(ctx, fn)
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
		return fallback(err)
	}
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.config.Now().Sub(cb.openedAt) >= cb.config.Timeout {
			cb.setState(StateHalfOpen)
			cb.halfOpenRequests = 1
			return nil
		}
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenRequests < cb.config.MaxHalfOpenRequests {
			cb.halfOpenRequests++
			return nil
		}
		return ErrTooManyRequests
	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveFailures++
		cb.consecutiveSuccesses = 0
		if cb.state == StateHalfOpen || cb.consecutiveFailures >= cb.config.FailureThreshold {
			cb.openedAt = cb.config.Now()
			cb.setState(StateOpen)
		}
		return
	}

	cb.consecutiveSuccesses++
	cb.consecutiveFailures = 0
	if cb.state == StateHalfOpen && cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.setState(StateClosed)
	}
}

func (cb *CircuitBreaker) setState(newState State) {
	if cb.state == newState {
		return
	}
	old := cb.state
	cb.state = newState
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
	cb.halfOpenRequests = 0
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, old, newState)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the name of the circuit breaker.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// RankingBreaker returns a breaker for the external ranking store.
func RankingBreaker(threshold int, timeout time.Duration, onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(
		"ranking",
		WithFailureThreshold(threshold),
		WithTimeout(timeout),
		WithOnStateChange(onStateChange),
	)
}
