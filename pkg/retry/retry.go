// Package retry runs operations with exponential backoff and jitter.
// It is used for calls to the ranking store and the history database.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryableError marks an error as worth another attempt.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so the default policy retries it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	return errors.As(err, &retryableErr)
}

// PermanentError stops retries immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so it is never retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent checks if an error is permanent.
func IsPermanent(err error) bool {
	var permanentErr *PermanentError
	return errors.As(err, &permanentErr)
}

// Config holds retry configuration.
type Config struct {
	// MaxAttempts includes the first attempt.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFactor adds randomness to delays (0.0 = none, 1.0 = full).
	JitterFactor float64

	// RetryIf decides whether err is retried. If nil, only RetryableError is.
	RetryIf func(error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Option is a functional option for configuring retries.
type Option func(*Config)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.InitialDelay = d
		}
	}
}

// WithMaxDelay caps the delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0).
func WithJitter(j float64) Option {
	return func(c *Config) {
		if j >= 0 && j <= 1.0 {
			c.JitterFactor = j
		}
	}
}

// WithRetryIf sets a custom retry predicate.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) {
		c.RetryIf = fn
	}
}

// WithOnRetry sets a callback called before each retry.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// Retrier manages retry operations.
type Retrier struct {
	config Config
}

// New creates a new Retrier with the given options.
func New(opts ...Option) *Retrier {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Retrier{config: config}
}

// Do executes operation until it succeeds, returns a non-retryable error,
// runs out of attempts or ctx is done. Marker wrappers are stripped from the
// returned error.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = unwrapMarker(err)

		if IsPermanent(err) || !r.shouldRetry(err) || attempt == r.config.MaxAttempts {
			return lastErr
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, delay)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}

	return lastErr
}

func (r *Retrier) shouldRetry(err error) bool {
	if r.config.RetryIf != nil {
		return r.config.RetryIf(err)
	}
	return IsRetryable(err)
}

func (r *Retrier) delay(attempt int) time.Duration {
	d := float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1))
	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}
	if r.config.JitterFactor > 0 {
		d += d * r.config.JitterFactor * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func unwrapMarker(err error) error {
	var r *RetryableError
	if errors.As(err, &r) && err == error(r) {
		return r.Err
	}
	var p *PermanentError
	if errors.As(err, &p) && err == error(p) {
		return p.Err
	}
	return err
}

// Do is a convenience function that creates a Retrier and executes the operation.
func Do(ctx context.Context, operation func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, operation)
}

// RankingRetrier returns a Retrier for the external ranking store.
func RankingRetrier(attempts int) *Retrier {
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(2*time.Second),
		WithJitter(0.2),
	)
}

// DatabaseRetrier returns a Retrier for history database writes.
func DatabaseRetrier() *Retrier {
	return New(
		WithMaxAttempts(3),
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(1*time.Second),
		WithJitter(0.05),
	)
}
