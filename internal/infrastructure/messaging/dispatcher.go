package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps an event handler.
type Middleware func(next shared.EventHandler) shared.EventHandler

// Dispatcher subscribes handlers to a bus with middleware, retries and a dead
// letter queue. It implements shared.EventSubscriber, so read models attach to
// it the same way they attach to the bus.
//
// Middleware added with Use applies to handlers subscribed afterwards.
type Dispatcher struct {
	bus         shared.EventSubscriber
	retrier     *retry.Retrier
	deadLetters *DeadLetterQueue
	logger      *slog.Logger

	mu          sync.RWMutex
	middlewares []Middleware
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Retrier reruns failing handlers. Nil means a single attempt.
	Retrier *retry.Retrier

	DeadLetterQueueSize int

	Logger *slog.Logger
}

// DefaultDispatcherConfig retries handlers up to three times.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Retrier: retry.New(
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(10*time.Millisecond),
			retry.WithRetryIf(func(error) bool { return true }),
		),
		DeadLetterQueueSize: 100,
	}
}

// NewDispatcher creates a dispatcher over bus.
func NewDispatcher(bus shared.EventSubscriber, config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Retrier == nil {
		config.Retrier = retry.New(retry.WithMaxAttempts(1))
	}
	return &Dispatcher{
		bus:         bus,
		retrier:     config.Retrier,
		deadLetters: NewDeadLetterQueue(config.DeadLetterQueueSize),
		logger:      config.Logger,
	}
}

// Use appends a middleware. The first one added runs outermost.
func (d *Dispatcher) Use(m Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, m)
}

// Register subscribes a named handler to one event type.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("dispatcher: handler %q is nil", name)
	}
	return d.bus.Subscribe(eventType, d.wrap(name, handler))
}

// RegisterAll subscribes a named handler to every event.
func (d *Dispatcher) RegisterAll(name string, handler shared.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("dispatcher: handler %q is nil", name)
	}
	return d.bus.SubscribeAll(d.wrap(name, handler))
}

// Subscribe implements shared.EventSubscriber.
func (d *Dispatcher) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return d.Register(eventType, string(eventType), handler)
}

// SubscribeAll implements shared.EventSubscriber.
func (d *Dispatcher) SubscribeAll(handler shared.EventHandler) error {
	return d.RegisterAll("all", handler)
}

// DeadLetterQueue returns events whose handlers kept failing.
func (d *Dispatcher) DeadLetterQueue() *DeadLetterQueue {
	return d.deadLetters
}

func (d *Dispatcher) wrap(name string, handler shared.EventHandler) shared.EventHandler {
	d.mu.RLock()
	chain := handler
	for i := len(d.middlewares) - 1; i >= 0; i-- {
		chain = d.middlewares[i](chain)
	}
	d.mu.RUnlock()

	return func(event shared.Event) error {
		attempts := 0
		err := d.retrier.Do(context.Background(), func(context.Context) error {
			attempts++
			return chain(event)
		})
		if err == nil {
			return nil
		}
		d.deadLetters.Add(DeadLetterEntry{
			Event:       event,
			HandlerName: name,
			Error:       err,
			Attempts:    attempts,
			FailedAt:    time.Now(),
		})
		return fmt.Errorf("handler %s failed after %d attempts: %w", name, attempts, err)
	}
}

// RecoveryMiddleware turns handler panics into errors.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs each handler run.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			if err != nil {
				logger.Warn("handler failed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", time.Since(start),
					"error", err,
				)
				return err
			}
			logger.Debug("handler completed",
				"event_type", event.EventType(),
				"aggregate_id", event.AggregateID(),
				"duration", time.Since(start),
			)
			return nil
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetterEntry is an event a handler gave up on.
type DeadLetterEntry struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue keeps the most recent failures, dropping the oldest.
type DeadLetterQueue struct {
	mu      sync.Mutex
	entries []DeadLetterEntry
	maxSize int
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &DeadLetterQueue{maxSize: maxSize}
}

// Add appends an entry.
func (q *DeadLetterQueue) Add(entry DeadLetterEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of the entries, oldest first.
func (q *DeadLetterQueue) Entries() []DeadLetterEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]DeadLetterEntry(nil), q.entries...)
}

// Size returns the number of entries.
func (q *DeadLetterQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Pop removes and returns the oldest entry.
func (q *DeadLetterQueue) Pop() (DeadLetterEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return DeadLetterEntry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}
