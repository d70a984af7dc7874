// Package messaging implements the in-process event bus used to fan domain
// events out to reporting and ranking collaborators.
package messaging

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

var (
	// ErrEventBusClosed is returned when operations are attempted on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrHandlerPanic wraps a recovered handler panic.
	ErrHandlerPanic = errors.New("handler panicked")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events to handlers registered in this process.
// In sync mode handlers run on the publisher's goroutine, in order.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	logger      *slog.Logger
	metrics     *EventBusMetrics
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs each handler on its own goroutine, bounded by WorkerPoolSize.
	AsyncMode bool

	// WorkerPoolSize is the number of concurrent workers for async processing.
	WorkerPoolSize int

	Logger *slog.Logger

	EnableMetrics bool
}

// DefaultInMemoryEventBusConfig returns the single-session defaults: synchronous
// delivery with metrics.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      false,
		WorkerPoolSize: 4,
		EnableMetrics:  true,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 4
	}

	bus := &InMemoryEventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		asyncMode:  config.AsyncMode,
		workerPool: make(chan struct{}, config.WorkerPoolSize),
		logger:     config.Logger,
		closeCh:    make(chan struct{}),
	}
	if config.EnableMetrics {
		bus.metrics = NewEventBusMetrics()
	}
	return bus
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed handler", "event_type", eventType)
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish sends an event to all subscribed handlers. Handler errors are logged
// and never returned.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.EventType())
		return nil
	}

	for _, handler := range handlers {
		if b.asyncMode {
			b.executeAsync(event, handler)
			continue
		}
		if err := b.execute(event, handler); err != nil {
			b.logger.Error("handler error", "event_type", event.EventType(), "error", err)
		}
	}
	return nil
}

func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.workerPool <- struct{}{}:
			defer func() { <-b.workerPool }()
		case <-b.closeCh:
			return
		}

		if err := b.execute(event, handler); err != nil {
			b.logger.Error("async handler error", "event_type", event.EventType(), "error", err)
		}
	}()
}

func (b *InMemoryEventBus) execute(event shared.Event, handler shared.EventHandler) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
		if b.metrics != nil {
			b.metrics.RecordHandlerExecution(event.EventType(), time.Since(start), err == nil)
		}
	}()
	return handler(event)
}

// Close stops accepting events and waits for async handlers to finish.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
	return nil
}

// Metrics returns the metrics tracker, or nil when disabled.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics tracks publish and handler counts.
type EventBusMetrics struct {
	mu sync.RWMutex

	published         map[shared.EventType]int64
	handlerExecutions int64
	handlerFailures   int64
	handlerDuration   time.Duration
}

// NewEventBusMetrics creates a new metrics tracker.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

// RecordPublish records a publish.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventType]++
}

// RecordHandlerExecution records a handler run.
func (m *EventBusMetrics) RecordHandlerExecution(_ shared.EventType, duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlerExecutions++
	m.handlerDuration += duration
	if !success {
		m.handlerFailures++
	}
}

// EventBusMetricsSnapshot is a point-in-time copy of the metrics.
type EventBusMetricsSnapshot struct {
	Published         map[shared.EventType]int64
	HandlerExecutions int64
	HandlerFailures   int64
	AverageDuration   time.Duration
}

// Snapshot returns a copy of current metrics.
func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	published := make(map[shared.EventType]int64, len(m.published))
	for k, v := range m.published {
		published[k] = v
	}
	var avg time.Duration
	if m.handlerExecutions > 0 {
		avg = m.handlerDuration / time.Duration(m.handlerExecutions)
	}
	return EventBusMetricsSnapshot{
		Published:         published,
		HandlerExecutions: m.handlerExecutions,
		HandlerFailures:   m.handlerFailures,
		AverageDuration:   avg,
	}
}
