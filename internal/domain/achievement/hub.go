package achievement

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

// Observer receives unlock notifications.
type Observer interface {
	OnUnlock(state *UserState, item Item) error
}

// NamedObserver lets an observer pick the name used in diagnostics.
type NamedObserver interface {
	Observer
	ObserverName() string
}

// FuncObserver adapts a function to Observer. Use a pointer so subscription
// identity works.
type FuncObserver struct {
	name string
	fn   func(state *UserState, item Item) error
}

// NewFuncObserver wraps fn as a named observer.
func NewFuncObserver(name string, fn func(state *UserState, item Item) error) *FuncObserver {
	return &FuncObserver{name: name, fn: fn}
}

// OnUnlock implements Observer.
func (o *FuncObserver) OnUnlock(state *UserState, item Item) error {
	return o.fn(state, item)
}

// ObserverName implements NamedObserver.
func (o *FuncObserver) ObserverName() string {
	return o.name
}

// Hub fans unlock notifications out to subscribers in subscription order.
type Hub struct {
	mu          sync.RWMutex
	subscribers []Observer
	logger      *logger.Logger
}

// NewHub creates an empty hub. A nil logger discards diagnostics.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{logger: log.With(logger.Component("notification_hub"))}
}

// Subscribe adds o unless it is already subscribed.
// Observers are compared by identity. Values of an uncomparable type have no
// identity: each one is added, and Unsubscribe cannot remove it.
func (h *Hub) Subscribe(o Observer) {
	if o == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if !isComparable(o) {
		h.logger.Warn("observer type is not comparable, subscribing without dedup",
			logger.Observer(observerName(o)),
		)
		h.subscribers = append(h.subscribers, o)
		return
	}
	for _, s := range h.subscribers {
		if sameObserver(s, o) {
			return
		}
	}
	h.subscribers = append(h.subscribers, o)
}

// Unsubscribe removes o. It is a no-op when o is not subscribed.
func (h *Hub) Unsubscribe(o Observer) {
	if o == nil || !isComparable(o) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subscribers {
		if sameObserver(s, o) {
			h.subscribers = append(h.subscribers[:i:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Notify calls every subscriber for item, synchronously and in order.
// Subscribers see the list as it was when Notify started, so they may
// subscribe or unsubscribe from inside OnUnlock. A failing or panicking
// subscriber is logged and skipped; the returned errors describe each failure.
func (h *Hub) Notify(state *UserState, item Item) []error {
	h.mu.RLock()
	subs := make([]Observer, len(h.subscribers))
	copy(subs, h.subscribers)
	h.mu.RUnlock()

	var errs []error
	for _, o := range subs {
		if err := h.deliver(o, state, item); err != nil {
			name := observerName(o)
			h.logger.Error("observer failed",
				logger.Observer(name),
				logger.UserID(state.Owner().ID),
				logger.Achievement(item.Name()),
				logger.Err(err),
			)
			errs = append(errs, shared.WrapError("achievement", "Notify", shared.ErrExternalService,
				fmt.Sprintf("observer %s failed on %q", name, item.Name()), err))
		}
	}
	return errs
}

func (h *Hub) deliver(o Observer, state *UserState, item Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return o.OnUnlock(state, item)
}

func observerName(o Observer) string {
	if n, ok := o.(NamedObserver); ok {
		return n.ObserverName()
	}
	return fmt.Sprintf("%T", o)
}

func isComparable(o Observer) bool {
	return reflect.TypeOf(o).Comparable()
}

// sameObserver compares by identity. A comparable struct can still hold an
// uncomparable value in an interface field, so a failed comparison is false.
func sameObserver(a, b Observer) (same bool) {
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !isComparable(a) {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
