package achievement

import (
	"fmt"
	"sync"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

// Registry holds every known achievement and group and evaluates them
// against user states. Register and Evaluate may be called from different
// goroutines; each UserState must still be evaluated by one goroutine at a time.
type Registry struct {
	mu      sync.RWMutex
	atomics []*Achievement
	groups  []*Group
	byName  map[string]Item
	order   []Item

	hub    *Hub
	logger *logger.Logger
}

// NewRegistry creates an empty registry that notifies hub on unlocks.
// hub may be nil when nobody listens.
func NewRegistry(hub *Hub, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		byName: make(map[string]Item),
		hub:    hub,
		logger: log.With(logger.Component("achievement_registry")),
	}
}

// Hub returns the notification hub used by Evaluate.
func (r *Registry) Hub() *Hub {
	return r.hub
}

// Register adds an achievement or group. Names are unique across both kinds;
// a duplicate leaves the registry unchanged. Groups are copied, so later
// builder calls on the argument do not affect the registered definition.
func (r *Registry) Register(item Item) error {
	if isNilItem(item) {
		return shared.ErrInvalidAchievement.Detail("cannot register nil item")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := item.Name()
	if existing, ok := r.byName[name]; ok {
		return shared.ErrDuplicateName.Detail("%q already registered as %s", name, existing.Kind())
	}

	switch v := item.(type) {
	case *Achievement:
		r.atomics = append(r.atomics, v)
		r.byName[name] = v
		r.order = append(r.order, v)
	case *Group:
		g := v.clone()
		r.groups = append(r.groups, g)
		r.byName[name] = g
		r.order = append(r.order, g)
	default:
		return shared.ErrInvalidAchievement.Detail("unsupported item type %T", item)
	}

	r.logger.Debug("achievement registered",
		logger.Achievement(name),
		logger.String("kind", string(item.Kind())),
	)
	return nil
}

// MustRegister registers items and panics on the first error.
// Intended for static catalogs built at startup.
func (r *Registry) MustRegister(items ...Item) {
	for _, it := range items {
		if err := r.Register(it); err != nil {
			panic(err)
		}
	}
}

// Get returns the registered definition with the given name.
func (r *Registry) Get(name string) (Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.byName[name]
	return it, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Items returns all definitions in registration order.
func (r *Registry) Items() []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, len(r.order))
	copy(out, r.order)
	return out
}

// Summaries returns the reporting view of every definition in registration order.
func (r *Registry) Summaries() []Summary {
	items := r.Items()
	out := make([]Summary, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToSummary())
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// Evaluate unlocks everything state now qualifies for and returns the newly
// unlocked items in discovery order: atomics in registration order, then groups
// pass by pass. Groups see unlocks made earlier in the same call, and the group
// pass repeats until nothing changes, so nested groups resolve at once.
//
// Each new item is recorded on state and pushed through the hub before the next
// one. Calling Evaluate again without new points returns nothing.
func (r *Registry) Evaluate(state *UserState) []Item {
	r.mu.RLock()
	atomics := append([]*Achievement(nil), r.atomics...)
	groups := append([]*Group(nil), r.groups...)
	known := make(NameSet, len(r.byName))
	for n := range r.byName {
		known.add(n)
	}
	r.mu.RUnlock()

	unlocked := state.snapshot()
	found := make([]Item, 0)

	for _, a := range atomics {
		if unlocked.Has(a.name) {
			continue
		}
		if a.IsUnlocked(state) {
			unlocked.add(a.name)
			found = append(found, a)
		}
	}

	pending := make([]*Group, 0, len(groups))
	for _, g := range groups {
		if unlocked.Has(g.name) {
			continue
		}
		if missing := unresolvedChildren(g, known); len(missing) > 0 {
			r.logger.Warn(shared.ErrUnresolvedChild.Message,
				logger.UserID(state.Owner().ID),
				logger.Achievement(g.name),
				logger.Unresolved(missing),
			)
			continue
		}
		pending = append(pending, g)
	}

	// Each pass either unlocks a group or stops, so the loop runs at most
	// len(pending)+1 times.
	for changed := true; changed && len(pending) > 0; {
		changed = false
		next := pending[:0]
		for _, g := range pending {
			if g.IsUnlocked(unlocked) {
				unlocked.add(g.name)
				found = append(found, g)
				changed = true
				continue
			}
			next = append(next, g)
		}
		pending = next
	}

	for _, it := range found {
		state.unlock(it.Name())
		r.logger.Info("achievement unlocked",
			logger.UserID(state.Owner().ID),
			logger.Achievement(it.Name()),
			logger.Points(state.Points()),
		)
		if r.hub != nil {
			r.hub.Notify(state, it)
		}
	}

	return found
}

func isNilItem(item Item) bool {
	switch v := item.(type) {
	case nil:
		return true
	case *Achievement:
		return v == nil
	case *Group:
		return v == nil
	}
	return false
}

func unresolvedChildren(g *Group, known NameSet) []string {
	var missing []string
	for _, c := range g.children {
		if !known.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// String renders the registry for debugging.
func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("Registry(atomics=%d, groups=%d)", len(r.atomics), len(r.groups))
}
