package achievement

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

func mustAchievement(t *testing.T, name string, points int) *Achievement {
	t.Helper()
	a, err := NewAchievement(name, points, name+" description")
	require.NoError(t, err)
	return a
}

func mustGroup(t *testing.T, name string, children ...string) *Group {
	t.Helper()
	g, err := NewGroup(name, name+" description", children...)
	require.NoError(t, err)
	return g
}

func names(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name())
	}
	return out
}

type recordingObserver struct {
	id    string
	calls *[]string
	err   error
}

func (o *recordingObserver) OnUnlock(_ *UserState, item Item) error {
	*o.calls = append(*o.calls, o.id+":"+item.Name())
	return o.err
}

func championRegistry(t *testing.T, hub *Hub) *Registry {
	t.Helper()
	r := NewRegistry(hub, nil)
	require.NoError(t, r.Register(mustAchievement(t, "math_novice", 10)))
	require.NoError(t, r.Register(mustAchievement(t, "logic_novice", 10)))
	require.NoError(t, r.Register(mustGroup(t, "champion", "math_novice", "logic_novice")))
	return r
}

func TestRegistry_ChampionScenario(t *testing.T) {
	r := championRegistry(t, nil)
	state := NewUserState(Owner{ID: "u1", Name: "Joao"})

	assert.Empty(t, r.Evaluate(state))

	require.NoError(t, state.AddPoints(10))
	got := r.Evaluate(state)
	assert.Equal(t, []string{"math_novice", "logic_novice", "champion"}, names(got))
	assert.Equal(t, []string{"math_novice", "logic_novice", "champion"}, state.UnlockedNames())

	assert.Empty(t, r.Evaluate(state))
}

func TestRegistry_Register_DuplicateName(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(mustAchievement(t, "first", 1)))

	err := r.Register(mustGroup(t, "first", "other"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDuplicateName))
	assert.True(t, shared.IsAlreadyExists(err))
	assert.Equal(t, 1, r.Len())

	it, ok := r.Get("first")
	require.True(t, ok)
	assert.Equal(t, KindAtomic, it.Kind())

	err = r.Register(mustAchievement(t, "first", 99))
	assert.True(t, errors.Is(err, shared.ErrDuplicateName))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Register_CopiesGroup(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(mustAchievement(t, "a", 0)))
	g := mustGroup(t, "g", "a")
	require.NoError(t, r.Register(g))

	g.Add("missing")

	state := NewUserState(Owner{ID: "u"})
	assert.Equal(t, []string{"a", "g"}, names(r.Evaluate(state)))
}

func TestRegistry_Evaluate_NestedGroupsInOneCall(t *testing.T) {
	r := NewRegistry(nil, nil)
	// Register the outer group first so a single group pass cannot see it unlock.
	require.NoError(t, r.Register(mustGroup(t, "grand", "inner", "c")))
	require.NoError(t, r.Register(mustGroup(t, "inner", "a", "b")))
	require.NoError(t, r.Register(mustAchievement(t, "a", 5)))
	require.NoError(t, r.Register(mustAchievement(t, "b", 5)))
	require.NoError(t, r.Register(mustAchievement(t, "c", 50)))

	state := NewUserState(Owner{ID: "u"})
	require.NoError(t, state.AddPoints(5))
	assert.Equal(t, []string{"a", "b", "inner"}, names(r.Evaluate(state)))

	require.NoError(t, state.AddPoints(45))
	assert.Equal(t, []string{"c", "grand"}, names(r.Evaluate(state)))
}

func TestRegistry_Evaluate_ThresholdBoundary(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(mustAchievement(t, "ten", 10)))

	state := NewUserState(Owner{ID: "u"})
	require.NoError(t, state.AddPoints(9))
	assert.Empty(t, r.Evaluate(state))

	require.NoError(t, state.AddPoints(1))
	assert.Equal(t, []string{"ten"}, names(r.Evaluate(state)))
}

func TestRegistry_Evaluate_ZeroPointAchievementUnlocksImmediately(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(mustAchievement(t, "welcome", 0)))

	state := NewUserState(Owner{ID: "u"})
	assert.Equal(t, []string{"welcome"}, names(r.Evaluate(state)))
}

func TestRegistry_Evaluate_Monotonic(t *testing.T) {
	r := championRegistry(t, nil)
	require.NoError(t, r.Register(mustAchievement(t, "expert", 100)))
	state := NewUserState(Owner{ID: "u"})

	prev := 0
	for _, pts := range []int{0, 3, 7, 0, 50, 40, 0} {
		require.NoError(t, state.AddPoints(pts))
		r.Evaluate(state)
		assert.GreaterOrEqual(t, state.UnlockedCount(), prev)
		prev = state.UnlockedCount()
	}
	assert.Equal(t, 4, prev)
}

func TestRegistry_Evaluate_UnresolvedChildNeverUnlocks(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelWarn})
	r := NewRegistry(nil, log)
	require.NoError(t, r.Register(mustAchievement(t, "a", 1)))
	require.NoError(t, r.Register(mustGroup(t, "ghost", "a", "does_not_exist")))

	state := NewUserState(Owner{ID: "u"})
	require.NoError(t, state.AddPoints(1_000_000))

	got := r.Evaluate(state)
	assert.Equal(t, []string{"a"}, names(got))
	assert.False(t, state.HasUnlocked("ghost"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "one warning per unresolved group per evaluation")
	assert.Contains(t, lines[0], "does_not_exist")
	assert.Contains(t, lines[0], `"level":"WARN"`)

	assert.Empty(t, r.Evaluate(state))
}

func TestRegistry_Evaluate_CycleTerminates(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(mustAchievement(t, "a", 0)))
	require.NoError(t, r.Register(mustGroup(t, "x", "a", "y")))
	require.NoError(t, r.Register(mustGroup(t, "y", "x")))
	require.NoError(t, r.Register(mustGroup(t, "self", "self")))

	state := NewUserState(Owner{ID: "u"})
	assert.Equal(t, []string{"a"}, names(r.Evaluate(state)))
	assert.False(t, state.HasUnlocked("x"))
	assert.False(t, state.HasUnlocked("y"))
	assert.False(t, state.HasUnlocked("self"))
}

func TestRegistry_Evaluate_NotifiesPerItemInSubscriberOrder(t *testing.T) {
	hub := NewHub(nil)
	var calls []string
	first := &recordingObserver{id: "first", calls: &calls}
	second := &recordingObserver{id: "second", calls: &calls}
	third := &recordingObserver{id: "third", calls: &calls}
	hub.Subscribe(first)
	hub.Subscribe(second)
	hub.Subscribe(third)

	r := championRegistry(t, hub)
	state := NewUserState(Owner{ID: "u"})
	require.NoError(t, state.AddPoints(10))

	unlocked := r.Evaluate(state)
	require.Len(t, unlocked, 3)
	assert.Len(t, calls, 3*3)
	assert.Equal(t, []string{
		"first:math_novice", "second:math_novice", "third:math_novice",
		"first:logic_novice", "second:logic_novice", "third:logic_novice",
		"first:champion", "second:champion", "third:champion",
	}, calls)

	calls = calls[:0]
	r.Evaluate(state)
	assert.Empty(t, calls)
}

func TestRegistry_Evaluate_FailingObserverDoesNotAbort(t *testing.T) {
	hub := NewHub(nil)
	var calls []string
	hub.Subscribe(&recordingObserver{id: "broken", calls: &calls, err: errors.New("boom")})
	hub.Subscribe(NewFuncObserver("panicky", func(*UserState, Item) error { panic("kaboom") }))
	hub.Subscribe(&recordingObserver{id: "ok", calls: &calls})

	r := championRegistry(t, hub)
	state := NewUserState(Owner{ID: "u"})
	require.NoError(t, state.AddPoints(10))

	assert.Len(t, r.Evaluate(state), 3)
	assert.Equal(t, []string{
		"broken:math_novice", "ok:math_novice",
		"broken:logic_novice", "ok:logic_novice",
		"broken:champion", "ok:champion",
	}, calls)
	assert.True(t, state.HasUnlocked("champion"))
}

func TestRegistry_Evaluate_ObserverSeesItemRecorded(t *testing.T) {
	hub := NewHub(nil)
	var seen []bool
	hub.Subscribe(NewFuncObserver("check", func(s *UserState, it Item) error {
		seen = append(seen, s.HasUnlocked(it.Name()))
		return nil
	}))
	r := championRegistry(t, hub)
	state := NewUserState(Owner{ID: "u"})
	require.NoError(t, state.AddPoints(10))
	r.Evaluate(state)

	assert.Equal(t, []bool{true, true, true}, seen)
}

func TestRegistry_Summaries(t *testing.T) {
	r := championRegistry(t, nil)

	sums := r.Summaries()
	require.Len(t, sums, 3)
	assert.Equal(t, Summary{Name: "math_novice", Description: "math_novice description", Kind: KindAtomic, PointsRequired: 10}, sums[0])
	assert.Equal(t, KindGroup, sums[2].Kind)
	assert.Equal(t, []string{"math_novice", "logic_novice"}, sums[2].Children)
}

func TestRegistry_Register_TypedNil(t *testing.T) {
	r := NewRegistry(nil, nil)
	var a *Achievement
	var g *Group

	for _, it := range []Item{nil, a, g} {
		var err error
		require.NotPanics(t, func() { err = r.Register(it) })
		assert.True(t, errors.Is(err, shared.ErrInvalidAchievement))
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ConcurrentRegisterAndEvaluate(t *testing.T) {
	hub := NewHub(nil)
	r := NewRegistry(hub, nil)
	require.NoError(t, r.Register(mustAchievement(t, "base", 0)))

	var notified atomic.Int64
	const writers, readers, perWriter = 4, 4, 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				name := fmt.Sprintf("w%d_a%d", w, i)
				a, err := NewAchievement(name, i, "")
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, r.Register(a))
				g, err := NewGroup(fmt.Sprintf("w%d_g%d", w, i), "", "base", name)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, r.Register(g))
				hub.Subscribe(NewFuncObserver(name, func(*UserState, Item) error {
					notified.Add(1)
					return nil
				}))
			}
		}(w)
	}

	states := make([]*UserState, readers)
	for i := range states {
		states[i] = NewUserState(Owner{ID: fmt.Sprintf("u%d", i)})
	}
	for _, st := range states {
		wg.Add(1)
		go func(st *UserState) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, st.AddPoints(1))
				r.Evaluate(st)
			}
		}(st)
	}
	wg.Wait()

	assert.Equal(t, 1+2*writers*perWriter, r.Len())
	assert.Equal(t, writers*perWriter, hub.Len())

	for _, st := range states {
		before := st.UnlockedCount()
		require.NoError(t, st.AddPoints(perWriter))
		r.Evaluate(st)
		assert.Equal(t, r.Len(), st.UnlockedCount())
		assert.GreaterOrEqual(t, st.UnlockedCount(), before)
	}
	assert.Positive(t, notified.Load())
}
