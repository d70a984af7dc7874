package achievement

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

func TestHub_SubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	var calls []string
	o := &recordingObserver{id: "o", calls: &calls}

	hub.Subscribe(o)
	hub.Subscribe(o)
	assert.Equal(t, 1, hub.Len())

	item := mustAchievement(t, "a", 0)
	hub.Notify(NewUserState(Owner{}), item)
	assert.Equal(t, []string{"o:a"}, calls)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(nil)
	var calls []string
	a := &recordingObserver{id: "a", calls: &calls}
	b := &recordingObserver{id: "b", calls: &calls}

	hub.Unsubscribe(a)
	hub.Subscribe(a)
	hub.Subscribe(b)
	hub.Unsubscribe(a)
	hub.Unsubscribe(a)
	assert.Equal(t, 1, hub.Len())

	hub.Notify(NewUserState(Owner{}), mustAchievement(t, "x", 0))
	assert.Equal(t, []string{"b:x"}, calls)
}

func TestHub_Notify_IsolatesFailures(t *testing.T) {
	hub := NewHub(nil)
	var calls []string
	hub.Subscribe(&recordingObserver{id: "bad", calls: &calls, err: errors.New("sink down")})
	hub.Subscribe(&recordingObserver{id: "good", calls: &calls})

	errs := hub.Notify(NewUserState(Owner{ID: "u"}), mustAchievement(t, "x", 0))
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], shared.ErrObserverNotification))
	assert.ErrorContains(t, errs[0], "sink down")
	assert.Equal(t, []string{"bad:x", "good:x"}, calls)
}

func TestHub_Notify_RecoversPanics(t *testing.T) {
	hub := NewHub(nil)
	var calls []string
	hub.Subscribe(NewFuncObserver("panics", func(*UserState, Item) error { panic("nope") }))
	hub.Subscribe(&recordingObserver{id: "after", calls: &calls})

	errs := hub.Notify(NewUserState(Owner{}), mustAchievement(t, "x", 0))
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "panics")
	assert.Equal(t, []string{"after:x"}, calls)
}

func TestHub_Notify_SnapshotsSubscribers(t *testing.T) {
	hub := NewHub(nil)
	var calls []string
	late := &recordingObserver{id: "late", calls: &calls}

	var self *FuncObserver
	self = NewFuncObserver("self", func(*UserState, Item) error {
		calls = append(calls, "self")
		hub.Unsubscribe(self)
		hub.Subscribe(late)
		return nil
	})
	hub.Subscribe(self)

	hub.Notify(NewUserState(Owner{}), mustAchievement(t, "x", 0))
	assert.Equal(t, []string{"self"}, calls)

	hub.Notify(NewUserState(Owner{}), mustAchievement(t, "y", 0))
	assert.Equal(t, []string{"self", "late:y"}, calls)
}

type taggedObserver struct {
	tags  []string
	calls *[]string
}

func (o taggedObserver) OnUnlock(_ *UserState, item Item) error {
	*o.calls = append(*o.calls, strings.Join(o.tags, ",")+":"+item.Name())
	return nil
}

type boxedObserver struct {
	payload any
	calls   *[]string
}

func (o boxedObserver) OnUnlock(_ *UserState, item Item) error {
	*o.calls = append(*o.calls, "boxed:"+item.Name())
	return nil
}

func TestHub_Subscribe_UncomparableValues(t *testing.T) {
	hub := NewHub(nil)
	var calls []string
	first := taggedObserver{tags: []string{"a"}, calls: &calls}

	require.NotPanics(t, func() {
		hub.Subscribe(first)
		hub.Subscribe(taggedObserver{tags: []string{"b"}, calls: &calls})
		hub.Unsubscribe(first)
	})
	assert.Equal(t, 2, hub.Len())

	hub.Notify(NewUserState(Owner{}), mustAchievement(t, "x", 0))
	assert.Equal(t, []string{"a:x", "b:x"}, calls)
}

func TestHub_Subscribe_ComparableTypeHoldingSlice(t *testing.T) {
	hub := NewHub(nil)
	var calls []string

	require.NotPanics(t, func() {
		hub.Subscribe(boxedObserver{payload: []int{1}, calls: &calls})
		hub.Subscribe(boxedObserver{payload: []int{1}, calls: &calls})
	})
	assert.Equal(t, 2, hub.Len())
}
