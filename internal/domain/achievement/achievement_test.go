package achievement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

func TestNewAchievement_Validation(t *testing.T) {
	_, err := NewAchievement("  ", 1, "")
	assert.True(t, errors.Is(err, shared.ErrInvalidAchievement))

	_, err = NewAchievement("neg", -1, "")
	assert.True(t, shared.IsValidation(err))

	a, err := NewAchievement(" trimmed ", 0, "desc")
	require.NoError(t, err)
	assert.Equal(t, "trimmed", a.Name())
	assert.Equal(t, "desc", a.Description())
}

func TestAchievement_IsUnlocked(t *testing.T) {
	a := mustAchievement(t, "a", 10)
	s := NewUserState(Owner{})

	assert.False(t, a.IsUnlocked(s))
	require.NoError(t, s.AddPoints(10))
	assert.True(t, a.IsUnlocked(s))
}

func TestGroup_IsUnlocked(t *testing.T) {
	g := mustGroup(t, "g", "a", "b")

	assert.False(t, g.IsUnlocked(NewNameSet()))
	assert.False(t, g.IsUnlocked(NewNameSet("a")))
	assert.True(t, g.IsUnlocked(NewNameSet("a", "b")))
	assert.True(t, g.IsUnlocked(NewNameSet("b", "a", "c")))

	empty := mustGroup(t, "empty")
	assert.True(t, empty.IsUnlocked(NewNameSet()))
}

func TestGroup_Builder(t *testing.T) {
	g := mustGroup(t, "g", "a", "a", "b")
	assert.Equal(t, []string{"a", "b"}, g.Children())

	g.Add("c").Remove("a").Remove("zzz")
	assert.Equal(t, []string{"b", "c"}, g.Children())

	children := g.Children()
	children[0] = "mutated"
	assert.Equal(t, []string{"b", "c"}, g.Children())
}

func TestToSummary(t *testing.T) {
	a := mustAchievement(t, "a", 7)
	assert.Equal(t, Summary{Name: "a", Description: "a description", Kind: KindAtomic, PointsRequired: 7}, a.ToSummary())

	g := mustGroup(t, "g", "a")
	assert.Equal(t, Summary{Name: "g", Description: "g description", Kind: KindGroup, Children: []string{"a"}}, g.ToSummary())
}

func TestUserState_AddPoints(t *testing.T) {
	s := NewUserState(Owner{ID: "u", Name: "Ana"})
	require.NoError(t, s.AddPoints(0))
	require.NoError(t, s.AddPoints(15))
	assert.Equal(t, 15, s.Points())

	err := s.AddPoints(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	assert.True(t, errors.Is(err, shared.ErrNegativeValue))
	assert.Equal(t, 15, s.Points())
	assert.Equal(t, "Ana", s.Owner().Name)
}

func TestUserState_UnlockedNamesIsACopy(t *testing.T) {
	s := NewUserState(Owner{})
	assert.True(t, s.unlock("a"))
	assert.False(t, s.unlock("a"))

	got := s.UnlockedNames()
	got[0] = "forged"
	assert.True(t, s.HasUnlocked("a"))
	assert.False(t, s.HasUnlocked("forged"))
	assert.Equal(t, 1, s.UnlockedCount())
}
