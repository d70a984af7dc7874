package projections

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

func TestStandingsView_Apply(t *testing.T) {
	v := NewStandingsView()
	events := []shared.Event{
		shared.NewUserCreatedEvent("u1", "Maria", "student"),
		shared.NewUserCreatedEvent("u2", "Timur", "student"),
		shared.NewUserCreatedEvent("u3", "Aruzhan", "teacher"),
		shared.NewChallengeCompletedEvent("u1", "Math Quiz", "time_based", 90),
		shared.NewPointsAwardedEvent("u1", 90, 90, "Math Quiz", nil),
		shared.NewAchievementUnlockedEvent("u1", "Maria", "math_novice", "atomic", 90),
		shared.NewPointsAwardedEvent("u2", 40, 40, "Logic Quiz", nil),
		shared.NewPointsAwardedEvent("u3", 40, 40, "bonus", nil),
		shared.NewActionEvent(shared.EventActionRecorded, "s", "ignored"),
	}
	for _, e := range events {
		require.NoError(t, v.Apply(e))
	}

	top := v.Top(context.Background(), 0)
	require.Len(t, top, 3)
	assert.Equal(t, "Maria", top[0].Name)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, []string{"math_novice"}, top[0].Achievements)
	assert.Equal(t, 1, top[0].Challenges)
	assert.Equal(t, "Aruzhan", top[1].Name)
	assert.Equal(t, 2, top[1].Rank)
	assert.Equal(t, 2, top[2].Rank)
	assert.Equal(t, int64(8), v.Version())

	assert.Len(t, v.Top(context.Background(), 1), 1)
	assert.Equal(t, 56, v.AveragePoints(context.Background()))
	assert.Equal(t, 0, NewStandingsView().AveragePoints(context.Background()))

	row, err := v.Get(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 40, row.Points)

	_, err = v.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestStandingsView_ReturnsCopies(t *testing.T) {
	v := NewStandingsView()
	require.NoError(t, v.Apply(shared.NewAchievementUnlockedEvent("u1", "Ana", "first", "atomic", 5)))

	row, err := v.Get(context.Background(), "u1")
	require.NoError(t, err)
	row.Achievements[0] = "changed"

	again, _ := v.Get(context.Background(), "u1")
	assert.Equal(t, []string{"first"}, again.Achievements)
	assert.Equal(t, "Ana", again.Name)
}
