package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/achievement-hub/internal/application/session"
	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/persistence/projections"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/ranking"
)

type fakeRanking struct {
	entries []ranking.Entry
	err     error
	avgErr  error
	asked   int
}

func (f *fakeRanking) AveragePoints(context.Context, string) (int, error) {
	if f.avgErr != nil {
		return 0, f.avgErr
	}
	if len(f.entries) == 0 {
		return 0, nil
	}
	total := 0
	for _, e := range f.entries {
		total += e.Points
	}
	return total / len(f.entries), nil
}

func (f *fakeRanking) TopEntries(_ context.Context, _ string, count int) ([]ranking.Entry, error) {
	f.asked = count
	if f.err != nil {
		return nil, f.err
	}
	if count < len(f.entries) {
		return f.entries[:count], nil
	}
	return f.entries, nil
}

func standingsWith(t *testing.T, users ...[3]any) *projections.StandingsView {
	t.Helper()
	v := projections.NewStandingsView()
	for _, u := range users {
		id, name, points := u[0].(string), u[1].(string), u[2].(int)
		require.NoError(t, v.Apply(shared.NewUserCreatedEvent(id, name, "student")))
		require.NoError(t, v.Apply(shared.NewPointsAwardedEvent(id, points, points, "test", nil)))
	}
	return v
}

func TestGetLeaderboard_PrefersRanking(t *testing.T) {
	r := &fakeRanking{entries: []ranking.Entry{
		{UserID: "a", Name: "Ana", Points: 100},
		{UserID: "b", Name: "Bia", Points: 100},
		{UserID: "c", Name: "Caio", Points: 40},
	}}
	h := NewGetLeaderboardHandler(r, standingsWith(t), nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, SourceRanking, res.Source)
	assert.Equal(t, 3, r.asked)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, 1, res.Entries[0].Rank)
	assert.Equal(t, 1, res.Entries[1].Rank)
	assert.True(t, res.HasMore)
	assert.Equal(t, 80, res.AveragePoints)

	res, err = h.Handle(context.Background(), GetLeaderboardQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, 3, res.Entries[0].Rank)
	assert.False(t, res.HasMore)
	assert.Equal(t, 80, res.AveragePoints)
}

func TestGetLeaderboard_AverageCoversWholeCohort(t *testing.T) {
	r := &fakeRanking{entries: []ranking.Entry{
		{UserID: "a", Points: 300},
		{UserID: "b", Points: 200},
		{UserID: "c", Points: 100},
		{UserID: "d", Points: 0},
	}}
	h := NewGetLeaderboardHandler(r, nil, nil)

	for offset := 0; offset < 4; offset++ {
		res, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 1, Offset: offset})
		require.NoError(t, err)
		assert.Equal(t, 150, res.AveragePoints, "offset %d", offset)
	}

	view := standingsWith(t, [3]any{"u1", "Ana", 90}, [3]any{"u2", "Bia", 30}, [3]any{"u3", "Caio", 0})
	res, err := NewGetLeaderboardHandler(nil, view, nil).Handle(context.Background(), GetLeaderboardQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, SourceStandings, res.Source)
	assert.Equal(t, 40, res.AveragePoints)

	r.avgErr = errors.New("redis down")
	res, err = h.Handle(context.Background(), GetLeaderboardQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 250, res.AveragePoints)
}

func TestGetLeaderboard_FallsBackToStandings(t *testing.T) {
	view := standingsWith(t, [3]any{"u1", "João", 120}, [3]any{"u2", "Maria", 0})

	for name, reader := range map[string]RankingReader{
		"no ranking":    nil,
		"ranking fails": &fakeRanking{err: errors.New("redis down")},
		"ranking empty": &fakeRanking{},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewGetLeaderboardHandler(reader, view, nil)
			res, err := h.Handle(context.Background(), GetLeaderboardQuery{})
			require.NoError(t, err)
			assert.Equal(t, SourceStandings, res.Source)
			require.Len(t, res.Entries, 2)
			assert.Equal(t, "João", res.Entries[0].Name)
			assert.Equal(t, 2, res.Entries[1].Rank)
		})
	}
}

func TestGetLeaderboard_Validation(t *testing.T) {
	h := NewGetLeaderboardHandler(nil, nil, nil)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: -1})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	q := GetLeaderboardQuery{Limit: 500}
	require.NoError(t, q.Validate())
	assert.Equal(t, maxLimit, q.Limit)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
}

func TestGetUserProgress(t *testing.T) {
	s := session.New(session.Options{})
	math, err := achievement.NewAchievement("math_novice", 50, "")
	require.NoError(t, err)
	logic, err := achievement.NewAchievement("logic_novice", 100, "")
	require.NoError(t, err)
	champ, err := achievement.NewGroup("champion", "", "math_novice", "logic_novice")
	require.NoError(t, err)
	s.Registry().MustRegister(logic, math, champ)

	u, err := s.CreateUser("student", "João")
	require.NoError(t, err)
	require.NoError(t, u.AddPoints(90))
	s.Registry().Evaluate(u.State())

	h := NewGetUserProgressHandler(s)
	res, err := h.Handle(context.Background(), GetUserProgressQuery{Name: "joão"})
	require.NoError(t, err)

	assert.Equal(t, 90, res.Points)
	assert.Equal(t, []string{"math_novice"}, res.Unlocked)
	require.Len(t, res.Locked, 2)
	assert.Equal(t, LockedDTO{Name: "logic_novice", Kind: achievement.KindAtomic, PointsToGo: 10}, res.Locked[0])
	assert.Equal(t, []string{"logic_novice"}, res.Locked[1].MissingChildren)
	require.NotNil(t, res.Next)
	assert.Equal(t, "logic_novice", res.Next.Name)
	assert.Equal(t, 90, u.Points())

	_, err = h.Handle(context.Background(), GetUserProgressQuery{UserID: "nope"})
	assert.True(t, errors.Is(err, shared.ErrUserNotFound))
}
