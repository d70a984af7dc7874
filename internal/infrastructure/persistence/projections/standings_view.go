// Package projections holds read models built from domain events.
package projections

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

// ErrUnknownUser is returned for users the view never saw.
var ErrUnknownUser = errors.New("projections: unknown user")

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS VIEW
// ══════════════════════════════════════════════════════════════════════════════

// StandingsView is a denormalized, in-process ranking of session users.
// It is fed only by events and never reads the domain objects.
type StandingsView struct {
	mu      sync.RWMutex
	rows    map[string]*StandingsRow
	version int64
}

// StandingsRow is one user in the view.
type StandingsRow struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Points       int       `json:"points"`
	Achievements []string  `json:"achievements"`
	Challenges   int       `json:"challenges"`
	Rank         int       `json:"rank"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewStandingsView creates an empty view.
func NewStandingsView() *StandingsView {
	return &StandingsView{rows: make(map[string]*StandingsRow)}
}

// Attach subscribes the view to every event on bus.
func (v *StandingsView) Attach(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(v.Apply)
}

// Apply folds one event into the view. Unrelated events are ignored.
func (v *StandingsView) Apply(event shared.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch e := event.(type) {
	case shared.UserCreatedEvent:
		row := v.row(e.AggregateID())
		row.Name = e.Name
		row.Role = e.Role
	case shared.PointsAwardedEvent:
		v.row(e.AggregateID()).Points = e.NewTotal
	case shared.ChallengeCompletedEvent:
		v.row(e.AggregateID()).Challenges++
	case shared.AchievementUnlockedEvent:
		row := v.row(e.AggregateID())
		if row.Name == "" {
			row.Name = e.UserName
		}
		row.Achievements = append(row.Achievements, e.Achievement)
		if e.Points > row.Points {
			row.Points = e.Points
		}
	default:
		return nil
	}

	v.row(event.AggregateID()).UpdatedAt = event.OccurredAt()
	v.version++
	return nil
}

func (v *StandingsView) row(userID string) *StandingsRow {
	r, ok := v.rows[userID]
	if !ok {
		r = &StandingsRow{UserID: userID, Achievements: []string{}}
		v.rows[userID] = r
	}
	return r
}

// Top returns up to limit rows by points, then name. limit <= 0 returns all.
func (v *StandingsView) Top(_ context.Context, limit int) []StandingsRow {
	v.mu.RLock()
	defer v.mu.RUnlock()

	sorted := make([]*StandingsRow, 0, len(v.rows))
	for _, r := range v.rows {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].Name < sorted[j].Name
	})

	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}

	out := make([]StandingsRow, 0, limit)
	rank := 0
	prev := -1
	for i, r := range sorted[:limit] {
		if r.Points != prev {
			rank = i + 1
			prev = r.Points
		}
		cp := r.clone()
		cp.Rank = rank
		out = append(out, cp)
	}
	return out
}

// AveragePoints returns the mean points over every row, rounded down.
func (v *StandingsView) AveragePoints(_ context.Context) int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(v.rows) == 0 {
		return 0
	}
	total := 0
	for _, r := range v.rows {
		total += r.Points
	}
	return total / len(v.rows)
}

// Get returns the row for userID without a rank.
func (v *StandingsView) Get(_ context.Context, userID string) (StandingsRow, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	r, ok := v.rows[userID]
	if !ok {
		return StandingsRow{}, ErrUnknownUser
	}
	return r.clone(), nil
}

// Version increases with every applied event.
func (v *StandingsView) Version() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

func (r *StandingsRow) clone() StandingsRow {
	cp := *r
	cp.Achievements = append([]string(nil), r.Achievements...)
	return cp
}
