package query

import (
	"context"
	"sort"

	"github.com/alem-hub/achievement-hub/internal/application/session"
	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER PROGRESS QUERY
// What a user has unlocked and how far they are from the rest.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserProgressQuery selects a user by ID or, when ID is empty, by name.
type GetUserProgressQuery struct {
	UserID string
	Name   string
}

// LockedDTO is an achievement the user does not have yet.
type LockedDTO struct {
	Name string           `json:"name"`
	Kind achievement.Kind `json:"kind"`

	// PointsToGo is set for atomic achievements.
	PointsToGo int `json:"points_to_go,omitempty"`

	// MissingChildren is set for groups.
	MissingChildren []string `json:"missing_children,omitempty"`
}

// GetUserProgressResult describes a user's progress.
type GetUserProgressResult struct {
	UserID   string   `json:"user_id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Points   int      `json:"points"`
	Unlocked []string `json:"unlocked"`

	// Locked is ordered closest first: atomics by points to go, then groups
	// by missing children.
	Locked []LockedDTO `json:"locked"`

	// Next is the closest atomic achievement, if any.
	Next *LockedDTO `json:"next,omitempty"`
}

// GetUserProgressHandler handles GetUserProgressQuery.
type GetUserProgressHandler struct {
	session *session.Session
}

// NewGetUserProgressHandler creates a handler reading s.
func NewGetUserProgressHandler(s *session.Session) *GetUserProgressHandler {
	return &GetUserProgressHandler{session: s}
}

// Handle builds the progress view. It reads only.
func (h *GetUserProgressHandler) Handle(_ context.Context, q GetUserProgressQuery) (*GetUserProgressResult, error) {
	var (
		u   *user.User
		err error
	)
	if q.UserID != "" {
		u, err = h.session.User(q.UserID)
	} else {
		u, err = h.session.UserByName(q.Name)
	}
	if err != nil {
		return nil, err
	}

	state := u.State()
	result := &GetUserProgressResult{
		UserID:   u.ID,
		Name:     u.Name,
		Role:     string(u.Role),
		Points:   state.Points(),
		Unlocked: state.UnlockedNames(),
		Locked:   []LockedDTO{},
	}

	var atomics, groups []LockedDTO
	for _, s := range h.session.Registry().Summaries() {
		if state.HasUnlocked(s.Name) {
			continue
		}
		if s.Kind == achievement.KindGroup {
			var missing []string
			for _, c := range s.Children {
				if !state.HasUnlocked(c) {
					missing = append(missing, c)
				}
			}
			groups = append(groups, LockedDTO{Name: s.Name, Kind: s.Kind, MissingChildren: missing})
			continue
		}
		atomics = append(atomics, LockedDTO{Name: s.Name, Kind: s.Kind, PointsToGo: max(0, s.PointsRequired-state.Points())})
	}

	sort.SliceStable(atomics, func(i, j int) bool { return atomics[i].PointsToGo < atomics[j].PointsToGo })
	sort.SliceStable(groups, func(i, j int) bool { return len(groups[i].MissingChildren) < len(groups[j].MissingChildren) })

	result.Locked = append(result.Locked, atomics...)
	result.Locked = append(result.Locked, groups...)
	if len(atomics) > 0 {
		next := atomics[0]
		result.Next = &next
	}
	return result, nil
}
