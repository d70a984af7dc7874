// Package command contains write operations on a session.
package command

import (
	"context"
	"fmt"

	"github.com/alem-hub/achievement-hub/internal/application/session"
	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD POINTS COMMAND
// Adds points to a user and unlocks whatever the new total qualifies for.
// ══════════════════════════════════════════════════════════════════════════════

// ErrUserIDRequired is returned by commands that do not name a user.
var ErrUserIDRequired = shared.NewDomainError("command", "Validate", shared.ErrEmptyValue, "user_id is required")

// AwardPointsCommand contains the data to award points.
type AwardPointsCommand struct {
	UserID string

	Points int

	// Source says where the points came from, e.g. "challenge:Math Quiz".
	Source string
}

// Validate validates the command.
func (c AwardPointsCommand) Validate() error {
	if c.UserID == "" {
		return ErrUserIDRequired
	}
	if c.Points < 0 {
		return shared.ErrInvalidArgument.Detail("cannot award %d points", c.Points)
	}
	return nil
}

// AwardPointsResult contains the outcome of awarding points.
type AwardPointsResult struct {
	UserID   string
	Awarded  int
	Total    int
	Unlocked []achievement.Summary

	// Action is the history entry written for this award.
	Action string
}

// UnlockedNames returns the names of newly unlocked items in unlock order.
func (r *AwardPointsResult) UnlockedNames() []string {
	out := make([]string, 0, len(r.Unlocked))
	for _, s := range r.Unlocked {
		out = append(out, s.Name)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AwardPointsHandler handles AwardPointsCommand.
type AwardPointsHandler struct {
	session *session.Session
	logger  *logger.Logger
}

// NewAwardPointsHandler creates a handler working on s.
func NewAwardPointsHandler(s *session.Session) *AwardPointsHandler {
	return &AwardPointsHandler{
		session: s,
		logger:  s.Logger().With(logger.Component("award_points")),
	}
}

// Handle adds the points, evaluates the registry, publishes a
// PointsAwardedEvent and logs the action. A history persistence failure is
// logged and does not fail the award.
func (h *AwardPointsHandler) Handle(ctx context.Context, cmd AwardPointsCommand) (*AwardPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := h.session.User(cmd.UserID)
	if err != nil {
		return nil, err
	}

	if err := u.AddPoints(cmd.Points); err != nil {
		return nil, err
	}

	items := h.session.Registry().Evaluate(u.State())
	summaries := make([]achievement.Summary, 0, len(items))
	names := make([]string, 0, len(items))
	for _, it := range items {
		summaries = append(summaries, it.ToSummary())
		names = append(names, it.Name())
	}

	h.session.Publish(shared.NewPointsAwardedEvent(u.ID, cmd.Points, u.Points(), cmd.Source, names))

	action := fmt.Sprintf("Awarded %d points to %s", cmd.Points, u.Name)
	if cmd.Source != "" {
		action += " (" + cmd.Source + ")"
	}
	if _, err := h.session.LogAction(ctx, action); err != nil {
		h.logger.Warn("award kept without persisted history", logger.UserID(u.ID), logger.Err(err))
	}

	h.logger.Debug("points awarded",
		logger.UserID(u.ID),
		logger.Points(u.Points()),
		logger.Int("unlocked", len(items)),
	)

	return &AwardPointsResult{
		UserID:   u.ID,
		Awarded:  cmd.Points,
		Total:    u.Points(),
		Unlocked: summaries,
		Action:   action,
	}, nil
}
