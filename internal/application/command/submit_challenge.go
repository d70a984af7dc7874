package command

import (
	"context"

	"github.com/alem-hub/achievement-hub/internal/application/session"
	"github.com/alem-hub/achievement-hub/internal/domain/challenge"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT CHALLENGE COMMAND
// Scores a submission with the challenge's strategy and awards the result.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitChallengeCommand contains a user's answer to a challenge.
type SubmitChallengeCommand struct {
	UserID     string
	Challenge  *challenge.Challenge
	Submission challenge.Submission
	Context    challenge.ScoreContext

	// Streak is the number of earlier consecutive solves. Each adds a
	// StreakBonus step; zero adds nothing.
	Streak int

	// DoubleXP doubles the score after the streak bonus.
	DoubleXP bool

	// Bonus decorates the score last, after Streak and DoubleXP. It receives
	// the score so far as its base.
	Bonus func(base challenge.PointSource) challenge.PointSource
}

// Validate validates the command.
func (c SubmitChallengeCommand) Validate() error {
	if c.UserID == "" {
		return ErrUserIDRequired
	}
	if c.Challenge == nil {
		return shared.NewDomainError("command", "Validate", shared.ErrInvalidInput, "challenge is required")
	}
	if c.Streak < 0 {
		return shared.NewDomainError("command", "Validate", shared.ErrNegativeValue, "streak cannot be negative")
	}
	return nil
}

// SubmitChallengeResult contains the score and the resulting award.
type SubmitChallengeResult struct {
	Challenge string
	Strategy  string
	Score     int
	Award     *AwardPointsResult
}

// SubmitChallengeHandler handles SubmitChallengeCommand.
type SubmitChallengeHandler struct {
	session *session.Session
	award   *AwardPointsHandler
	logger  *logger.Logger
}

// NewSubmitChallengeHandler creates a handler that awards through award.
func NewSubmitChallengeHandler(s *session.Session, award *AwardPointsHandler) *SubmitChallengeHandler {
	return &SubmitChallengeHandler{
		session: s,
		award:   award,
		logger:  s.Logger().With(logger.Component("submit_challenge")),
	}
}

// Handle scores the submission, publishes a ChallengeCompletedEvent and
// awards the score.
func (h *SubmitChallengeHandler) Handle(ctx context.Context, cmd SubmitChallengeCommand) (*SubmitChallengeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if _, err := h.session.User(cmd.UserID); err != nil {
		return nil, err
	}

	var points challenge.PointSource = challenge.Base(cmd.Challenge.Evaluate(cmd.Submission, cmd.Context))
	if cmd.Streak > 0 {
		points = challenge.StreakBonus{Inner: points, Streak: cmd.Streak}
	}
	if cmd.DoubleXP {
		points = challenge.DoubleXP{Inner: points}
	}
	if cmd.Bonus != nil {
		points = cmd.Bonus(points)
	}
	score := points.Points()

	strategy := ""
	if cmd.Challenge.Strategy != nil {
		strategy = cmd.Challenge.Strategy.Name()
	}

	h.logger.Info("challenge scored",
		logger.UserID(cmd.UserID),
		logger.String("challenge", cmd.Challenge.Title),
		logger.String("strategy", strategy),
		logger.Int("score", score),
	)
	h.session.Publish(shared.NewChallengeCompletedEvent(cmd.UserID, cmd.Challenge.Title, strategy, score))

	award, err := h.award.Handle(ctx, AwardPointsCommand{
		UserID: cmd.UserID,
		Points: score,
		Source: "challenge:" + cmd.Challenge.Title,
	})
	if err != nil {
		return nil, err
	}

	return &SubmitChallengeResult{
		Challenge: cmd.Challenge.Title,
		Strategy:  strategy,
		Score:     score,
		Award:     award,
	}, nil
}
