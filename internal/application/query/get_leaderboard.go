// Package query contains read operations. Queries never modify state.
package query

import (
	"context"
	"time"

	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/persistence/projections"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/ranking"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Reads the external ranking when available and falls back to the in-process
// standings view.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Leaderboard sources.
const (
	SourceRanking   = "ranking"
	SourceStandings = "standings"
)

// GetLeaderboardQuery holds leaderboard parameters.
type GetLeaderboardQuery struct {
	Cohort string

	// Limit defaults to 20 and is capped at 100.
	Limit  int
	Offset int
}

// Validate normalizes limits.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrInvalidInput, "limit cannot be negative")
	}
	if q.Offset < 0 {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrInvalidInput, "offset cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// LeaderboardEntryDTO is one leaderboard row.
type LeaderboardEntryDTO struct {
	Rank         int      `json:"rank"`
	UserID       string   `json:"user_id"`
	Name         string   `json:"name"`
	Points       int      `json:"points"`
	Achievements []string `json:"achievements"`
}

// GetLeaderboardResult is a page of the leaderboard.
type GetLeaderboardResult struct {
	Entries       []LeaderboardEntryDTO `json:"entries"`
	Source        string                `json:"source"`
	AveragePoints int                   `json:"average_points"` // over the whole cohort
	HasMore       bool                  `json:"has_more"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// RankingReader reads the external ranking best-first.
// *redis.RankingCache implements it.
type RankingReader interface {
	TopEntries(ctx context.Context, cohort string, count int) ([]ranking.Entry, error)
	AveragePoints(ctx context.Context, cohort string) (int, error)
}

// StandingsReader reads the in-process standings.
type StandingsReader interface {
	Top(ctx context.Context, limit int) []projections.StandingsRow
	AveragePoints(ctx context.Context) int
}

// GetLeaderboardHandler handles GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	ranking   RankingReader
	standings StandingsReader
	logger    *logger.Logger
}

// NewGetLeaderboardHandler creates a handler. rankingReader may be nil.
func NewGetLeaderboardHandler(rankingReader RankingReader, standings StandingsReader, log *logger.Logger) *GetLeaderboardHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetLeaderboardHandler{
		ranking:   rankingReader,
		standings: standings,
		logger:    log.With(logger.Component("get_leaderboard")),
	}
}

// Handle returns one page of the leaderboard.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	// One extra row tells whether another page exists.
	want := q.Offset + q.Limit + 1

	rows, source, err := h.fromRanking(ctx, q.Cohort, want)
	if err != nil || rows == nil {
		if err != nil {
			h.logger.Warn("ranking unavailable, using standings", logger.Err(err))
		}
		rows, source = h.fromStandings(ctx, want), SourceStandings
	}

	result := &GetLeaderboardResult{Source: source, GeneratedAt: time.Now().UTC()}
	result.AveragePoints = h.cohortAverage(ctx, q.Cohort, source, rows)

	if q.Offset >= len(rows) {
		result.Entries = []LeaderboardEntryDTO{}
		return result, nil
	}
	page := rows[q.Offset:]
	if len(page) > q.Limit {
		page = page[:q.Limit]
		result.HasMore = true
	}
	result.Entries = page
	return result, nil
}

func (h *GetLeaderboardHandler) fromRanking(ctx context.Context, cohort string, n int) ([]LeaderboardEntryDTO, string, error) {
	if h.ranking == nil {
		return nil, "", nil
	}
	entries, err := h.ranking.TopEntries(ctx, cohort, n)
	if err != nil {
		return nil, "", err
	}
	if len(entries) == 0 {
		return nil, "", nil
	}

	out := make([]LeaderboardEntryDTO, 0, len(entries))
	rank, prev := 0, -1
	for i, e := range entries {
		if e.Points != prev {
			rank, prev = i+1, e.Points
		}
		out = append(out, LeaderboardEntryDTO{
			Rank:         rank,
			UserID:       e.UserID,
			Name:         e.Name,
			Points:       e.Points,
			Achievements: e.Achievements,
		})
	}
	return out, SourceRanking, nil
}

func (h *GetLeaderboardHandler) fromStandings(ctx context.Context, n int) []LeaderboardEntryDTO {
	if h.standings == nil {
		return []LeaderboardEntryDTO{}
	}
	rows := h.standings.Top(ctx, n)
	out := make([]LeaderboardEntryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, LeaderboardEntryDTO{
			Rank:         r.Rank,
			UserID:       r.UserID,
			Name:         r.Name,
			Points:       r.Points,
			Achievements: r.Achievements,
		})
	}
	return out
}

func (h *GetLeaderboardHandler) cohortAverage(ctx context.Context, cohort, source string, rows []LeaderboardEntryDTO) int {
	switch {
	case source == SourceRanking:
		avg, err := h.ranking.AveragePoints(ctx, cohort)
		if err == nil {
			return avg
		}
		h.logger.Warn("ranking average unavailable, averaging rows read", logger.Err(err))
	case h.standings != nil:
		return h.standings.AveragePoints(ctx)
	}
	return averagePoints(rows)
}

func averagePoints(rows []LeaderboardEntryDTO) int {
	if len(rows) == 0 {
		return 0
	}
	total := 0
	for _, r := range rows {
		total += r.Points
	}
	return total / len(rows)
}
