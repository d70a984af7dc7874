// Package ranking forwards user totals to an external ranking.
package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/user"
	"github.com/alem-hub/achievement-hub/pkg/logger"
)

// Entry is what the ranking stores for one user.
type Entry struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Points       int       `json:"points"`
	Achievements []string  `json:"achievements"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EntryFromState builds an entry from read accessors of an achievement state.
func EntryFromState(state *achievement.UserState) Entry {
	owner := state.Owner()
	return Entry{
		UserID:       owner.ID,
		Name:         owner.Name,
		Points:       state.Points(),
		Achievements: state.UnlockedNames(),
		UpdatedAt:    time.Now().UTC(),
	}
}

// EntryFromUser builds an entry for u.
func EntryFromUser(u *user.User) Entry {
	return EntryFromState(u.State())
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %d points, achievements=[%s]", e.Name, e.Points, strings.Join(e.Achievements, ", "))
}

// Store is an external ranking.
type Store interface {
	Upsert(ctx context.Context, cohort string, entry Entry) error
}

// LogStore is a Store that only logs what it receives. It stands in when no
// ranking backend is configured.
type LogStore struct {
	logger *logger.Logger
}

// NewLogStore creates a LogStore.
func NewLogStore(log *logger.Logger) *LogStore {
	if log == nil {
		log = logger.Nop()
	}
	return &LogStore{logger: log.With(logger.Component("ranking_log"))}
}

// Upsert implements Store.
func (s *LogStore) Upsert(_ context.Context, cohort string, entry Entry) error {
	s.logger.Info("sending to ranking",
		logger.String("cohort", cohort),
		logger.UserID(entry.UserID),
		logger.UserName(entry.Name),
		logger.Points(entry.Points),
		logger.Any("achievements", entry.Achievements),
	)
	return nil
}
