package achievement

import (
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

// Owner identifies whose state this is, for observers and reports.
type Owner struct {
	ID   string
	Name string
}

// UserState is a user's points and unlocked achievement names.
// It is owned by a single session and is not safe for concurrent mutation.
type UserState struct {
	owner    Owner
	points   int
	unlocked NameSet
	order    []string
}

// NewUserState creates an empty state for owner.
func NewUserState(owner Owner) *UserState {
	return &UserState{
		owner:    owner,
		unlocked: make(NameSet),
	}
}

// Owner returns the owner recorded at construction.
func (s *UserState) Owner() Owner {
	return s.owner
}

// Points returns the current point total.
func (s *UserState) Points() int {
	return s.points
}

// AddPoints increases the point total. Negative amounts are rejected and
// leave the state unchanged.
func (s *UserState) AddPoints(n int) error {
	if n < 0 {
		return shared.ErrInvalidArgument.Detail("cannot add %d points", n)
	}
	s.points += n
	return nil
}

// HasUnlocked reports whether name is unlocked.
func (s *UserState) HasUnlocked(name string) bool {
	return s.unlocked.Has(name)
}

// UnlockedNames returns unlocked names in unlock order.
func (s *UserState) UnlockedNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// UnlockedCount returns the number of unlocked achievements.
func (s *UserState) UnlockedCount() int {
	return len(s.order)
}

// snapshot returns a copy of the unlocked set for evaluation.
func (s *UserState) snapshot() NameSet {
	set := make(NameSet, len(s.unlocked))
	for n := range s.unlocked {
		set.add(n)
	}
	return set
}

// unlock records name. Only the registry calls this.
func (s *UserState) unlock(name string) bool {
	if s.unlocked.Has(name) {
		return false
	}
	s.unlocked.add(name)
	s.order = append(s.order, name)
	return true
}
