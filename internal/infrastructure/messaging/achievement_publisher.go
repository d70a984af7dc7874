package messaging

import (
	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
)

// AchievementPublisher is an achievement observer that republishes every
// unlock as an AchievementUnlockedEvent.
type AchievementPublisher struct {
	publisher shared.EventPublisher
}

// NewAchievementPublisher creates an observer publishing to publisher.
func NewAchievementPublisher(publisher shared.EventPublisher) *AchievementPublisher {
	return &AchievementPublisher{publisher: publisher}
}

// ObserverName implements achievement.NamedObserver.
func (p *AchievementPublisher) ObserverName() string {
	return "event_publisher"
}

// OnUnlock implements achievement.Observer.
func (p *AchievementPublisher) OnUnlock(state *achievement.UserState, item achievement.Item) error {
	owner := state.Owner()
	return p.publisher.Publish(shared.NewAchievementUnlockedEvent(
		owner.ID,
		owner.Name,
		item.Name(),
		string(item.Kind()),
		state.Points(),
	))
}
