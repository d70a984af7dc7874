package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

const (
	// User events
	EventUserCreated EventType = "user.created"

	// Progress events
	EventPointsAwarded       EventType = "progress.points_awarded"
	EventChallengeCompleted  EventType = "progress.challenge_completed"
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// History events
	EventActionRecorded EventType = "history.action_recorded"
	EventActionUndone   EventType = "history.action_undone"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// UserCreatedEvent is emitted when a user joins a session.
type UserCreatedEvent struct {
	BaseEvent
	Name string `json:"name"`
	Role string `json:"role"`
}

// Payload implements Event interface.
func (e UserCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name": e.Name,
		"role": e.Role,
	}
}

// NewUserCreatedEvent creates a new UserCreatedEvent.
func NewUserCreatedEvent(userID, name, role string) UserCreatedEvent {
	return UserCreatedEvent{
		BaseEvent: NewBaseEvent(EventUserCreated, userID),
		Name:      name,
		Role:      role,
	}
}

// PointsAwardedEvent is emitted after points were added and achievements evaluated.
type PointsAwardedEvent struct {
	BaseEvent
	Amount   int      `json:"amount"`
	NewTotal int      `json:"new_total"`
	Source   string   `json:"source"`
	Unlocked []string `json:"unlocked,omitempty"`
}

// Payload implements Event interface.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
		"unlocked":  e.Unlocked,
	}
}

// NewPointsAwardedEvent creates a new PointsAwardedEvent.
func NewPointsAwardedEvent(userID string, amount, newTotal int, source string, unlocked []string) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent: NewBaseEvent(EventPointsAwarded, userID),
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
		Unlocked:  unlocked,
	}
}

// ChallengeCompletedEvent is emitted when a challenge submission is scored.
type ChallengeCompletedEvent struct {
	BaseEvent
	Challenge string `json:"challenge"`
	Strategy  string `json:"strategy"`
	Score     int    `json:"score"`
}

// Payload implements Event interface.
func (e ChallengeCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"challenge": e.Challenge,
		"strategy":  e.Strategy,
		"score":     e.Score,
	}
}

// NewChallengeCompletedEvent creates a new ChallengeCompletedEvent.
func NewChallengeCompletedEvent(userID, challenge, strategy string, score int) ChallengeCompletedEvent {
	return ChallengeCompletedEvent{
		BaseEvent: NewBaseEvent(EventChallengeCompleted, userID),
		Challenge: challenge,
		Strategy:  strategy,
		Score:     score,
	}
}

// AchievementUnlockedEvent is emitted once per newly unlocked achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserName    string `json:"user_name"`
	Achievement string `json:"achievement"`
	Kind        string `json:"kind"`
	Points      int    `json:"points"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_name":   e.UserName,
		"achievement": e.Achievement,
		"kind":        e.Kind,
		"points":      e.Points,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, userName, achievement, kind string, points int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:   NewBaseEvent(EventAchievementUnlocked, userID),
		UserName:    userName,
		Achievement: achievement,
		Kind:        kind,
		Points:      points,
	}
}

// ActionEvent is emitted when the action history changes.
type ActionEvent struct {
	BaseEvent
	Description string `json:"description"`
}

// Payload implements Event interface.
func (e ActionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"description": e.Description,
	}
}

// NewActionEvent creates an ActionEvent of the given type (recorded or undone).
func NewActionEvent(eventType EventType, sessionID, description string) ActionEvent {
	return ActionEvent{
		BaseEvent:   NewBaseEvent(eventType, sessionID),
		Description: description,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
