// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the domain. All events are published post-commit.
const (
	// Learner events
	EventLearnerRegistered EventType = "learner.registered"
	EventLevelSelected     EventType = "learner.level_selected"

	// Subscription events
	EventSubscriptionActivated  EventType = "subscription.activated"
	EventSubscriptionDowngraded EventType = "subscription.downgraded"

	// Progression events
	EventLessonCompleted EventType = "progression.lesson_completed"
	EventLearnerPromoted EventType = "progression.promoted"

	// Streak events
	EventStreakExtended EventType = "streak.extended"
	EventStreakBroken   EventType = "streak.broken"
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
	ID            string    `json:"id"`
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
		ID:          uuid.NewString(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when a new learner registers.
type LearnerRegisteredEvent struct {
	BaseEvent
	LearnerID   string `json:"learner_id"`
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e LearnerRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":   e.LearnerID,
		"display_name": e.DisplayName,
	}
}

// NewLearnerRegisteredEvent creates a new LearnerRegisteredEvent.
func NewLearnerRegisteredEvent(learnerID, displayName string) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventLearnerRegistered, learnerID),
		LearnerID:   learnerID,
		DisplayName: displayName,
	}
}

// LevelSelectedEvent is emitted when a learner picks a starting level.
type LevelSelectedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	Level     string `json:"level"`
}

// Payload implements Event interface.
func (e LevelSelectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"level":      e.Level,
	}
}

// NewLevelSelectedEvent creates a new LevelSelectedEvent.
func NewLevelSelectedEvent(learnerID, level string) LevelSelectedEvent {
	return LevelSelectedEvent{
		BaseEvent: NewBaseEvent(EventLevelSelected, learnerID),
		LearnerID: learnerID,
		Level:     level,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Subscription Events
// ═══════════════════════════════════════════════════════════════════════════

// SubscriptionActivatedEvent is emitted when a premium plan is applied.
type SubscriptionActivatedEvent struct {
	BaseEvent
	LearnerID string     `json:"learner_id"`
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Payload implements Event interface.
func (e SubscriptionActivatedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"learner_id": e.LearnerID,
		"plan":       e.Plan,
	}
	if e.ExpiresAt != nil {
		p["expires_at"] = e.ExpiresAt.Format(time.RFC3339)
	}
	return p
}

// NewSubscriptionActivatedEvent creates a new SubscriptionActivatedEvent.
func NewSubscriptionActivatedEvent(learnerID, plan string, expiresAt *time.Time) SubscriptionActivatedEvent {
	return SubscriptionActivatedEvent{
		BaseEvent: NewBaseEvent(EventSubscriptionActivated, learnerID),
		LearnerID: learnerID,
		Plan:      plan,
		ExpiresAt: expiresAt,
	}
}

// SubscriptionDowngradedEvent is emitted when an expired subscription
// is lazily downgraded to free during a read or write path.
type SubscriptionDowngradedEvent struct {
	BaseEvent
	LearnerID    string    `json:"learner_id"`
	ExpiredPlan  string    `json:"expired_plan"`
	ExpiredAt    time.Time `json:"expired_at"`
	DowngradedAt time.Time `json:"downgraded_at"`
}

// Payload implements Event interface.
func (e SubscriptionDowngradedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":    e.LearnerID,
		"expired_plan":  e.ExpiredPlan,
		"expired_at":    e.ExpiredAt.Format(time.RFC3339),
		"downgraded_at": e.DowngradedAt.Format(time.RFC3339),
	}
}

// NewSubscriptionDowngradedEvent creates a new SubscriptionDowngradedEvent.
func NewSubscriptionDowngradedEvent(learnerID, expiredPlan string, expiredAt, downgradedAt time.Time) SubscriptionDowngradedEvent {
	return SubscriptionDowngradedEvent{
		BaseEvent:    NewBaseEvent(EventSubscriptionDowngraded, learnerID),
		LearnerID:    learnerID,
		ExpiredPlan:  expiredPlan,
		ExpiredAt:    expiredAt,
		DowngradedAt: downgradedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a learner completes a lesson.
type LessonCompletedEvent struct {
	BaseEvent
	LearnerID      string `json:"learner_id"`
	LessonID       string `json:"lesson_id"`
	Level          string `json:"level"`
	CoinsAwarded   int    `json:"coins_awarded"`
	NewCoinBalance int    `json:"new_coin_balance"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":       e.LearnerID,
		"lesson_id":        e.LessonID,
		"level":            e.Level,
		"coins_awarded":    e.CoinsAwarded,
		"new_coin_balance": e.NewCoinBalance,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(learnerID, lessonID, level string, coinsAwarded, newBalance int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:      NewBaseEvent(EventLessonCompleted, learnerID),
		LearnerID:      learnerID,
		LessonID:       lessonID,
		Level:          level,
		CoinsAwarded:   coinsAwarded,
		NewCoinBalance: newBalance,
	}
}

// LearnerPromotedEvent is emitted when a learner advances to the next level.
type LearnerPromotedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	OldLevel  string `json:"old_level"`
	NewLevel  string `json:"new_level"`
	Bonus     int    `json:"bonus"`
}

// Payload implements Event interface.
func (e LearnerPromotedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"bonus":      e.Bonus,
	}
}

// NewLearnerPromotedEvent creates a new LearnerPromotedEvent.
func NewLearnerPromotedEvent(learnerID, oldLevel, newLevel string, bonus int) LearnerPromotedEvent {
	return LearnerPromotedEvent{
		BaseEvent: NewBaseEvent(EventLearnerPromoted, learnerID),
		LearnerID: learnerID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		Bonus:     bonus,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakExtendedEvent is emitted when a learner's streak grows.
type StreakExtendedEvent struct {
	BaseEvent
	LearnerID     string `json:"learner_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// Payload implements Event interface.
func (e StreakExtendedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":     e.LearnerID,
		"current_streak": e.CurrentStreak,
		"longest_streak": e.LongestStreak,
	}
}

// NewStreakExtendedEvent creates a new StreakExtendedEvent.
func NewStreakExtendedEvent(learnerID string, current, longest int) StreakExtendedEvent {
	return StreakExtendedEvent{
		BaseEvent:     NewBaseEvent(EventStreakExtended, learnerID),
		LearnerID:     learnerID,
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

// StreakBrokenEvent is emitted when activity after a gap resets the streak.
type StreakBrokenEvent struct {
	BaseEvent
	LearnerID      string `json:"learner_id"`
	PreviousStreak int    `json:"previous_streak"`
	DaysMissed     int    `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":      e.LearnerID,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(learnerID string, previousStreak, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, learnerID),
		LearnerID:      learnerID,
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
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
