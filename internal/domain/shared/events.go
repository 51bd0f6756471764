// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Subscribers use them to keep read caches in sync.
const (
	// Bonus events
	EventBonusCreated EventType = "bonus.created"
	EventBonusUpdated EventType = "bonus.updated"
	EventBonusDeleted EventType = "bonus.deleted"

	// Leaderboard events
	EventLeaderboardCreated EventType = "leaderboard.created"
	EventLeaderboardUpdated EventType = "leaderboard.updated"
	EventLeaderboardDeleted EventType = "leaderboard.deleted"

	// Counter events
	EventCounterBumped EventType = "counter.bumped"
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

// EventPublisher is the port commands use to announce changes.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventHandler reacts to a published event.
type EventHandler func(ctx context.Context, event Event) error

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

// ═══════════════════════════════════════════════════════════════════════════
// Content Events
// ═══════════════════════════════════════════════════════════════════════════

// ContentChangedEvent is emitted whenever an admin writes a bonus or a leaderboard.
type ContentChangedEvent struct {
	BaseEvent
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Payload implements Event interface.
func (e ContentChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":   e.Name,
		"active": e.Active,
	}
}

// NewContentChangedEvent creates a new ContentChangedEvent.
func NewContentChangedEvent(eventType EventType, id, name string, active bool) ContentChangedEvent {
	return ContentChangedEvent{
		BaseEvent: NewBaseEvent(eventType, id),
		Name:      name,
		Active:    active,
	}
}

// IsBonusEvent reports whether the event belongs to the bonus aggregate.
func (e ContentChangedEvent) IsBonusEvent() bool {
	switch e.Type {
	case EventBonusCreated, EventBonusUpdated, EventBonusDeleted:
		return true
	}
	return false
}

// ═══════════════════════════════════════════════════════════════════════════
// Counter Events
// ═══════════════════════════════════════════════════════════════════════════

// CounterBumpedEvent is emitted after the scheduled organic-growth bump.
type CounterBumpedEvent struct {
	BaseEvent
	Increment   int64 `json:"increment"`
	TotalJoined int64 `json:"total_joined"`
}

// Payload implements Event interface.
func (e CounterBumpedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"increment":    e.Increment,
		"total_joined": e.TotalJoined,
	}
}

// NewCounterBumpedEvent creates a new CounterBumpedEvent.
func NewCounterBumpedEvent(increment, total int64) CounterBumpedEvent {
	return CounterBumpedEvent{
		BaseEvent:   NewBaseEvent(EventCounterBumped, "counter"),
		Increment:   increment,
		TotalJoined: total,
	}
}
