package shared

import (
	"fmt"
	"time"
)

type DomainEvent interface {
	EventName() string
	OccurredOn() time.Time
	GetAggregateID() string
}

// PayloadCarrier is implemented by events that expose structured data for the outbox.
type PayloadCarrier interface {
	Payload() map[string]any
}

// BaseEvent is a ready-made DomainEvent used by the domain packages.
type BaseEvent struct {
	name        string
	aggregateID string
	occurredOn  time.Time
	payload     map[string]any
}

func NewEvent(name, aggregateID string, occurredOn time.Time, payload map[string]any) *BaseEvent {
	return &BaseEvent{
		name:        name,
		aggregateID: aggregateID,
		occurredOn:  occurredOn,
		payload:     payload,
	}
}

func (e *BaseEvent) EventName() string      { return e.name }
func (e *BaseEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *BaseEvent) GetAggregateID() string { return e.aggregateID }

func (e *BaseEvent) Payload() map[string]any {
	out := make(map[string]any, len(e.payload))
	for k, v := range e.payload {
		out[k] = v
	}
	return out
}

func ValidateEvent(event DomainEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	if event.EventName() == "" {
		return fmt.Errorf("event name cannot be empty")
	}

	if event.GetAggregateID() == "" {
		return fmt.Errorf("aggregate ID cannot be empty")
	}

	if event.OccurredOn().IsZero() {
		return fmt.Errorf("occurred on time cannot be zero")
	}

	return nil
}
