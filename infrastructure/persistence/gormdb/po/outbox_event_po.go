package po

import (
	"encoding/json"
	"fmt"
	"time"

	"savoria/domain/shared"

	"github.com/google/uuid"
)

// OutboxEventPO one row per domain event, written in the same transaction
// as the aggregate change that produced it.
type OutboxEventPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	AggregateID string    `gorm:"size:64;index;not null"`
	EventType   string    `gorm:"size:100;index;not null"`
	Payload     string    `gorm:"type:text;not null"`
	Status      string    `gorm:"size:20;index;not null;default:PENDING"`
	RetryCount  int       `gorm:"not null;default:0"`
	LastError   string    `gorm:"size:1000"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (OutboxEventPO) TableName() string {
	return "outbox_events"
}

type EventStatus string

const (
	EventStatusPending    EventStatus = "PENDING"
	EventStatusProcessing EventStatus = "PROCESSING"
	EventStatusPublished  EventStatus = "PUBLISHED"
	EventStatusFailed     EventStatus = "FAILED"
)

// EventEnvelope is the JSON document stored in Payload and published to the broker.
type EventEnvelope struct {
	EventID     string         `json:"event_id"`
	EventName   string         `json:"event_name"`
	AggregateID string         `json:"aggregate_id"`
	OccurredOn  time.Time      `json:"occurred_on"`
	Data        map[string]any `json:"data,omitempty"`
}

func FromDomainEvent(event shared.DomainEvent) (*OutboxEventPO, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate outbox event ID: %w", err)
	}

	envelope := EventEnvelope{
		EventID:     id.String(),
		EventName:   event.EventName(),
		AggregateID: event.GetAggregateID(),
		OccurredOn:  event.OccurredOn().UTC(),
	}
	if carrier, ok := event.(shared.PayloadCarrier); ok {
		envelope.Data = carrier.Payload()
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event %s: %w", event.EventName(), err)
	}

	now := time.Now()
	return &OutboxEventPO{
		ID:          envelope.EventID,
		AggregateID: envelope.AggregateID,
		EventType:   envelope.EventName,
		Payload:     string(payload),
		Status:      string(EventStatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Envelope decodes Payload.
func (p *OutboxEventPO) Envelope() (EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal([]byte(p.Payload), &env); err != nil {
		return EventEnvelope{}, fmt.Errorf("failed to decode outbox event %s: %w", p.ID, err)
	}
	return env, nil
}
