package gormdb

import (
	"context"
	"errors"
	"time"

	"savoria/config"
	"savoria/domain/directory"
	"savoria/pkg/logger"

	"go.uber.org/zap"
)

// RelayOptions zero fields take the defaults below.
type RelayOptions struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
}

func RelayOptionsFromConfig(c config.WorkerConfig) RelayOptions {
	return RelayOptions{PollInterval: c.PollInterval, BatchSize: c.BatchSize, MaxRetries: c.MaxRetries}
}

func (o RelayOptions) withDefaults() RelayOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 5
	}
	return o
}

// OutboxRelay hands committed outbox events to the notification publisher.
// Delivery is at least once: an event published but not marked is sent again.
type OutboxRelay struct {
	outbox    *OutboxRepository
	publisher directory.Publisher
	opts      RelayOptions
}

func NewOutboxRelay(outbox *OutboxRepository, publisher directory.Publisher, opts RelayOptions) (*OutboxRelay, error) {
	if outbox == nil || publisher == nil {
		return nil, errors.New("outbox relay needs an outbox repository and a publisher")
	}
	return &OutboxRelay{outbox: outbox, publisher: publisher, opts: opts.withDefaults()}, nil
}

// Run drains the backlog, then polls until ctx is cancelled. Cancellation is
// a normal stop and returns nil.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		r.drain(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// drain keeps relaying while whole batches go out. Failed events wait for
// the next tick.
func (r *OutboxRelay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		published, err := r.RelayBatch(ctx)
		if err != nil {
			logger.Error("outbox relay batch failed", zap.Error(err))
			return
		}
		if published < r.opts.BatchSize {
			return
		}
	}
}

// RelayBatch publishes up to one batch of pending events and returns how many
// went out.
func (r *OutboxRelay) RelayBatch(ctx context.Context) (int, error) {
	events, err := r.outbox.GetPendingEvents(ctx, r.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		log := logger.Get().With(zap.String("event_id", event.ID), zap.String("event_type", event.EventType))

		if err := r.outbox.MarkEventProcessing(ctx, event.ID); err != nil {
			log.Debug("outbox event claimed elsewhere", zap.Error(err))
			continue
		}

		err := r.publisher.Publish(ctx, directory.Message{
			ID:          event.ID,
			Topic:       event.EventType,
			AggregateID: event.AggregateID,
			Payload:     []byte(event.Payload),
		})
		if err != nil {
			log.Warn("outbox publish failed", zap.Int("attempt", event.RetryCount+1), zap.Error(err))
			if markErr := r.outbox.MarkEventFailed(ctx, event.ID, err, r.opts.MaxRetries); markErr != nil {
				log.Error("outbox event could not be marked failed", zap.Error(markErr))
			}
			continue
		}
		if err := r.outbox.MarkEventPublished(ctx, event.ID); err != nil {
			log.Error("outbox event could not be marked published", zap.Error(err))
			continue
		}
		published++
	}
	return published, nil
}
