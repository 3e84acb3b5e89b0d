// Package broker publishes outbox events as notifications.
package broker

import (
	"context"

	"savoria/domain/directory"

	"go.uber.org/zap"
)

// LogPublisher writes every message to the log. It is the default when no
// broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, msg directory.Message) error {
	p.log.Info("notification",
		zap.String("message_id", msg.ID),
		zap.String("topic", msg.Topic),
		zap.String("aggregate_id", msg.AggregateID),
		zap.ByteString("payload", msg.Payload),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

var _ directory.Publisher = (*LogPublisher)(nil)
