package gormdb

import (
	"context"
	"fmt"
	"time"

	"savoria/domain/shared"
	"savoria/infrastructure/persistence"
	"savoria/infrastructure/persistence/gormdb/po"

	"gorm.io/gorm"
)

// OutboxRepository implements the transactional outbox on the outbox_events table.
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// SaveEvent must run inside the transaction that changed the aggregate.
func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return fmt.Errorf("invalid domain event: %w", err)
	}

	row, err := po.FromDomainEvent(event)
	if err != nil {
		return err
	}
	if err := r.getDB(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}
	return nil
}

// GetPendingEvents returns up to limit PENDING events, oldest first.
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*po.OutboxEventPO, error) {
	var events []*po.OutboxEventPO
	err := r.getDB(ctx).
		Where("status = ?", string(po.EventStatusPending)).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

// MarkEventProcessing claims an event. It fails when another worker claimed it first.
func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string) error {
	result := r.getDB(ctx).Model(&po.OutboxEventPO{}).
		Where("id = ? AND status = ?", eventID, string(po.EventStatusPending)).
		Updates(map[string]any{
			"status":     string(po.EventStatusProcessing),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found or already being processed: %s", eventID)
	}
	return nil
}

func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	result := r.getDB(ctx).Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"status":     string(po.EventStatusPublished),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found: %s", eventID)
	}
	return nil
}

// MarkEventFailed puts the event back to PENDING until maxRetries is reached, then FAILED.
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, cause error, maxRetries int) error {
	db := r.getDB(ctx)

	var event po.OutboxEventPO
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	retries := event.RetryCount + 1
	status := po.EventStatusFailed
	if retries < maxRetries {
		status = po.EventStatusPending
	}
	lastError := ""
	if cause != nil {
		lastError = truncate(cause.Error(), 1000)
	}

	return db.Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"status":      string(status),
			"retry_count": retries,
			"last_error":  lastError,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// CountByStatus is used by the readiness probe and tests.
func (r *OutboxRepository) CountByStatus(ctx context.Context, status po.EventStatus) (int64, error) {
	var n int64
	err := r.getDB(ctx).Model(&po.OutboxEventPO{}).Where("status = ?", string(status)).Count(&n).Error
	return n, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ shared.OutboxRepository = (*OutboxRepository)(nil)
