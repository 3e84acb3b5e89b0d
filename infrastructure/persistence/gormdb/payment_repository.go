package gormdb

import (
	"context"
	"errors"

	"savoria/domain/payment"
	"savoria/infrastructure/persistence"
	"savoria/infrastructure/persistence/gormdb/po"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	db := r.getDB(ctx)
	row := po.FromPaymentDomain(p)

	if p.IsNew() {
		if err := db.Create(row).Error; err != nil {
			return err
		}
		p.ClearDirtyTracking()
		return nil
	}

	expectedVersion := p.Version()
	result := db.Model(&po.PaymentPO{}).
		Where("id = ? AND version = ?", p.ID(), expectedVersion).
		Updates(map[string]any{
			"amount":           row.Amount,
			"status":           row.Status,
			"reference":        row.Reference,
			"slip_status":      row.SlipStatus,
			"slip_reviewed_by": row.SlipReviewedBy,
			"slip_reviewed_at": row.SlipReviewedAt,
			"slip_rejection":   row.SlipRejection,
			"slip_notes":       row.SlipNotes,
			"refund_amount":    row.RefundAmount,
			"refunded_at":      row.RefundedAt,
			"refund_reason":    row.RefundReason,
			"refund_reference": row.RefundReference,
			"version":          expectedVersion + 1,
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&po.PaymentPO{}).Where("id = ?", p.ID()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return payment.NewPaymentNotFoundError(p.ID())
		}
		return payment.NewConcurrentModificationError(p.ID())
	}

	p.IncrementVersionForSave()
	p.ClearDirtyTracking()
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	var row po.PaymentPO
	if err := r.getDB(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.NewPaymentNotFoundError(id)
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindByIDForUpdate locks the payment row until the surrounding transaction
// ends. SQLite has no row locks; its single connection serializes
// transactions instead.
func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id string) (*payment.Payment, error) {
	var row po.PaymentPO
	err := r.getDB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.NewPaymentNotFoundError(id)
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) ([]*payment.Payment, error) {
	var rows []po.PaymentPO
	if err := r.getDB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	payments := make([]*payment.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, nil
}

var _ payment.Repository = (*PaymentRepository)(nil)
