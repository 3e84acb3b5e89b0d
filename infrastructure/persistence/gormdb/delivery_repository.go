package gormdb

import (
	"context"
	"errors"

	"savoria/domain/delivery"
	"savoria/infrastructure/persistence"
	"savoria/infrastructure/persistence/gormdb/po"

	"gorm.io/gorm"
)

type DeliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *DeliveryRepository) Save(ctx context.Context, d *delivery.Delivery) error {
	db := r.getDB(ctx)
	row := po.FromDeliveryDomain(d)

	if d.IsNew() {
		if err := db.Create(row).Error; err != nil {
			return err
		}
		d.ClearDirtyTracking()
		return nil
	}

	expectedVersion := d.Version()
	result := db.Model(&po.DeliveryPO{}).
		Where("id = ? AND version = ?", d.ID(), expectedVersion).
		Updates(map[string]any{
			"status":            row.Status,
			"driver_id":         row.DriverID,
			"driver_name":       row.DriverName,
			"driver_phone":      row.DriverPhone,
			"driver_vehicle":    row.DriverVehicle,
			"assigned_at":       row.AssignedAt,
			"picked_up_at":      row.PickedUpAt,
			"delivered_at":      row.DeliveredAt,
			"cash_amount":       row.CashAmount,
			"cash_confirmed":    row.CashConfirmed,
			"cash_collected_at": row.CashCollectedAt,
			"version":           expectedVersion + 1,
			"updated_at":        row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&po.DeliveryPO{}).Where("id = ?", d.ID()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return delivery.NewDeliveryNotFoundError(d.ID())
		}
		return delivery.NewConcurrentModificationError(d.ID())
	}

	d.IncrementVersionForSave()
	d.ClearDirtyTracking()
	return nil
}

func (r *DeliveryRepository) FindByID(ctx context.Context, id string) (*delivery.Delivery, error) {
	var row po.DeliveryPO
	if err := r.getDB(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, delivery.NewDeliveryNotFoundError(id)
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

func (r *DeliveryRepository) FindByOrderID(ctx context.Context, orderID string) (*delivery.Delivery, error) {
	var row po.DeliveryPO
	if err := r.getDB(ctx).First(&row, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, delivery.NewDeliveryNotFoundError("order:" + orderID)
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

var _ delivery.Repository = (*DeliveryRepository)(nil)
