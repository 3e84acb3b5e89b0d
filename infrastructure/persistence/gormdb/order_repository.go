package gormdb

import (
	"context"
	"errors"

	"savoria/domain/order"
	"savoria/domain/shared"
	"savoria/infrastructure/persistence"
	"savoria/infrastructure/persistence/gormdb/po"
	"savoria/infrastructure/persistence/specification"

	"gorm.io/gorm"
)

// OrderRepository persists the order aggregate: the orders row, its items
// and the tracking entries appended since load.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// Save uses the transaction in ctx, or opens its own when called standalone.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return r.saveWithTx(tx, o)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveWithTx(tx, o)
	})
}

func (r *OrderRepository) saveWithTx(tx *gorm.DB, o *order.Order) error {
	row := po.FromOrderDomain(o)

	if o.IsNew() {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if err := r.insertItems(tx, o.ID(), o.Items()); err != nil {
			return err
		}
	} else {
		expectedVersion := o.Version()
		result := tx.Model(&po.OrderPO{}).
			Where("id = ? AND version = ?", o.ID(), expectedVersion).
			Updates(map[string]any{
				"status":                  row.Status,
				"payment_status":          row.PaymentStatus,
				"tax_rate":                row.TaxRate,
				"subtotal":                row.Subtotal,
				"tax":                     row.Tax,
				"delivery_fee":            row.DeliveryFee,
				"total":                   row.Total,
				"delivery_address":        row.DeliveryAddress,
				"notes":                   row.Notes,
				"estimated_delivery_time": row.EstimatedDeliveryTime,
				"actual_delivery_time":    row.ActualDeliveryTime,
				"version":                 expectedVersion + 1,
				"updated_at":              row.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&po.OrderPO{}).Where("id = ?", o.ID()).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return order.NewOrderNotFoundError(o.ID())
			}
			return order.NewConcurrentModificationError(o.ID())
		}

		if removed := o.RemovedItems(); len(removed) > 0 {
			ids := make([]string, len(removed))
			for i, item := range removed {
				ids[i] = item.ID()
			}
			if err := tx.Where("order_id = ? AND id IN ?", o.ID(), ids).Delete(&po.OrderItemPO{}).Error; err != nil {
				return err
			}
		}
		if err := r.insertItems(tx, o.ID(), o.AddedItems()); err != nil {
			return err
		}
		o.IncrementVersionForSave()
	}

	if entries := o.NewTracking(); len(entries) > 0 {
		rows := make([]po.OrderTrackingPO, len(entries))
		for i, e := range entries {
			rows[i] = po.FromTrackingEntry(e)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	o.ClearDirtyTracking()
	return nil
}

func (r *OrderRepository) insertItems(tx *gorm.DB, orderID string, items []order.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]po.OrderItemPO, len(items))
	for i, item := range items {
		rows[i] = po.FromOrderItem(orderID, item)
	}
	return tx.Create(&rows).Error
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	db := r.getDB(ctx)

	var row po.OrderPO
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.NewOrderNotFoundError(id)
		}
		return nil, err
	}

	items, err := r.loadItems(db, []string{id})
	if err != nil {
		return nil, err
	}
	return row.ToDomain(items[id]), nil
}

// FindByCustomerID loads all items in one query instead of one per order.
func (r *OrderRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*order.Order, error) {
	return r.FindBySpecification(ctx, order.NewByCustomerSpecification(customerID), 0)
}

func (r *OrderRepository) FindBySpecification(ctx context.Context, spec shared.Specification[*order.Order], limit int) ([]*order.Order, error) {
	scope, err := specification.OrderScope(spec)
	if err != nil {
		return nil, err
	}
	db := r.getDB(ctx)

	query := db.Scopes(scope).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []po.OrderPO
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*order.Order{}, nil
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	items, err := r.loadItems(db, ids)
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain(items[rows[i].ID])
	}
	return orders, nil
}

func (r *OrderRepository) loadItems(db *gorm.DB, orderIDs []string) (map[string][]po.OrderItemPO, error) {
	var rows []po.OrderItemPO
	if err := db.Where("order_id IN ?", orderIDs).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[string][]po.OrderItemPO, len(orderIDs))
	for _, row := range rows {
		byOrder[row.OrderID] = append(byOrder[row.OrderID], row)
	}
	return byOrder, nil
}

// ListTracking returns the timeline newest first. Entries written in the same
// instant fall back to id order, which follows creation order for UUIDv7.
func (r *OrderRepository) ListTracking(ctx context.Context, orderID string) ([]order.TrackingEntry, error) {
	var rows []po.OrderTrackingPO
	if err := r.getDB(ctx).
		Where("order_id = ?", orderID).
		Order("recorded_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]order.TrackingEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

var _ order.Repository = (*OrderRepository)(nil)
