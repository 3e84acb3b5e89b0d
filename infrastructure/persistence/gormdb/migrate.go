package gormdb

import (
	"context"
	"fmt"

	"savoria/infrastructure/persistence/gormdb/po"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every table owned or read by the service.
func Models() []any {
	return []any{
		&po.OrderPO{},
		&po.OrderItemPO{},
		&po.OrderTrackingPO{},
		&po.DeliveryPO{},
		&po.PaymentPO{},
		&po.OutboxEventPO{},
		&po.MenuItemPO{},
		&po.DriverPO{},
		&po.UserPO{},
	}
}

func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SeedData is reference data for local runs and tests.
type SeedData struct {
	MenuItems []po.MenuItemPO
	Drivers   []po.DriverPO
	Users     []po.UserPO
}

// Seed inserts rows that do not exist yet and leaves existing ones untouched.
func Seed(ctx context.Context, db *gorm.DB, data SeedData) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ignore := tx.Clauses(clause.OnConflict{DoNothing: true})
		if len(data.MenuItems) > 0 {
			if err := ignore.Create(&data.MenuItems).Error; err != nil {
				return fmt.Errorf("failed to seed menu items: %w", err)
			}
		}
		if len(data.Drivers) > 0 {
			if err := ignore.Create(&data.Drivers).Error; err != nil {
				return fmt.Errorf("failed to seed drivers: %w", err)
			}
		}
		if len(data.Users) > 0 {
			if err := ignore.Create(&data.Users).Error; err != nil {
				return fmt.Errorf("failed to seed users: %w", err)
			}
		}
		return nil
	})
}
