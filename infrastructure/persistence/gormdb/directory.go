package gormdb

import (
	"context"
	"errors"

	"savoria/domain/delivery"
	"savoria/domain/directory"
	"savoria/domain/shared"
	"savoria/domain/user"
	"savoria/infrastructure/persistence"
	"savoria/infrastructure/persistence/gormdb/po"

	"gorm.io/gorm"
)

// MenuCatalog reads menu_items.
type MenuCatalog struct {
	db *gorm.DB
}

func NewMenuCatalog(db *gorm.DB) *MenuCatalog {
	return &MenuCatalog{db: db}
}

func (c *MenuCatalog) GetMenuItem(ctx context.Context, id string) (*directory.MenuItem, error) {
	var row po.MenuItemPO
	if err := dbFor(ctx, c.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("menu_item", id)
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// DriverDirectory reads and flips driver availability inside the caller's transaction.
type DriverDirectory struct {
	db *gorm.DB
}

func NewDriverDirectory(db *gorm.DB) *DriverDirectory {
	return &DriverDirectory{db: db}
}

func (d *DriverDirectory) GetDriver(ctx context.Context, id string) (*directory.Driver, error) {
	var row po.DriverPO
	if err := dbFor(ctx, d.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("driver", id)
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// SetAvailability claims a driver when available is false. Claiming a driver
// that is already unavailable fails, so two concurrent assignments cannot
// both take the same driver.
func (d *DriverDirectory) SetAvailability(ctx context.Context, id string, available bool) error {
	db := dbFor(ctx, d.db)
	query := db.Model(&po.DriverPO{}).Where("id = ?", id)
	if !available {
		query = query.Where("available = ?", true)
	}
	result := query.Updates(map[string]any{
		"available":  available,
		"updated_at": db.NowFunc(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&po.DriverPO{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.NewNotFoundError("driver", id)
	}
	if !available {
		return delivery.NewDriverUnavailableError(id)
	}
	return nil
}

// UserDirectory reads users.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (u *UserDirectory) FindByID(ctx context.Context, id string) (*user.User, error) {
	return u.findOne(ctx, "id = ?", id, id)
}

func (u *UserDirectory) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	return u.findOne(ctx, "username = ?", username, username)
}

func (u *UserDirectory) findOne(ctx context.Context, cond, arg, label string) (*user.User, error) {
	var row po.UserPO
	if err := dbFor(ctx, u.db).First(&row, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.NewUserNotFoundError(label)
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

func dbFor(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

var (
	_ directory.MenuCatalog     = (*MenuCatalog)(nil)
	_ directory.DriverDirectory = (*DriverDirectory)(nil)
	_ user.Directory            = (*UserDirectory)(nil)
)
