package cmd

import (
	"context"
	"fmt"

	"savoria/api/health"
	"savoria/config"
	"savoria/domain/delivery"
	"savoria/domain/directory"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"
	"savoria/domain/user"
	"savoria/infrastructure/persistence/gormdb"
	"savoria/infrastructure/persistence/memory"
	"savoria/infrastructure/persistence/retry"
	"savoria/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// backend is one storage choice with every repository and directory bound to it.
type backend struct {
	orders     order.Repository
	deliveries delivery.Repository
	payments   payment.Repository
	menu       directory.MenuCatalog
	drivers    directory.DriverDirectory
	users      user.Directory
	uow        shared.UnitOfWorkFactory

	// nil for the memory store
	db     *gorm.DB
	probes []health.Probe
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	retryConfig := retry.FromAppConfig(cfg)

	if cfg.Database.Type == "memory" {
		logger.Info("Using in-memory persistence")
		store := memory.NewStore()
		if cfg.IsDevelopment() {
			seedMemory(store)
		}
		return &backend{
			orders:     memory.NewOrderRepository(store),
			deliveries: memory.NewDeliveryRepository(store),
			payments:   memory.NewPaymentRepository(store),
			menu:       memory.NewMenuCatalog(store),
			drivers:    memory.NewDriverDirectory(store),
			users:      memory.NewUserDirectory(store),
			uow:        memory.NewUnitOfWorkFactory(store, retryConfig),
		}, nil
	}

	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return &backend{
		orders:     gormdb.NewOrderRepository(db),
		deliveries: gormdb.NewDeliveryRepository(db),
		payments:   gormdb.NewPaymentRepository(db),
		menu:       gormdb.NewMenuCatalog(db),
		drivers:    gormdb.NewDriverDirectory(db),
		users:      gormdb.NewUserDirectory(db),
		uow:        gormdb.NewUnitOfWorkFactory(db, retryConfig),
		db:         db,
		probes:     []health.Probe{health.PingProbe("database", sqlDB)},
	}, nil
}

// connect opens the SQL database, checks it and applies migrations when enabled.
// The outbox worker shares it.
func connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	opts := gormdb.OptionsFromConfig(cfg.Database)
	db, err := opts.Connect()
	if err != nil {
		return nil, err
	}
	if err := gormdb.Ping(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Database.Type, err)
	}

	if cfg.Database.AutoMigrate {
		if err := gormdb.AutoMigrate(ctx, db); err != nil {
			return nil, err
		}
		if cfg.IsDevelopment() {
			if err := gormdb.Seed(ctx, db, sqlSeed()); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("Connected to database", zap.String("type", cfg.Database.Type))
	return db, nil
}

func (b *backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
