package gormdb

import (
	"context"
	"fmt"

	"savoria/domain/shared"
	"savoria/infrastructure/persistence"
	"savoria/infrastructure/persistence/retry"

	"gorm.io/gorm"
)

// UnitOfWork runs one business operation in a database transaction. Events
// of every registered aggregate are written to the outbox inside the same
// transaction, after fn succeeds.
type UnitOfWork struct {
	db         *gorm.DB
	outbox     *OutboxRepository
	retry      retry.Config
	aggregates []shared.AggregateRoot
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db, outbox: NewOutboxRepository(db), retry: retry.DefaultConfig}
}

// Execute retries the whole transaction on deadlocks and lock timeouts unless
// ctx was marked with shared.WithoutRetry. A nested call joins the
// transaction already present in ctx.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if persistence.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	return retry.ExecuteWithRetry(ctx, u.retry, func(ctx context.Context) error {
		u.aggregates = u.aggregates[:0]
		return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txCtx := persistence.ContextWithTx(ctx, tx)
			if err := fn(txCtx); err != nil {
				return err
			}
			return u.flushEvents(txCtx)
		})
	})
}

func (u *UnitOfWork) flushEvents(txCtx context.Context) error {
	for _, agg := range u.aggregates {
		for _, event := range agg.PullEvents() {
			if err := u.outbox.SaveEvent(txCtx, event); err != nil {
				return fmt.Errorf("outbox %s: %w", event.EventName(), err)
			}
		}
	}
	return nil
}

func (u *UnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.register(aggregate)
}

func (u *UnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.register(aggregate)
}

func (u *UnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) {
	u.register(aggregate)
}

// register ignores an aggregate registered twice in the same attempt.
func (u *UnitOfWork) register(aggregate shared.AggregateRoot) {
	for _, a := range u.aggregates {
		if a == aggregate {
			return
		}
	}
	u.aggregates = append(u.aggregates, aggregate)
}

var _ shared.UnitOfWork = (*UnitOfWork)(nil)

type UnitOfWorkFactory struct {
	db          *gorm.DB
	retryConfig retry.Config
}

func NewUnitOfWorkFactory(db *gorm.DB, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, retryConfig: retryConfig}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	uow := NewUnitOfWork(f.db)
	uow.retry = f.retryConfig
	return uow
}

var _ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
