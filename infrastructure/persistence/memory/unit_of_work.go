package memory

import (
	"context"
	"fmt"

	"savoria/domain/shared"
	"savoria/infrastructure/persistence/retry"

	"github.com/google/uuid"
)

// UnitOfWork stages every repository write made through the ctx handed to fn
// and commits them together with the events of the registered aggregates.
type UnitOfWork struct {
	store       *Store
	aggregates  []shared.AggregateRoot
	retryConfig retry.Config
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store, retryConfig: retry.DefaultConfig}
}

func (u *UnitOfWork) SetRetryConfig(config retry.Config) {
	u.retryConfig = config
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if txnFrom(ctx) != nil {
		return fn(ctx)
	}

	executeOnce := func(ctx context.Context) error {
		u.aggregates = u.aggregates[:0]

		t := newTxn()
		defer u.store.release(t)
		if err := fn(withTxn(ctx, t)); err != nil {
			return err
		}

		for _, agg := range u.aggregates {
			for _, event := range agg.PullEvents() {
				if err := shared.ValidateEvent(event); err != nil {
					return fmt.Errorf("invalid domain event: %w", err)
				}
				id, err := uuid.NewV7()
				if err != nil {
					return fmt.Errorf("failed to generate outbox event ID: %w", err)
				}
				rec := OutboxEvent{
					ID:          id.String(),
					EventType:   event.EventName(),
					AggregateID: event.GetAggregateID(),
					OccurredOn:  event.OccurredOn(),
				}
				if carrier, ok := event.(shared.PayloadCarrier); ok {
					rec.Payload = carrier.Payload()
				}
				t.outbox = append(t.outbox, rec)
			}
		}

		return u.store.commit(t)
	}

	return retry.ExecuteWithRetry(ctx, u.retryConfig, executeOnce)
}

func (u *UnitOfWork) RegisterNew(aggregate shared.AggregateRoot)     { u.register(aggregate) }
func (u *UnitOfWork) RegisterDirty(aggregate shared.AggregateRoot)   { u.register(aggregate) }
func (u *UnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) { u.register(aggregate) }

func (u *UnitOfWork) register(aggregate shared.AggregateRoot) {
	for _, a := range u.aggregates {
		if a == aggregate {
			return
		}
	}
	u.aggregates = append(u.aggregates, aggregate)
}

type UnitOfWorkFactory struct {
	store       *Store
	retryConfig retry.Config
}

func NewUnitOfWorkFactory(store *Store, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store, retryConfig: retryConfig}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	uow := NewUnitOfWork(f.store)
	uow.SetRetryConfig(f.retryConfig)
	return uow
}

var (
	_ shared.UnitOfWork        = (*UnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
)
