package shared

import "context"

// UnitOfWork manages the transaction boundary of one business operation and
// collects events from the aggregates registered during it.
//
// Every write performed through a repository with the ctx handed to fn either
// commits together or not at all.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	RegisterNew(aggregate AggregateRoot)
	RegisterDirty(aggregate AggregateRoot)
	RegisterRemoved(aggregate AggregateRoot)
}

// UnitOfWorkFactory hands out a fresh UnitOfWork per operation.
// UnitOfWork instances hold per-operation state and must not be shared across goroutines.
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}

type noRetryKey struct{}

// WithoutRetry marks ctx so a unit of work runs exactly once. Units of work
// that call an external system (the refund gateway) use it.
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func RetryDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(noRetryKey{}).(bool)
	return v
}
