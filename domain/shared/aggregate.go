package shared

// AggregateRoot is the entry point of a consistency boundary.
// Order, Delivery and Payment are separate aggregates; cross-aggregate
// changes are sequenced by the fulfillment orchestrator inside one unit of work.
type AggregateRoot interface {
	// ID returns the globally unique identity of the aggregate.
	ID() string

	// Version returns the optimistic lock version loaded from storage.
	Version() int

	// PullEvents returns and clears the domain events recorded since the last pull.
	PullEvents() []DomainEvent
}

// Entity is anything identified by ID rather than by value.
type Entity interface {
	ID() string
}
