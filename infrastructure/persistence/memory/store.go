/*
Package memory is a transactional in-memory store with the same observable
semantics as the relational repositories: writes made inside a unit of work
are invisible to others until commit, commit is all or nothing, and every
update carries an optimistic version check.

It backs database.type=memory and the application tests.
*/
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"savoria/domain/delivery"
	"savoria/domain/directory"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"
	"savoria/domain/user"
)

// OutboxEvent is a committed domain event.
type OutboxEvent struct {
	ID          string
	EventType   string
	AggregateID string
	OccurredOn  time.Time
	Payload     map[string]any
}

type Store struct {
	mu sync.RWMutex

	orders          map[string]order.ReconstructionDTO
	tracking        map[string][]order.TrackingReconstructionDTO
	deliveries      map[string]delivery.ReconstructionDTO
	deliveryByOrder map[string]string
	payments        map[string]payment.ReconstructionDTO
	outbox          []OutboxEvent

	// payment id -> transaction holding it until commit or rollback
	claims map[string]*txn

	menu    map[string]directory.MenuItem
	drivers map[string]directory.Driver
	users   map[string]user.User
}

func NewStore() *Store {
	return &Store{
		orders:          make(map[string]order.ReconstructionDTO),
		tracking:        make(map[string][]order.TrackingReconstructionDTO),
		deliveries:      make(map[string]delivery.ReconstructionDTO),
		deliveryByOrder: make(map[string]string),
		payments:        make(map[string]payment.ReconstructionDTO),
		claims:          make(map[string]*txn),
		menu:            make(map[string]directory.MenuItem),
		drivers:         make(map[string]directory.Driver),
		users:           make(map[string]user.User),
	}
}

// ============================================================================
// Reference data
// ============================================================================

func (s *Store) PutMenuItem(item directory.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[item.ID] = item
}

func (s *Store) PutDriver(d directory.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[d.ID] = d
}

func (s *Store) PutUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Events returns every committed event in commit order.
func (s *Store) Events() []OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OutboxEvent, len(s.outbox))
	copy(out, s.outbox)
	return out
}

// ============================================================================
// Transactions
// ============================================================================

// staged is a pending write. version is the version the value will carry,
// base the committed version the write was made against; inserts have no base.
type staged[T any] struct {
	value   T
	version int
	base    int
	insert  bool
}

type driverChange struct {
	available bool
}

type txn struct {
	orders     map[string]*staged[order.ReconstructionDTO]
	tracking   []order.TrackingReconstructionDTO
	deliveries map[string]*staged[delivery.ReconstructionDTO]
	payments   map[string]*staged[payment.ReconstructionDTO]
	drivers    map[string]driverChange
	outbox     []OutboxEvent
	claimed    []string
}

func newTxn() *txn {
	return &txn{
		orders:     make(map[string]*staged[order.ReconstructionDTO]),
		deliveries: make(map[string]*staged[delivery.ReconstructionDTO]),
		payments:   make(map[string]*staged[payment.ReconstructionDTO]),
		drivers:    make(map[string]driverChange),
	}
}

type txnKey struct{}

func withTxn(ctx context.Context, t *txn) context.Context {
	return context.WithValue(ctx, txnKey{}, t)
}

func txnFrom(ctx context.Context) *txn {
	t, _ := ctx.Value(txnKey{}).(*txn)
	return t
}

// write runs fn against the transaction in ctx, or against a fresh one that
// is committed immediately.
func (s *Store) write(ctx context.Context, fn func(t *txn) error) error {
	if t := txnFrom(ctx); t != nil {
		return fn(t)
	}
	t := newTxn()
	if err := fn(t); err != nil {
		return err
	}
	return s.commit(t)
}

// claimPayment reserves a payment for t. A payment claimed by another open
// transaction is a conflict; the claim is given up by release.
func (s *Store) claimPayment(t *txn, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[id]; !ok {
		if _, staged := t.payments[id]; staged {
			return nil
		}
		return payment.NewPaymentNotFoundError(id)
	}
	switch holder := s.claims[id]; holder {
	case t:
		return nil
	case nil:
		s.claims[id] = t
		t.claimed = append(t.claimed, id)
		return nil
	default:
		return payment.NewConcurrentModificationError(id)
	}
}

func (s *Store) release(t *txn) {
	if len(t.claimed) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range t.claimed {
		if s.claims[id] == t {
			delete(s.claims, id)
		}
	}
	t.claimed = nil
}

// commit validates every staged write against the committed state and
// applies all of them, or none.
func (s *Store) commit(t *txn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range t.orders {
		cur, exists := s.orders[id]
		switch {
		case w.insert && exists:
			return order.NewConcurrentModificationError(id)
		case !w.insert && !exists:
			return order.NewOrderNotFoundError(id)
		case !w.insert && cur.Version != w.base:
			return order.NewConcurrentModificationError(id)
		}
	}
	for id, w := range t.deliveries {
		cur, exists := s.deliveries[id]
		switch {
		case w.insert && (exists || s.deliveryByOrder[w.value.OrderID] != ""):
			return delivery.NewConcurrentModificationError(id)
		case !w.insert && !exists:
			return delivery.NewDeliveryNotFoundError(id)
		case !w.insert && cur.Version != w.base:
			return delivery.NewConcurrentModificationError(id)
		}
	}
	for id, w := range t.payments {
		cur, exists := s.payments[id]
		switch {
		case w.insert && exists:
			return payment.NewConcurrentModificationError(id)
		case !w.insert && !exists:
			return payment.NewPaymentNotFoundError(id)
		case !w.insert && cur.Version != w.base:
			return payment.NewConcurrentModificationError(id)
		}
		if holder := s.claims[id]; holder != nil && holder != t {
			return payment.NewConcurrentModificationError(id)
		}
	}
	for id, c := range t.drivers {
		cur, exists := s.drivers[id]
		if !exists {
			return shared.NewNotFoundError("driver", id)
		}
		if !c.available && !cur.Available {
			return delivery.NewDriverUnavailableError(id)
		}
	}

	for id, w := range t.orders {
		s.orders[id] = copyOrderDTO(w.value)
	}
	for _, e := range t.tracking {
		s.tracking[e.OrderID] = append(s.tracking[e.OrderID], e)
	}
	for id, w := range t.deliveries {
		s.deliveries[id] = w.value
		s.deliveryByOrder[w.value.OrderID] = id
	}
	for id, w := range t.payments {
		s.payments[id] = w.value
	}
	for id, c := range t.drivers {
		d := s.drivers[id]
		d.Available = c.available
		s.drivers[id] = d
	}
	s.outbox = append(s.outbox, t.outbox...)
	return nil
}

func copyOrderDTO(dto order.ReconstructionDTO) order.ReconstructionDTO {
	items := make([]order.OrderItem, len(dto.Items))
	copy(items, dto.Items)
	dto.Items = items
	return dto
}

func sortTrackingNewestFirst(entries []order.TrackingReconstructionDTO) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		return entries[i].ID > entries[j].ID
	})
}
