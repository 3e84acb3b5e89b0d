package memory

import (
	"context"
	"errors"
	"sort"

	"savoria/domain/delivery"
	"savoria/domain/order"
	"savoria/domain/payment"
	"savoria/domain/shared"
)

// ============================================================================
// Orders
// ============================================================================

type OrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	err := r.store.write(ctx, func(t *txn) error {
		dto := o.ToDTO()
		w, err := stageWrite(t.orders, dto.ID, dto.Version, o.IsNew(), func() (int, bool) {
			r.store.mu.RLock()
			defer r.store.mu.RUnlock()
			cur, ok := r.store.orders[dto.ID]
			return cur.Version, ok
		})
		if err != nil {
			return mapStageError(err, order.NewOrderNotFoundError, order.NewConcurrentModificationError, dto.ID)
		}
		dto.Version = w.version
		t.orders[dto.ID] = &staged[order.ReconstructionDTO]{value: copyOrderDTO(dto), version: w.version, base: w.base, insert: w.insert}

		for _, e := range o.NewTracking() {
			t.tracking = append(t.tracking, trackingDTO(e))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !o.IsNew() {
		o.IncrementVersionForSave()
	}
	o.ClearDirtyTracking()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	if t := txnFrom(ctx); t != nil {
		if w, ok := t.orders[id]; ok {
			return order.RebuildFromDTO(copyOrderDTO(w.value)), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	dto, ok := r.store.orders[id]
	if !ok {
		return nil, order.NewOrderNotFoundError(id)
	}
	return order.RebuildFromDTO(copyOrderDTO(dto)), nil
}

func (r *OrderRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*order.Order, error) {
	byID := make(map[string]order.ReconstructionDTO)

	r.store.mu.RLock()
	for id, dto := range r.store.orders {
		if dto.CustomerID == customerID {
			byID[id] = dto
		}
	}
	r.store.mu.RUnlock()

	if t := txnFrom(ctx); t != nil {
		for id, w := range t.orders {
			if w.value.CustomerID == customerID {
				byID[id] = w.value
			}
		}
	}

	dtos := make([]order.ReconstructionDTO, 0, len(byID))
	for _, dto := range byID {
		dtos = append(dtos, dto)
	}
	sort.Slice(dtos, func(i, j int) bool {
		if !dtos[i].CreatedAt.Equal(dtos[j].CreatedAt) {
			return dtos[i].CreatedAt.After(dtos[j].CreatedAt)
		}
		return dtos[i].ID > dtos[j].ID
	})

	orders := make([]*order.Order, len(dtos))
	for i, dto := range dtos {
		orders[i] = order.RebuildFromDTO(copyOrderDTO(dto))
	}
	return orders, nil
}

func (r *OrderRepository) FindBySpecification(ctx context.Context, spec shared.Specification[*order.Order], limit int) ([]*order.Order, error) {
	byID := make(map[string]order.ReconstructionDTO)

	r.store.mu.RLock()
	for id, dto := range r.store.orders {
		byID[id] = dto
	}
	r.store.mu.RUnlock()

	if t := txnFrom(ctx); t != nil {
		for id, w := range t.orders {
			byID[id] = w.value
		}
	}

	matched := make([]*order.Order, 0, len(byID))
	for _, dto := range byID {
		o := order.RebuildFromDTO(copyOrderDTO(dto))
		if spec == nil || spec.IsSatisfiedBy(o) {
			matched = append(matched, o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt().Equal(matched[j].CreatedAt()) {
			return matched[i].CreatedAt().After(matched[j].CreatedAt())
		}
		return matched[i].ID() > matched[j].ID()
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *OrderRepository) ListTracking(ctx context.Context, orderID string) ([]order.TrackingEntry, error) {
	r.store.mu.RLock()
	dtos := append([]order.TrackingReconstructionDTO(nil), r.store.tracking[orderID]...)
	r.store.mu.RUnlock()

	if t := txnFrom(ctx); t != nil {
		for _, e := range t.tracking {
			if e.OrderID == orderID {
				dtos = append(dtos, e)
			}
		}
	}
	sortTrackingNewestFirst(dtos)

	entries := make([]order.TrackingEntry, len(dtos))
	for i, dto := range dtos {
		entries[i] = order.RebuildTrackingFromDTO(dto)
	}
	return entries, nil
}

func trackingDTO(e order.TrackingEntry) order.TrackingReconstructionDTO {
	return order.TrackingReconstructionDTO{
		ID:          e.ID(),
		OrderID:     e.OrderID(),
		StatusCode:  e.StatusCode(),
		Title:       e.Title(),
		Description: e.Description(),
		Completed:   e.Completed(),
		Timestamp:   e.Timestamp(),
		Actor:       e.Actor(),
	}
}

// ============================================================================
// Deliveries
// ============================================================================

type DeliveryRepository struct {
	store *Store
}

func NewDeliveryRepository(store *Store) *DeliveryRepository {
	return &DeliveryRepository{store: store}
}

func (r *DeliveryRepository) Save(ctx context.Context, d *delivery.Delivery) error {
	err := r.store.write(ctx, func(t *txn) error {
		dto := d.ToDTO()
		w, err := stageWrite(t.deliveries, dto.ID, dto.Version, d.IsNew(), func() (int, bool) {
			r.store.mu.RLock()
			defer r.store.mu.RUnlock()
			cur, ok := r.store.deliveries[dto.ID]
			return cur.Version, ok
		})
		if err != nil {
			return mapStageError(err, delivery.NewDeliveryNotFoundError, delivery.NewConcurrentModificationError, dto.ID)
		}
		dto.Version = w.version
		t.deliveries[dto.ID] = &staged[delivery.ReconstructionDTO]{value: dto, version: w.version, base: w.base, insert: w.insert}
		return nil
	})
	if err != nil {
		return err
	}
	if !d.IsNew() {
		d.IncrementVersionForSave()
	}
	d.ClearDirtyTracking()
	return nil
}

func (r *DeliveryRepository) FindByID(ctx context.Context, id string) (*delivery.Delivery, error) {
	if t := txnFrom(ctx); t != nil {
		if w, ok := t.deliveries[id]; ok {
			return delivery.RebuildFromDTO(w.value), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	dto, ok := r.store.deliveries[id]
	if !ok {
		return nil, delivery.NewDeliveryNotFoundError(id)
	}
	return delivery.RebuildFromDTO(dto), nil
}

func (r *DeliveryRepository) FindByOrderID(ctx context.Context, orderID string) (*delivery.Delivery, error) {
	if t := txnFrom(ctx); t != nil {
		for _, w := range t.deliveries {
			if w.value.OrderID == orderID {
				return delivery.RebuildFromDTO(w.value), nil
			}
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	id, ok := r.store.deliveryByOrder[orderID]
	if !ok {
		return nil, delivery.NewDeliveryNotFoundError("order:" + orderID)
	}
	return delivery.RebuildFromDTO(r.store.deliveries[id]), nil
}

// ============================================================================
// Payments
// ============================================================================

type PaymentRepository struct {
	store *Store
}

func NewPaymentRepository(store *Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	err := r.store.write(ctx, func(t *txn) error {
		dto := p.ToDTO()
		w, err := stageWrite(t.payments, dto.ID, dto.Version, p.IsNew(), func() (int, bool) {
			r.store.mu.RLock()
			defer r.store.mu.RUnlock()
			cur, ok := r.store.payments[dto.ID]
			return cur.Version, ok
		})
		if err != nil {
			return mapStageError(err, payment.NewPaymentNotFoundError, payment.NewConcurrentModificationError, dto.ID)
		}
		dto.Version = w.version
		t.payments[dto.ID] = &staged[payment.ReconstructionDTO]{value: dto, version: w.version, base: w.base, insert: w.insert}
		return nil
	})
	if err != nil {
		return err
	}
	if !p.IsNew() {
		p.IncrementVersionForSave()
	}
	p.ClearDirtyTracking()
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	if t := txnFrom(ctx); t != nil {
		if w, ok := t.payments[id]; ok {
			return payment.RebuildFromDTO(w.value), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	dto, ok := r.store.payments[id]
	if !ok {
		return nil, payment.NewPaymentNotFoundError(id)
	}
	return payment.RebuildFromDTO(dto), nil
}

// FindByIDForUpdate claims the payment for the unit of work in ctx before
// reading it. Outside a unit of work it is a plain FindByID.
func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id string) (*payment.Payment, error) {
	if t := txnFrom(ctx); t != nil {
		if err := r.store.claimPayment(t, id); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) ([]*payment.Payment, error) {
	byID := make(map[string]payment.ReconstructionDTO)

	r.store.mu.RLock()
	for id, dto := range r.store.payments {
		if dto.OrderID == orderID {
			byID[id] = dto
		}
	}
	r.store.mu.RUnlock()

	if t := txnFrom(ctx); t != nil {
		for id, w := range t.payments {
			if w.value.OrderID == orderID {
				byID[id] = w.value
			}
		}
	}

	dtos := make([]payment.ReconstructionDTO, 0, len(byID))
	for _, dto := range byID {
		dtos = append(dtos, dto)
	}
	sort.Slice(dtos, func(i, j int) bool {
		if !dtos[i].CreatedAt.Equal(dtos[j].CreatedAt) {
			return dtos[i].CreatedAt.Before(dtos[j].CreatedAt)
		}
		return dtos[i].ID < dtos[j].ID
	})

	payments := make([]*payment.Payment, len(dtos))
	for i, dto := range dtos {
		payments[i] = payment.RebuildFromDTO(dto)
	}
	return payments, nil
}

// ============================================================================
// Version bookkeeping shared by the repositories
// ============================================================================

type stageResult struct {
	version int
	base    int
	insert  bool
}

type stageError int

const (
	stageNotFound stageError = iota + 1
	stageConflict
)

func (e stageError) Error() string {
	if e == stageNotFound {
		return "not found"
	}
	return "version conflict"
}

// stageWrite decides the version a write will carry. A second save of the
// same aggregate inside one transaction builds on the staged version, the way
// a second UPDATE inside a SQL transaction sees the first.
func stageWrite[T any](pending map[string]*staged[T], id string, version int, isNew bool,
	committed func() (int, bool)) (stageResult, error) {

	if w, ok := pending[id]; ok {
		if isNew || w.version != version {
			return stageResult{}, stageConflict
		}
		return stageResult{version: version + 1, base: w.base, insert: w.insert}, nil
	}

	cur, exists := committed()
	if isNew {
		if exists {
			return stageResult{}, stageConflict
		}
		return stageResult{version: version, insert: true}, nil
	}
	if !exists {
		return stageResult{}, stageNotFound
	}
	if cur != version {
		return stageResult{}, stageConflict
	}
	return stageResult{version: version + 1, base: version}, nil
}

func mapStageError(err error, notFound, conflict func(string) error, id string) error {
	if errors.Is(err, stageNotFound) {
		return notFound(id)
	}
	return conflict(id)
}

var (
	_ order.Repository    = (*OrderRepository)(nil)
	_ delivery.Repository = (*DeliveryRepository)(nil)
	_ payment.Repository  = (*PaymentRepository)(nil)
)
