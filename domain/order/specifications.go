package order

import (
	"time"

	"savoria/domain/shared"
)

type ByCustomerSpecification struct {
	CustomerID string
}

func (s ByCustomerSpecification) IsSatisfiedBy(o *Order) bool {
	return o.CustomerID() == s.CustomerID
}

type ByStatusSpecification struct {
	Status Status
}

func (s ByStatusSpecification) IsSatisfiedBy(o *Order) bool {
	return o.Status() == s.Status
}

type ByTypeSpecification struct {
	Type Type
}

func (s ByTypeSpecification) IsSatisfiedBy(o *Order) bool {
	return o.Type() == s.Type
}

// CreatedBetweenSpecification bounds are inclusive; a zero bound is open.
type CreatedBetweenSpecification struct {
	Start time.Time
	End   time.Time
}

func (s CreatedBetweenSpecification) IsSatisfiedBy(o *Order) bool {
	createdAt := o.CreatedAt()
	if !s.Start.IsZero() && createdAt.Before(s.Start) {
		return false
	}
	if !s.End.IsZero() && createdAt.After(s.End) {
		return false
	}
	return true
}

func NewByCustomerSpecification(customerID string) shared.Specification[*Order] {
	return ByCustomerSpecification{CustomerID: customerID}
}

func NewByStatusSpecification(status Status) shared.Specification[*Order] {
	return ByStatusSpecification{Status: status}
}

func NewByTypeSpecification(orderType Type) shared.Specification[*Order] {
	return ByTypeSpecification{Type: orderType}
}

func NewCreatedBetweenSpecification(start, end time.Time) shared.Specification[*Order] {
	return CreatedBetweenSpecification{Start: start, End: end}
}
