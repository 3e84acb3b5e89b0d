// Package specification turns domain specifications into GORM scopes.
package specification

import (
	"fmt"

	"savoria/domain/order"
	"savoria/domain/shared"

	"gorm.io/gorm"
)

// Scope is applied with db.Scopes.
type Scope func(*gorm.DB) *gorm.DB

// OrderScope translates an order specification for the orders table. A type
// it does not know is an error rather than an unfiltered query.
func OrderScope(spec shared.Specification[*order.Order]) (Scope, error) {
	switch s := spec.(type) {
	case nil:
		return func(db *gorm.DB) *gorm.DB { return db }, nil

	case shared.AndSpecification[*order.Order]:
		scopes := make([]Scope, 0, len(s.Specs))
		for _, part := range s.Specs {
			scope, err := OrderScope(part)
			if err != nil {
				return nil, err
			}
			scopes = append(scopes, scope)
		}
		return func(db *gorm.DB) *gorm.DB {
			for _, scope := range scopes {
				db = scope(db)
			}
			return db
		}, nil

	case order.ByCustomerSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("customer_id = ?", s.CustomerID)
		}, nil

	case order.ByStatusSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", string(s.Status))
		}, nil

	case order.ByTypeSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("order_type = ?", string(s.Type))
		}, nil

	case order.CreatedBetweenSpecification:
		return func(db *gorm.DB) *gorm.DB {
			if !s.Start.IsZero() {
				db = db.Where("created_at >= ?", s.Start.UTC())
			}
			if !s.End.IsZero() {
				db = db.Where("created_at <= ?", s.End.UTC())
			}
			return db
		}, nil
	}

	return nil, fmt.Errorf("specification: %T cannot be translated for orders", spec)
}
