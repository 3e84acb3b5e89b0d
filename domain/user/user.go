/*
Package user is the read side of the user directory.

Registration, authentication and role management live elsewhere; the
fulfillment engine only needs to resolve who is acting so mutations and
tracking entries can be attributed.
*/
package user

import (
	"context"

	"savoria/domain/shared"
)

// User is a directory entry. It is immutable from this service's point of view.
type User struct {
	ID       string
	Username string
	FullName string
	Email    Email
	Role     Role
	Active   bool
}

// Actor converts the directory entry into the identity passed to orchestrator calls.
func (u User) Actor() (shared.Actor, error) {
	if !u.Active {
		return shared.Actor{}, NewUserNotActiveError(u.ID)
	}

	name := u.FullName
	if name == "" {
		name = u.Username
	}

	kind := shared.ActorCustomer
	switch {
	case u.Role.Staff():
		kind = shared.ActorAdmin
	case u.Role == RoleDriver:
		kind = shared.ActorDriver
	}
	return shared.Actor{ID: u.ID, Name: name, Kind: kind}, nil
}

// Directory looks users up. Implementations return a NotFoundError for unknown users.
type Directory interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}
