package user

import (
	"errors"

	"savoria/domain/shared"
)

var (
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrUserNotActive = errors.New("user is not active")
	ErrUnknownRole   = errors.New("unknown role")
)

func NewUserNotFoundError(userID string) error {
	return shared.NewNotFoundError("user", userID)
}

func NewInvalidEmailError(email string) error {
	return shared.WithReason(shared.NewValidationError("user", "email", "invalid email format: "+email), ErrInvalidEmail)
}

func NewUserNotActiveError(userID string) error {
	return shared.WithReason(shared.NewInvalidStateError("user", userID, "INACTIVE", "act as"), ErrUserNotActive)
}

func NewUnknownRoleError(role string) error {
	return shared.WithReason(shared.NewValidationError("user", "role", "unknown role: "+role), ErrUnknownRole)
}
