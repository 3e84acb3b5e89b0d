/*
Package shared holds the building blocks every restaurant subdomain uses:
money, actors, aggregate and event contracts, the unit of work, and the
domain error taxonomy.

Error design:
 1. Sentinel errors classify failures for errors.Is().
 2. DomainError carries the entity, its id, the current state and the
    attempted state so callers can decide what to do without parsing text.
 3. The call stack is captured when the error is created and formatted only
    when a log line asks for it.
 4. No transport concepts (HTTP status codes) live here.
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrNotFound referenced order, delivery, payment, driver or menu item is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition target status is not reachable from the current one.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState operation attempted outside its legal source states.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput malformed amount, missing required field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict concurrent modification detected by an optimistic version check.
	ErrConflict = errors.New("conflict")

	// ErrGateway the external refund gateway call failed.
	ErrGateway = errors.New("payment gateway failure")
)

// ============================================================================
// Domain Error
// ============================================================================

// DomainError is a structured error with business context and a captured stack.
type DomainError struct {
	// Err is the sentinel used by errors.Is().
	Err error

	// Entity is the kind of entity involved ("order", "delivery", "payment", ...).
	Entity string

	// EntityID identifies the entity instance, when known.
	EntityID string

	// Current is the state the entity was in when the operation was rejected.
	Current string

	// Attempted is the state or operation that was requested.
	Attempted string

	// Field names the offending input for validation errors.
	Field string

	// Message is the human readable description.
	Message string

	// Cause is an underlying error from a collaborator, if any.
	Cause error

	stack []uintptr
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the collaborator cause to errors.Is/As.
func (e *DomainError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Stack formats the captured frames on demand.
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// Stacker is implemented by errors that can report where they were created.
type Stacker interface {
	Stack() []string
}

// CaptureStack records the current call stack.
// skip is usually 3: runtime.Callers, CaptureStack, the constructor.
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack renders at most ten non-runtime frames.
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) > 10 {
			break
		}
	}
	return result
}

// ============================================================================
// Constructors
// ============================================================================

func NewNotFoundError(entity, id string) error {
	return &DomainError{
		Err:      ErrNotFound,
		Entity:   entity,
		EntityID: id,
		Message:  fmt.Sprintf("%s not found: %s", entity, id),
		stack:    CaptureStack(3),
	}
}

func NewConflictError(entity, id string) error {
	return &DomainError{
		Err:      ErrConflict,
		Entity:   entity,
		EntityID: id,
		Message:  fmt.Sprintf("%s %s was modified by another transaction, re-fetch and retry", entity, id),
		stack:    CaptureStack(3),
	}
}

func NewValidationError(entity, field, reason string) error {
	return &DomainError{
		Err:     ErrInvalidInput,
		Entity:  entity,
		Field:   field,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

func NewInvalidTransitionError(entity, id, current, attempted string) error {
	return &DomainError{
		Err:       ErrInvalidTransition,
		Entity:    entity,
		EntityID:  id,
		Current:   current,
		Attempted: attempted,
		Message:   fmt.Sprintf("%s %s cannot transition from %s to %s", entity, id, current, attempted),
		stack:     CaptureStack(3),
	}
}

// NewInvalidStateError reports an operation attempted outside its legal source states.
func NewInvalidStateError(entity, id, current, operation string) error {
	return &DomainError{
		Err:       ErrInvalidState,
		Entity:    entity,
		EntityID:  id,
		Current:   current,
		Attempted: operation,
		Message:   fmt.Sprintf("cannot %s %s %s in state %s", operation, entity, id, current),
		stack:     CaptureStack(3),
	}
}

func NewGatewayError(entity, id string, cause error) error {
	msg := fmt.Sprintf("refund gateway call failed for %s %s", entity, id)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &DomainError{
		Err:      ErrGateway,
		Entity:   entity,
		EntityID: id,
		Message:  msg,
		Cause:    cause,
		stack:    CaptureStack(3),
	}
}

// WithReason attaches a subdomain sentinel (for example order.ErrPriceFrozen)
// to an error built by one of the constructors above, so both the generic
// class and the specific reason match errors.Is.
func WithReason(err error, reason error) error {
	var de *DomainError
	if errors.As(err, &de) && de.Cause == nil {
		de.Cause = reason
	}
	return err
}
