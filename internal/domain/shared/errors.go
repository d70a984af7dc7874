// Package shared contains common domain types, errors and events used across
// the domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState = errors.New("invalid state")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g. "achievement", "user", "history"
	Op      string // operation that failed, e.g. "Register", "AddPoints"
	Kind    error  // base error for errors.Is() checking
	Message string
	Err     error // underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching. Two DomainErrors match when they share
// domain, operation and kind, so a detailed error still matches its template.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Domain == t.Domain && e.Op == t.Op && e.Kind == t.Kind
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Detail returns a copy of the template error with a more specific message.
// The copy still satisfies errors.Is against the template.
func (e *DomainError) Detail(format string, args ...any) *DomainError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Achievement domain errors
var (
	ErrDuplicateName        = NewDomainError("achievement", "Register", ErrAlreadyExists, "achievement name already registered")
	ErrInvalidAchievement   = NewDomainError("achievement", "Validate", ErrInvalidInput, "invalid achievement definition")
	ErrInvalidArgument      = NewDomainError("achievement", "AddPoints", ErrNegativeValue, "points must not be negative")
	ErrUnresolvedChild      = NewDomainError("achievement", "Evaluate", ErrNotFound, "group references unknown achievement")
	ErrObserverNotification = NewDomainError("achievement", "Notify", ErrExternalService, "observer failed to handle unlock")
)

// User domain errors
var (
	ErrUserNotFound = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserExists   = NewDomainError("user", "Add", ErrAlreadyExists, "user already exists")
	ErrUnknownRole  = NewDomainError("user", "Create", ErrInvalidInput, "unknown user role")
	ErrEmptyName    = NewDomainError("user", "Create", ErrEmptyValue, "user name cannot be empty")
	ErrBadPassword  = NewDomainError("user", "CheckPassword", ErrInvalidInput, "password does not match")
)

// History domain errors
var (
	ErrNothingToUndo = NewDomainError("history", "UndoLast", ErrInvalidState, "no action to undo")
)

// External collaborator errors
var (
	ErrRankingUnavailable = NewDomainError("ranking", "Send", ErrServiceUnavailable, "ranking sink is unavailable")
	ErrReportExport       = NewDomainError("report", "Export", ErrExternalService, "report export failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsServiceUnavailable checks if an external collaborator refused the call.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
