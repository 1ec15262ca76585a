package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ValidationError indicates a value object was constructed with an
// out-of-domain value.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Invalid is shorthand for constructing a ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidEnumValueError indicates an unrecognized enumeration string.
type InvalidEnumValueError struct {
	Enum    string
	Value   string
	Allowed []string
}

// Error implements the error interface.
func (e *InvalidEnumValueError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid %s value %q", e.Enum, e.Value)
	}
	return fmt.Sprintf("invalid %s value %q (allowed: %s)",
		e.Enum, e.Value, strings.Join(e.Allowed, ", "))
}

// StateTransitionError indicates an aggregate operation was attempted from a
// state that forbids it.
type StateTransitionError struct {
	Aggregate string
	ID        string
	From      string
	Action    string
	Reason    string
}

// Error implements the error interface.
func (e *StateTransitionError) Error() string {
	msg := fmt.Sprintf("%s %s: cannot %s from status %s", e.Aggregate, e.ID, e.Action, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConflictError indicates an aggregate changed between load and save.
// The caller should reload and retry the operation.
type ConflictError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Kind, e.ID)
}

// TimeoutError indicates an operation timed out.
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}

// IsValidation reports whether err is a ValidationError or an
// InvalidEnumValueError.
func IsValidation(err error) bool {
	var (
		valErr  *ValidationError
		enumErr *InvalidEnumValueError
	)
	return stderrors.As(err, &valErr) || stderrors.As(err, &enumErr)
}

// IsStateTransition reports whether err is a StateTransitionError.
func IsStateTransition(err error) bool {
	var stateErr *StateTransitionError
	return stderrors.As(err, &stateErr)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return stderrors.As(err, &nfErr)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var conflictErr *ConflictError
	return stderrors.As(err, &conflictErr)
}
