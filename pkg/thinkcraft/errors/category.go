// Package errors provides the error taxonomy shared by aggregates, value
// objects and the event bus, plus categorization and retry helpers.
//
// Domain errors (validation, enum, state transition, not found) are client
// errors: they are returned synchronously to the direct caller and map to 4xx
// responses at the transport boundary. Handler failures inside the event bus
// are categorized so the bus can decide whether a retry may help.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	CategoryPermanent

	// CategoryClient indicates the caller violated a domain contract.
	CategoryClient
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryClient:
		return "client"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	if IsClientError(err) {
		return CategoryClient
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsClientError reports whether err is one of the domain contract errors.
func IsClientError(err error) bool {
	var (
		valErr   *ValidationError
		enumErr  *InvalidEnumValueError
		stateErr *StateTransitionError
		nfErr    *NotFoundError
		conflict *ConflictError
	)
	return errors.As(err, &valErr) ||
		errors.As(err, &enumErr) ||
		errors.As(err, &stateErr) ||
		errors.As(err, &nfErr) ||
		errors.As(err, &conflict)
}

// HTTPStatus maps an error to the status code the transport layer should
// answer with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var (
		valErr   *ValidationError
		enumErr  *InvalidEnumValueError
		stateErr *StateTransitionError
		nfErr    *NotFoundError
		conflict *ConflictError
	)
	switch {
	case errors.As(err, &valErr), errors.As(err, &enumErr):
		return http.StatusBadRequest
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	case errors.As(err, &stateErr), errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to a client. Client errors
// keep their originating message; everything else is masked.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if HTTPStatus(err) < http.StatusInternalServerError {
		return err.Error()
	}
	return "internal error"
}
