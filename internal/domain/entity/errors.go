package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched with errors.Is by the transport adapters
var (
	ErrValidation   = errors.New("validation failed")
	ErrAccess       = errors.New("field not allowed")
	ErrNotFound     = errors.New("reservation not found")
	ErrPersistence  = errors.New("persistence failure")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorKind is the transport-neutral classification of an error
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindAccess       ErrorKind = "ACCESS_DENIED"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindBadRequest   ErrorKind = "BAD_REQUEST"
	KindInternal     ErrorKind = "INTERNAL"
)

// KindOf classifies err. Anything outside the domain taxonomy is internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrAccess):
		return KindAccess
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// FieldViolation is a single failed constraint
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every field that failed a constraint
type ValidationError struct {
	Violations []FieldViolation
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "reservation validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AccessError is returned when a guest-path update carries fields outside the allowed set
type AccessError struct {
	Fields []string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("update of field(s) not allowed: %s", strings.Join(e.Fields, ", "))
}

func (e *AccessError) Unwrap() error { return ErrAccess }

// NotFoundError is returned when no reservation matches ID
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reservation %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError wraps a store failure that is not a domain outcome
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
