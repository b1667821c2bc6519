// Package common defines shared constants and sentinel errors used across
// the YaMDb server layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Input and uniqueness errors.
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// Access errors.
	ErrUnauthenticated    = errors.New("authentication credentials were not provided")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials = errors.New("invalid confirmation code")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Outbound mail could not be delivered.
	ErrDeliveryFailed = errors.New("confirmation code delivery failed")
)

// FieldErrors maps a request field to the messages describing what is wrong
// with it. It matches both ErrValidation and, when built by NewConflictError,
// ErrConflict.
type FieldErrors struct {
	Fields map[string][]string
	kind   error
}

// NewValidationError returns a FieldErrors holding a single message.
func NewValidationError(field, msg string) *FieldErrors {
	return &FieldErrors{Fields: map[string][]string{field: {msg}}, kind: ErrValidation}
}

// NewConflictError reports a uniqueness violation on field.
func NewConflictError(field, msg string) *FieldErrors {
	return &FieldErrors{Fields: map[string][]string{field: {msg}}, kind: ErrConflict}
}

// Add appends msg to field and returns the receiver.
func (e *FieldErrors) Add(field, msg string) *FieldErrors {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

// Empty reports whether no field error was recorded.
func (e *FieldErrors) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *FieldErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return e.Unwrap().Error() + ": " + strings.Join(parts, ", ")
}

func (e *FieldErrors) Unwrap() error {
	if e.kind == nil {
		return ErrValidation
	}
	return e.kind
}
