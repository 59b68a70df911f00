// Package common defines the sentinel errors shared by the store, service and
// transport layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"sort"
	"strings"
)

var (
	// repository specific errors
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("a user with that email already exists")

	// service specific errors
	ErrInternal             = errors.New("internal error")
	ErrUnauthorized         = errors.New("authentication credentials were not provided")
	ErrAuthenticationFailed = errors.New("invalid credentials")
	ErrForbidden            = errors.New("you do not have permission to perform this action")
	ErrValidation           = errors.New("validation error")

	// token flow errors
	ErrInvalidToken    = errors.New("invalid or expired link")
	ErrAlreadyVerified = errors.New("user is already verified")
)

// NonFieldErrors is the key used for messages not bound to a single input field.
const NonFieldErrors = "non_field_errors"

// ValidationError collects field-scoped messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
	cause  error
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// FieldError is a shortcut for a ValidationError holding a single message.
func FieldError(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

// Add appends msg to the messages of field.
func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = append(v.Fields[field], msg)
}

// Wrap records the underlying cause so that errors.Is can still reach it.
func (v *ValidationError) Wrap(cause error) *ValidationError {
	v.cause = cause
	return v
}

// Empty reports whether no message has been recorded.
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// OrNil returns nil when v holds no message. Use it as the final return of a
// validation routine.
func (v *ValidationError) OrNil() error {
	if v == nil || v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], "; "))
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// Is makes every ValidationError match ErrValidation.
func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (v *ValidationError) Unwrap() error {
	return v.cause
}
