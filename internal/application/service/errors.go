package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the addressed record does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a unique value is already taken
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is returned for a failed login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAlreadyReviewed is returned when re-review is disabled and the
	// submission already carries a decision
	ErrAlreadyReviewed = errors.New("submission already reviewed")

	// ErrForbidden is returned when the actor's role may not perform the operation
	ErrForbidden = errors.New("forbidden")
)

// ValidationError describes one invalid input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidationErrors collects every invalid field of one request
type ValidationErrors []*ValidationError

// Add records a field failure
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

// Err returns nil when nothing was recorded
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}

// Fields maps field names to messages. The first message per field wins.
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := fields[e.Field]; !ok {
			fields[e.Field] = e.Message
		}
	}
	return fields
}

// FieldsOf extracts per-field messages from any validation error
func FieldsOf(err error) map[string]string {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many.Fields()
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return map[string]string{one.Field: one.Message}
	}
	return nil
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
