// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel error wrapped by FieldError.
var ErrValidation = errors.New("metadata validation failed")

// FieldError reports a metadata field that could not be resolved to a usable
// value: missing where required, malformed, or pointing at an unreadable file.
type FieldError struct {
	// Field is the logical field name (modern spelling).
	Field string
	// Reason describes what is wrong with the field.
	Reason string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metadata field %q: %s: %v", e.Field, e.Reason, e.Cause)
	}
	return fmt.Sprintf("metadata field %q: %s", e.Field, e.Reason)
}

// Unwrap returns ErrValidation so callers can use errors.Is for programmatic
// detection. The cause stays reachable through the message only; the sentinel
// is the contract.
func (e *FieldError) Unwrap() error { return ErrValidation }

func fieldErr(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}

func fieldErrCause(field, reason string, cause error) *FieldError {
	return &FieldError{Field: field, Reason: reason, Cause: cause}
}
