package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

// Pipeline failure reasons. Each terminal failure of a prediction request
// wraps exactly one of these.
var (
	ErrFetch                = errors.New("fetch image")
	ErrStage                = errors.New("stage image")
	ErrDetectionUnavailable = errors.New("detection unavailable")
	ErrDetectionIncomplete  = errors.New("detection incomplete")
	ErrMalformedLabelLine   = errors.New("malformed label line")
	ErrPersist              = errors.New("persist prediction")
	ErrReply                = errors.New("send reply")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// MalformedLabelLineError reports a detector label line that could not be parsed.
// Line is 1-based.
type MalformedLabelLineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedLabelLineError) Error() string {
	return fmt.Sprintf("malformed label line %d %q: %s", e.Line, e.Text, e.Reason)
}

func (e *MalformedLabelLineError) Unwrap() error { return ErrMalformedLabelLine }
