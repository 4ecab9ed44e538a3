package schema

import (
	"fmt"
	"strings"
)

// Field error codes. They are stable and may be used by API clients to map
// errors onto form controls.
const (
	CodeRequired     = "REQUIRED"
	CodeInvalidType  = "INVALID_TYPE"
	CodeOutOfRange   = "OUT_OF_RANGE"
	CodeTooLong      = "TOO_LONG"
	CodeTooShort     = "TOO_SHORT"
	CodeNotAllowed   = "NOT_ALLOWED"
	CodeTooManyItems = "TOO_MANY_ITEMS"
	CodeInvalidURL   = "INVALID_URL"
	CodeDangerousURL = "DANGEROUS_URL"
	CodeInvalidColor = "INVALID_HEX_COLOR"
	CodeUnknownField = "UNKNOWN_FIELD"
)

// FieldError describes a single field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors is the field-level error list produced by validation.
type FieldErrors []*FieldError

func (errs FieldErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidationError is returned when a config does not satisfy its organism's
// schema. It always carries at least one FieldError.
type ValidationError struct {
	OrganismID string
	Fields     FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config for organism %q: %s", e.OrganismID, e.Fields.Error())
}

func newFieldError(field, code, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)}
}
