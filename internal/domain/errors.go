package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors returned by engine operations.
var (
	// ErrNotFound indicates that a template or execution id does not
	// resolve to an existing record.
	ErrNotFound = errors.New("not found")

	// ErrTemplateInactive indicates that execution was attempted against
	// a deactivated template.
	ErrTemplateInactive = errors.New("template is inactive")

	// ErrUnknownFormula indicates that a template references a formula
	// kind with no registered factory.
	ErrUnknownFormula = errors.New("unknown formula kind")

	// ErrInvalidRating indicates a rating outside the 1-5 scale.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// FieldError is a single validation failure, keyed by the parameter's
// human-readable label.
type FieldError struct {
	// Field is the parameter label the error is reported under.
	Field string

	// Message is the human-readable description of the failure.
	Message string
}

// ValidationError reports parameter validation failures. Errors appear
// in the same order as the template's declared parameters, and the
// whole error is produced before any side effect occurs, so a caller
// may correct the input and retry safely.
type ValidationError struct {
	// Fields lists the failures in declaration order.
	Fields []FieldError
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("parameter validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("parameter validation failed (%d parameters): %s", len(e.Fields), strings.Join(parts, "; "))
}

// Add appends a failure for the given field label.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any failure was recorded.
func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// Messages returns the failures as a field-keyed map for callers that
// surface errors per input control. Ordering is preserved in Fields.
func (e *ValidationError) Messages() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Message
	}
	return m
}

// ComputationError indicates that a formula could not produce a result
// for otherwise-valid inputs, such as a division by a zero denominator.
// Parameters names the offending parameter(s) when known.
type ComputationError struct {
	// TemplateID is the template whose computation failed.
	TemplateID string

	// Parameters names the input parameter(s) that caused the failure.
	Parameters []string

	// Err is the underlying computation failure.
	Err error
}

// Error implements the error interface for ComputationError.
func (e *ComputationError) Error() string {
	if len(e.Parameters) > 0 {
		return fmt.Sprintf("computation failed for template %s (parameters %s): %v",
			e.TemplateID, strings.Join(e.Parameters, ", "), e.Err)
	}
	return fmt.Sprintf("computation failed for template %s: %v", e.TemplateID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ComputationError) Unwrap() error { return e.Err }

// NewComputationError creates a ComputationError for the given template
// and offending parameters.
func NewComputationError(templateID string, err error, parameters ...string) *ComputationError {
	return &ComputationError{TemplateID: templateID, Parameters: parameters, Err: err}
}

// RepositoryError wraps a failure from the external repository boundary.
// Repository failures are propagated to the caller, never retried
// inside the engine.
type RepositoryError struct {
	// Operation names the repository call that failed.
	Operation string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface for RepositoryError.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository error: operation=%s, err=%v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error { return e.Err }

// NewRepositoryError wraps err as a repository-boundary failure.
func NewRepositoryError(operation string, err error) *RepositoryError {
	return &RepositoryError{Operation: operation, Err: err}
}
