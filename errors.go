package cds

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a CDS error
type ErrorCategory string

const (
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryWitness       ErrorCategory = "witness"
	ErrorCategorySharing       ErrorCategory = "sharing"
	ErrorCategoryProtocol      ErrorCategory = "protocol"
	ErrorCategoryCryptographic ErrorCategory = "cryptographic"
	ErrorCategoryEncoding      ErrorCategory = "encoding"
	ErrorCategoryInternal      ErrorCategory = "internal"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"      // Non-critical, operation can continue
	ErrorSeverityMedium   ErrorSeverity = "medium"   // Important, may affect functionality
	ErrorSeverityHigh     ErrorSeverity = "high"     // Critical, operation should stop
	ErrorSeverityCritical ErrorSeverity = "critical" // System-level failure
)

// CDSError represents a structured error in the CDS library
type CDSError struct {
	Category    ErrorCategory          `json:"category"`
	Severity    ErrorSeverity          `json:"severity"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Cause       error                  `json:"-"` // Original error, not serialized
	Context     map[string]interface{} `json:"context,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// Error implements the error interface
func (e *CDSError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if clause, ok := e.Context["clause"]; ok {
		msg += fmt.Sprintf(" (clause %v)", clause)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *CDSError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CDSError with the same code, so that
// contextualised copies still match their sentinel.
func (e *CDSError) Is(target error) bool {
	var other *CDSError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func (e *CDSError) clone() *CDSError {
	newError := &CDSError{
		Category:    e.Category,
		Severity:    e.Severity,
		Code:        e.Code,
		Message:     e.Message,
		Details:     e.Details,
		Recoverable: e.Recoverable,
		Cause:       e.Cause,
		Context:     make(map[string]interface{}, len(e.Context)+1),
	}
	for k, v := range e.Context {
		newError.Context[k] = v
	}
	return newError
}

// WithContext returns a copy of the error with an added context entry
func (e *CDSError) WithContext(key string, value interface{}) *CDSError {
	newError := e.clone()
	newError.Context[key] = value
	return newError
}

// WithCause returns a copy of the error with the underlying cause set
func (e *CDSError) WithCause(cause error) *CDSError {
	newError := e.clone()
	newError.Cause = cause
	return newError
}

// WithDetails returns a copy of the error with formatted details
func (e *CDSError) WithDetails(format string, args ...interface{}) *CDSError {
	newError := e.clone()
	newError.Details = fmt.Sprintf(format, args...)
	return newError
}

// WithClause tags the error with the failing clause index
func (e *CDSError) WithClause(index ClauseIndex) *CDSError {
	return e.WithContext("clause", index)
}

// IsRecoverable returns whether the error is recoverable
func (e *CDSError) IsRecoverable() bool {
	return e.Recoverable
}

// NewCDSError creates a new CDS error
func NewCDSError(category ErrorCategory, severity ErrorSeverity, code, message string) *CDSError {
	return &CDSError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		Context:     make(map[string]interface{}),
		Recoverable: severity != ErrorSeverityCritical,
	}
}

// Curve errors
var (
	ErrInvalidScalarLength = NewCDSError(
		ErrorCategoryCryptographic, ErrorSeverityMedium, "INVALID_SCALAR_LENGTH",
		"invalid scalar length")

	ErrInvalidPointLength = NewCDSError(
		ErrorCategoryCryptographic, ErrorSeverityMedium, "INVALID_POINT_LENGTH",
		"invalid point length")

	ErrInvalidScalar = NewCDSError(
		ErrorCategoryCryptographic, ErrorSeverityMedium, "INVALID_SCALAR",
		"invalid scalar value")

	ErrInvalidPoint = NewCDSError(
		ErrorCategoryCryptographic, ErrorSeverityMedium, "INVALID_POINT",
		"invalid point")

	ErrScalarZero = NewCDSError(
		ErrorCategoryCryptographic, ErrorSeverityMedium, "SCALAR_ZERO",
		"scalar is zero")

	ErrRandomnessGeneration = NewCDSError(
		ErrorCategoryCryptographic, ErrorSeverityCritical, "RANDOMNESS_GENERATION_FAILED",
		"failed to generate secure randomness")
)

// Configuration errors
var (
	ErrInvalidCurve = NewCDSError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "INVALID_CURVE",
		"cryptographic curve is invalid or unsupported")

	ErrInvalidConfiguration = NewCDSError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "INVALID_CONFIGURATION",
		"configuration parameters are invalid")

	ErrFieldMismatch = NewCDSError(
		ErrorCategoryConfiguration, ErrorSeverityHigh, "FIELD_MISMATCH",
		"protocol challenge space does not match the sharing field")
)

// Validation errors
var (
	ErrInvalidAccessStructure = NewCDSError(
		ErrorCategoryValidation, ErrorSeverityHigh, "INVALID_ACCESS_STRUCTURE",
		"access structure parameters are invalid")

	ErrStatementMismatch = NewCDSError(
		ErrorCategoryValidation, ErrorSeverityHigh, "STATEMENT_MISMATCH",
		"number of statements does not match the access structure")

	ErrUnqualifiedSet = NewCDSError(
		ErrorCategoryValidation, ErrorSeverityHigh, "UNQUALIFIED_SET",
		"active set is not qualified under the access structure")
)

// Witness errors
var (
	ErrInvalidWitness = NewCDSError(
		ErrorCategoryWitness, ErrorSeverityHigh, "INVALID_WITNESS",
		"witness does not satisfy the statement relation")
)

// Sharing errors
var (
	ErrInsufficientShares = NewCDSError(
		ErrorCategorySharing, ErrorSeverityHigh, "INSUFFICIENT_SHARES",
		"not enough shares to reconstruct the secret")

	ErrDegenerateInput = NewCDSError(
		ErrorCategorySharing, ErrorSeverityHigh, "DEGENERATE_INPUT",
		"share indices are duplicated, zero or misaligned")
)

// Protocol errors
var (
	ErrRoundOrder = NewCDSError(
		ErrorCategoryProtocol, ErrorSeverityHigh, "ROUND_ORDER",
		"protocol round called out of order")

	ErrInvalidState = NewCDSError(
		ErrorCategoryProtocol, ErrorSeverityHigh, "INVALID_STATE",
		"prover state is invalid or already used")

	ErrInvalidMessage = NewCDSError(
		ErrorCategoryProtocol, ErrorSeverityMedium, "INVALID_MESSAGE",
		"protocol message has the wrong type or shape")
)

// Encoding errors
var (
	ErrEncoding = NewCDSError(
		ErrorCategoryEncoding, ErrorSeverityMedium, "ENCODING_FAILED",
		"failed to encode or decode a protocol message")
)

// WrapError wraps an existing error with CDS error context
func WrapError(err error, category ErrorCategory, severity ErrorSeverity, code, message string) *CDSError {
	return NewCDSError(category, severity, code, message).WithCause(err)
}

// IsErrorCategory checks if an error belongs to a specific category
func IsErrorCategory(err error, category ErrorCategory) bool {
	var cdsErr *CDSError
	if errors.As(err, &cdsErr) {
		return cdsErr.Category == category
	}
	return false
}

// IsRecoverableError checks if an error is recoverable
func IsRecoverableError(err error) bool {
	var cdsErr *CDSError
	if errors.As(err, &cdsErr) {
		return cdsErr.IsRecoverable()
	}
	return true // Non-CDS errors are assumed recoverable
}

// ClauseOf returns the clause index attached to err, if any
func ClauseOf(err error) (ClauseIndex, bool) {
	var cdsErr *CDSError
	if !errors.As(err, &cdsErr) {
		return 0, false
	}
	index, ok := cdsErr.Context["clause"].(ClauseIndex)
	return index, ok
}
