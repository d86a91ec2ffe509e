package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID      = "invalid"      // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized" // Authentication required
	EFORBIDDEN    = "forbidden"    // Permission denied (plan/quota)
	ENOTFOUND     = "not_found"    // Resource not found
	ECONFLICT     = "conflict"     // Resource conflict (e.g., duplicate)
	ERATELIMIT    = "rate_limit"   // Rate limit exceeded
	EINTERNAL     = "internal"     // Internal server error
	EUNAVAILABLE  = "unavailable"  // External collaborator unconfigured or down
)

// Stable client-facing codes the front-end matches on.
const (
	ClientCodeStripeNotConfigured = "STRIPE_NOT_CONFIGURED"
	ClientCodeInvalidPriceID      = "INVALID_PRICE_ID"
	ClientCodePriceNotFound       = "PRICE_NOT_FOUND"
	ClientCodeTableNotFound       = "TABLE_NOT_FOUND"
	ClientCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
)

// Error represents an application error with structured information.
type Error struct {
	Code       string // Machine-readable taxonomy code (maps to HTTP status)
	ClientCode string // Optional stable code surfaced to API clients
	Op         string // Operation that failed (e.g., "proposal.generate")
	Message    string // Human-readable message
	Err        error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode returns the taxonomy code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorClientCode returns the stable client code of the error, if any.
func ErrorClientCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.ClientCode
	}
	return ""
}

// ErrorMessage returns the human-readable message of the error.
// Internal errors collapse to a generic message so details never leak.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL && e.ClientCode == "" {
			return "Ocorreu um erro interno. Tente novamente."
		}
		return e.Message
	}
	return "Ocorreu um erro interno. Tente novamente."
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, message string) *Error {
	return &Error{Code: ENOTFOUND, Op: op, Message: message}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Unauthorized creates an authentication error.
func Unauthorized(op, message string) *Error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// Unavailable creates an error for an unconfigured or unreachable external
// collaborator, with a stable client code.
func Unavailable(op, clientCode, message string) *Error {
	return &Error{Code: EUNAVAILABLE, ClientCode: clientCode, Op: op, Message: message}
}

// PolicyDenied converts a plan policy denial into a forbidden error carrying
// the decision's reason and stable code verbatim.
func PolicyDenied(op string, d Decision) *Error {
	return &Error{Code: EFORBIDDEN, ClientCode: d.Code, Op: op, Message: d.Reason}
}

// TableNotFound creates an error for premium features whose backing table is
// missing from the database.
func TableNotFound(op, table string) *Error {
	return &Error{
		Code:       EINTERNAL,
		ClientCode: ClientCodeTableNotFound,
		Op:         op,
		Message:    fmt.Sprintf("Tabela %s não encontrada no banco de dados. Execute as migrations.", table),
	}
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is nil or not a ValidationError, returns a new one.
func AddFieldError(err error, op, field, message string) *ValidationError {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError(op, field, message)
}
