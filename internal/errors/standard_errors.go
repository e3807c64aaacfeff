// Package errors provides standardized error handling for the API layer,
// mapping domain failures onto semantic error codes and HTTP statuses.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents semantic error codes for consistent error handling
type ErrorCode string

const (
	// Validation errors
	ErrorCodeValidationError ErrorCode = "VALIDATION_ERROR"
	ErrorCodeRequiredField   ErrorCode = "REQUIRED_FIELD"
	ErrorCodeInvalidFormat   ErrorCode = "INVALID_FORMAT"

	// Analysis errors
	ErrorCodeInsufficientData   ErrorCode = "INSUFFICIENT_DATA"
	ErrorCodeConfigurationError ErrorCode = "CONFIGURATION_ERROR"

	// Resource errors
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// System errors
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// StandardError represents the unified error structure returned by the API
type StandardError struct {
	ErrorInfo ErrorDetails `json:"error"`
}

// ErrorDetails contains the detailed error information
type ErrorDetails struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// Error implements the Go error interface
func (e *StandardError) Error() string {
	return e.ErrorInfo.Message
}

// ValidationDetail provides specific validation error information
type ValidationDetail struct {
	Field  string      `json:"field"`
	Reason string      `json:"reason"`
	Value  interface{} `json:"value,omitempty"`
}

// InsufficientDataDetail reports how many valid entries were found
type InsufficientDataDetail struct {
	ValidCount int `json:"valid_count"`
	Required   int `json:"required"`
}

// NewStandardError creates a new standardized error
func NewStandardError(code ErrorCode, message string, details interface{}) *StandardError {
	return &StandardError{
		ErrorInfo: ErrorDetails{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(field, reason string, value interface{}) *StandardError {
	return &StandardError{
		ErrorInfo: ErrorDetails{
			Code:    ErrorCodeValidationError,
			Message: fmt.Sprintf("Validation failed for field '%s': %s", field, reason),
			Details: ValidationDetail{Field: field, Reason: reason, Value: value},
		},
	}
}

// NewRequiredFieldError creates an error for missing required fields
func NewRequiredFieldError(field string) *StandardError {
	return &StandardError{
		ErrorInfo: ErrorDetails{
			Code:    ErrorCodeRequiredField,
			Message: fmt.Sprintf("Required field '%s' is missing", field),
			Details: ValidationDetail{Field: field, Reason: "missing_required_field"},
		},
	}
}

// NewInsufficientDataError signals that a stream has too few valid entries
// to analyze. Non-fatal: it means "nothing to analyze yet".
func NewInsufficientDataError(validCount, required int) *StandardError {
	return &StandardError{
		ErrorInfo: ErrorDetails{
			Code:    ErrorCodeInsufficientData,
			Message: fmt.Sprintf("Not enough data to analyze: %d valid entries, need %d", validCount, required),
			Details: InsufficientDataDetail{ValidCount: validCount, Required: required},
		},
	}
}

// NewConfigurationError reports analysis parameters outside supported range
func NewConfigurationError(field, reason string) *StandardError {
	return &StandardError{
		ErrorInfo: ErrorDetails{
			Code:    ErrorCodeConfigurationError,
			Message: fmt.Sprintf("Invalid configuration for '%s': %s", field, reason),
			Details: ValidationDetail{Field: field, Reason: reason},
		},
	}
}

// NewNotFoundError creates a resource-not-found error
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		ErrorInfo: ErrorDetails{
			Code:    ErrorCodeNotFound,
			Message: fmt.Sprintf("%s '%s' not found", resource, id),
		},
	}
}

// NewInternalError creates a generic internal error without leaking the
// underlying cause to the client
func NewInternalError() *StandardError {
	return &StandardError{
		ErrorInfo: ErrorDetails{
			Code:    ErrorCodeInternalError,
			Message: "An internal error occurred",
		},
	}
}

// NewDatabaseError creates a storage-level error
func NewDatabaseError(operation string) *StandardError {
	return &StandardError{
		ErrorInfo: ErrorDetails{
			Code:    ErrorCodeDatabaseError,
			Message: fmt.Sprintf("Storage operation failed: %s", operation),
		},
	}
}

// WithTraceID attaches a trace ID to the error for correlation
func (e *StandardError) WithTraceID(traceID string) *StandardError {
	e.ErrorInfo.TraceID = traceID
	return e
}

// HTTPStatus maps the error code to an HTTP status code
func (e *StandardError) HTTPStatus() int {
	switch e.ErrorInfo.Code {
	case ErrorCodeValidationError, ErrorCodeRequiredField, ErrorCodeInvalidFormat, ErrorCodeConfigurationError:
		return http.StatusBadRequest
	case ErrorCodeInsufficientData:
		// The request was fine, there just is not enough journal data yet
		return http.StatusUnprocessableEntity
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeDatabaseError, ErrorCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WriteHTTP writes the error as a JSON response with the mapped status
func (e *StandardError) WriteHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	_ = json.NewEncoder(w).Encode(e)
}
