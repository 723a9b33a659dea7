package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeConflict         ErrorCode = "conflict"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "internal_error"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewConflictError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeConflict,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

// validationErrors are the domain errors caused by the request itself
var validationErrors = []error{
	domain.ErrInvalidInput,
	domain.ErrUnknownField,
	domain.ErrInvalidTableType,
	domain.ErrInvalidDate,
	domain.ErrSurveyNoRequired,
	domain.ErrColumnNameRequired,
	domain.ErrInvalidColumnPosition,
	domain.ErrUnsupportedTemplate,
}

// FromDomain maps a domain error to its HTTP status and API error. Errors that are not
// domain errors are internal and their details are not exposed.
func FromDomain(err error, message string) (int, *APIError) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, NewNotFoundError(message, err.Error())
	case errors.Is(err, domain.ErrColumnExists):
		return http.StatusConflict, NewConflictError(message, err.Error())
	}

	for _, target := range validationErrors {
		if errors.Is(err, target) {
			apiErr := NewValidationError(err.Error())
			apiErr.Message = message
			return http.StatusBadRequest, apiErr
		}
	}
	return http.StatusInternalServerError, NewInternalError(message)
}
