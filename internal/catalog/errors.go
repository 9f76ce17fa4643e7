package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bookmarks/internal/models"
)

// Sentinel errors carried by ServiceError.Err so callers can use errors.Is.
var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrDuplicateURL = errors.New("url already submitted")
	ErrValidation   = errors.New("validation failed")
	ErrHoneypot     = errors.New("honeypot field filled")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("dependency unavailable")
)

// invalidSubmissionMessage is shared by validation and honeypot failures so a
// bot cannot tell them apart.
const invalidSubmissionMessage = "Invalid submission"

// ServiceError represents errors from the catalog service with HTTP context
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error constructors for common service errors

func NewInvalidURLError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInvalidURL,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidURL,
	}
}

func NewDuplicateURLError() *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeDuplicateURL,
		Message:    "URL already submitted",
		StatusCode: http.StatusBadRequest,
		Err:        ErrDuplicateURL,
	}
}

func NewValidationError(details map[string]string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeValidation,
		Message:    invalidSubmissionMessage,
		StatusCode: http.StatusBadRequest,
		Details:    details,
		Err:        ErrValidation,
	}
}

// NewHoneypotError is indistinguishable from a validation error on the wire.
func NewHoneypotError() *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeValidation,
		Message:    invalidSubmissionMessage,
		StatusCode: http.StatusBadRequest,
		Err:        ErrHoneypot,
	}
}

func NewInvalidRequestError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

func NewConflictError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Err:        ErrConflict,
	}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewUnavailableError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeServiceUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Err:        fmt.Errorf("%w: %w", ErrUnavailable, err),
	}
}

// storageError classifies a failed storage call. Timeouts are transient and
// surface as 503; anything else is an internal error.
func storageError(op string, err error) *ServiceError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewUnavailableError("storage unavailable", fmt.Errorf("%s: %w", op, err))
	}
	return NewInternalError("internal error", fmt.Errorf("%s: %w", op, err))
}
