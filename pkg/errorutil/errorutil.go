package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes rendered in the JSON error envelope.
const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidStatus   = "INVALID_STATUS"
	CodeMissingWallet   = "MISSING_WALLET"
	CodeDuplicateTicket = "DUPLICATE_TICKET_NUMBER"
	CodeRateLimited     = "RATE_LIMITED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeInternal        = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewInvalidStatus(status string, allowed []string) error {
	return NewDomainError(CodeInvalidStatus, "Invalid status", http.StatusBadRequest, map[string]any{
		"status":  status,
		"allowed": allowed,
	})
}

func NewMissingWallet(userID string) error {
	return NewDomainError(CodeMissingWallet, "User wallet not found", http.StatusBadRequest, map[string]any{
		"user_id": userID,
	})
}

// NewDuplicateTicketNumber reports that every generated ticket number collided.
func NewDuplicateTicketNumber(attempts int, err error) error {
	return &DomainError{
		Code:       CodeDuplicateTicket,
		Message:    "Failed to create ticket",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"attempts": attempts},
		Err:        err,
	}
}

func NewRateLimited(message string) error {
	return NewDomainError(CodeRateLimited, message, http.StatusTooManyRequests, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewInternalError hides err from the caller; the middleware logs it.
func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
