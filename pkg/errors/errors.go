package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different classes of failures the service can surface
type ErrorType string

const (
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeEmptyPayload ErrorType = "empty_payload"
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeUpstream     ErrorType = "upstream"
	ErrorTypeParsing      ErrorType = "parsing"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error represents a service error with type information.
// Code carries the upstream HTTP status when one exists, 0 otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error without an upstream status code
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// WithCode creates a typed error carrying an upstream HTTP status code
func WithCode(t ErrorType, code int, message string) *Error {
	return &Error{Type: t, Message: message, Code: code}
}

// IsType reports whether err is a *Error of the given type
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// HTTPStatus maps an error to the status code the HTTP layer should respond with.
// Upstream errors echo the upstream status when it is a usable HTTP code.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e.Type {
	case ErrorTypeInvalidInput, ErrorTypeEmptyPayload:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeUpstream:
		if e.Code >= 400 && e.Code <= 599 {
			return e.Code
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message safe to show to a browser. Transport and
// parsing detail stays in server logs; the user gets a generic line.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal server error"
	}

	switch e.Type {
	case ErrorTypeInvalidInput, ErrorTypeNotFound, ErrorTypeEmptyPayload:
		return e.Message
	case ErrorTypeRateLimit:
		return "You are making requests too quickly. Please wait a few seconds and try again."
	default:
		return "Failed to download media"
	}
}
