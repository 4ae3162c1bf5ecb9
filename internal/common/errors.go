package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Services wrap them with detail: fmt.Errorf("%w: reason", ErrValidation).
var (
	// ErrValidation missing ids, empty message, malformed payload
	ErrValidation = errors.New("validation failed")
	// ErrNotFound message, user or conversation absent
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden deleting another user's message, messaging across a block
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable the message store could not be reached; the caller may retry
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
)

// Validation builds a validation error with detail
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound builds a not-found error with detail
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbidden builds an authorization error with detail
func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// RateLimited builds a rate limit error with detail
func RateLimited(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRateLimited, fmt.Sprintf(format, args...))
}

// StoreError marks err as a transient store failure, keeping it in the chain
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// ErrorKind describes how an error surfaces to callers
type ErrorKind struct {
	Status int
	Code   string
	// MessageKey is the i18n key of the localized generic message
	MessageKey string
}

// Classify maps an error chain onto its surface representation.
// Anything unrecognized is an internal error.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrorKind{http.StatusBadRequest, "VALIDATION_ERROR", "error.validation"}
	case errors.Is(err, ErrNotFound):
		return ErrorKind{http.StatusNotFound, "NOT_FOUND", "error.not_found"}
	case errors.Is(err, ErrForbidden):
		return ErrorKind{http.StatusForbidden, "FORBIDDEN", "error.forbidden"}
	case errors.Is(err, ErrUnauthorized):
		return ErrorKind{http.StatusUnauthorized, "UNAUTHORIZED", "error.unauthorized"}
	case errors.Is(err, ErrRateLimited):
		return ErrorKind{http.StatusTooManyRequests, "RATE_LIMITED", "error.too_many_requests"}
	case errors.Is(err, ErrStoreUnavailable):
		return ErrorKind{http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "error.unavailable"}
	default:
		return ErrorKind{http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "error.internal"}
	}
}

// Detail returns the caller-safe part of err: the text after the kind prefix.
// Store and internal errors never expose their cause.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrUnauthorized, ErrRateLimited} {
		if errors.Is(err, kind) {
			return strings.TrimPrefix(err.Error(), kind.Error()+": ")
		}
	}
	return ""
}
