// Package domain defines the core domain models for recofeed.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form RF-<AREA>-<NNNN>, where the first three digits
// mirror the closest HTTP status.
type DomainError struct {
	Code    string // Error code (e.g., "RF-FEED-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.

func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Fetch Errors (FETCH)
// ============================================================================

var (
	// ErrFetchFailed indicates a page fetch failed for an unclassified reason.
	ErrFetchFailed = NewDomainError("RF-FETCH-5000", "fetch failed")

	// ErrRemoteUnavailable indicates the remote source is not accepting
	// requests (circuit open or rate limiter wait aborted).
	ErrRemoteUnavailable = NewDomainError("RF-FETCH-5020", "remote source unavailable")

	// ErrRemoteStatus indicates the remote source answered with a non-2xx status.
	ErrRemoteStatus = NewDomainError("RF-FETCH-5021", "remote source returned an error status")
)

// ============================================================================
// Snapshot Errors (SNAP)
// ============================================================================

var (
	// ErrSnapshotCorrupt indicates a stored snapshot could not be decoded.
	ErrSnapshotCorrupt = NewDomainError("RF-SNAP-4220", "snapshot corrupt")

	// ErrSnapshotStorage indicates the snapshot KV backend failed.
	ErrSnapshotStorage = NewDomainError("RF-SNAP-5000", "snapshot storage error")
)

// ============================================================================
// Feed / Argument Errors
// ============================================================================

var (
	// ErrUnknownFeed indicates the requested feed kind does not exist.
	ErrUnknownFeed = NewDomainError("RF-FEED-4040", "unknown feed kind")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("RF-ARG-4000", "invalid argument")
)
