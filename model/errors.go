package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies backend failures for the retry policy.
type ErrorKind int

const (
	// ErrorKindFatal failures are never retried.
	ErrorKindFatal ErrorKind = iota
	// ErrorKindTransient failures (rate limit, overload) may be retried.
	ErrorKindTransient
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	if k == ErrorKindTransient {
		return "transient"
	}
	return "fatal"
}

// BackendError is the typed error every provider adapter returns.
type BackendError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Err        error
}

// Error implements error.
func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *BackendError) Unwrap() error { return e.Err }

// NewTransientError wraps err as a retryable overload failure.
func NewTransientError(provider string, err error) *BackendError {
	return &BackendError{Kind: ErrorKindTransient, Provider: provider, Err: err}
}

// NewFatalError wraps err as a non-retryable failure.
func NewFatalError(provider string, err error) *BackendError {
	return &BackendError{Kind: ErrorKindFatal, Provider: provider, Err: err}
}

// ErrOverloaded is a convenience transient cause for mocks and tests.
var ErrOverloaded = errors.New("overloaded")

// IsTransient reports whether err carries a transient BackendError.
func IsTransient(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Kind == ErrorKindTransient
	}
	return false
}

// KindForStatus maps an HTTP status code and error text onto an ErrorKind.
// 429, 503 and 529 are treated as overload, as is any message mentioning
// "overloaded" or "rate limit".
func KindForStatus(status int, msg string) ErrorKind {
	switch status {
	case 429, 503, 529:
		return ErrorKindTransient
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "overloaded") || strings.Contains(lower, "rate limit") {
		return ErrorKindTransient
	}
	return ErrorKindFatal
}

// Classify builds a BackendError for a provider failure.
func Classify(provider string, status int, err error) *BackendError {
	var be *BackendError
	if errors.As(err, &be) {
		return be
	}
	return &BackendError{
		Kind:       KindForStatus(status, err.Error()),
		Provider:   provider,
		StatusCode: status,
		Err:        err,
	}
}
