package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeRateLimited  Code = "rate_limited"

	// Onboarding workflow codes
	CodeInvalidTransition    Code = "invalid_transition"    // Command not legal from the current step
	CodeGateNotSatisfied     Code = "gate_not_satisfied"    // Transition attempted before its precondition holds
	CodeVerificationRejected Code = "verification_rejected" // External check actively failed
	CodeVerificationTimeout  Code = "verification_timeout"  // External check did not answer in time
	CodeProviderUnavailable  Code = "provider_unavailable"  // External dependency is down
	CodeDuplicateEmail       Code = "duplicate_email"       // Active session already exists for the email
	CodeVersionConflict      Code = "version_conflict"      // Concurrent mutation won the compare-and-swap
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the domain code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Retryable reports whether a request failing with code may be retried unchanged.
// Session-level failures (gates, transitions, validation) need corrected input first.
func Retryable(code Code) bool {
	switch code {
	case CodeVerificationTimeout, CodeProviderUnavailable, CodeVersionConflict, CodeRateLimited:
		return true
	default:
		return false
	}
}
