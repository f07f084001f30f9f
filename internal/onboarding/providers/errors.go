package providers

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for provider calls.
//
// Adapters classify every failure into one of these so the orchestrator can
// decide on retries without inspecting provider-specific payloads.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider did not answer before the deadline
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorRejected indicates the provider examined the input and refused it
	ErrorRejected ErrorCategory = "rejected"

	// ErrorBadData indicates the input or the provider's answer could not be interpreted
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorProviderOutage indicates the provider is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps provider failures with normalized categorization.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool // Set from Category (timeout, outage, rate-limited → true)
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a provider error with automatic retry classification.
//
// Retryable is true for transient failures (timeout, outage, rate-limited) and
// false for answers that will not change on a second call (rejected, bad data).
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// ErrCircuitOpen is returned while a provider's breaker refuses calls.
var ErrCircuitOpen = errors.New("provider circuit open")
