// Package providers holds the failure taxonomy shared by every external
// verification vendor, and the instrumentation that wraps their adapters.
package providers

import (
	"context"
	"errors"
	"fmt"

	dErrors "onboarding/pkg/domain-errors"
)

// ErrorCategory normalizes vendor failures.
type ErrorCategory string

const (
	// ErrorTimeout: the vendor did not answer within the call budget.
	ErrorTimeout ErrorCategory = "timeout"
	// ErrorBadData: the vendor answered with something we cannot use.
	ErrorBadData ErrorCategory = "bad_data"
	// ErrorAuthentication: credentials were refused.
	ErrorAuthentication ErrorCategory = "authentication"
	// ErrorProviderOutage: the vendor is unreachable or returned 5xx.
	ErrorProviderOutage ErrorCategory = "provider_outage"
	// ErrorNotFound: the vendor has no record of the referenced upload or session.
	ErrorNotFound ErrorCategory = "not_found"
	// ErrorRateLimited: the vendor throttled us.
	ErrorRateLimited ErrorCategory = "rate_limited"
	// ErrorNotEnabled: the capability is switched off for this deployment.
	ErrorNotEnabled ErrorCategory = "not_enabled"
	// ErrorInternal: anything else.
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps a vendor failure with its category.
type ProviderError struct {
	Category   ErrorCategory
	Provider   string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError categorizes a failure. Timeouts, outages and throttling
// are retryable on the next scheduled cycle.
func NewProviderError(category ErrorCategory, provider, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited
	return &ProviderError{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}

// ToDomain translates a vendor failure into a coded domain error, keeping the
// ProviderError reachable through errors.As. Nil stays nil.
func ToDomain(err error, message string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch GetCategory(err) {
	case ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, message)
	case ErrorNotFound:
		return dErrors.Wrap(err, dErrors.CodeNotFound, message)
	case ErrorNotEnabled:
		return dErrors.Wrap(err, dErrors.CodeNotEnabled, message)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, message)
	}
}
