package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ProviderError represents a failed call to a vendor LLM API.
// StatusCode is zero when the failure happened before an HTTP response was received.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps an existing error as a ProviderError.
func NewProviderError(provider string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, StatusCode: statusCode, Err: err}
}

// IsRetryable reports whether err is a transient vendor failure (rate limit, 5xx or
// no response at all). The service never retries; this only feeds logs and metrics.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == 0 ||
		pe.StatusCode == http.StatusTooManyRequests ||
		(pe.StatusCode >= 500 && pe.StatusCode < 600)
}

// StatusCode extracts the vendor HTTP status from err, or 0 if unknown.
func StatusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}
