package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Class represents a classification of provider failures.
type Class string

const (
	// ClassQuotaExhausted means the provider's daily request cap was hit.
	// Terminal for now; nothing succeeds until the quota resets.
	ClassQuotaExhausted Class = "quota_exhausted"

	// ClassRateLimited means the provider rejected the call short-term.
	ClassRateLimited Class = "rate_limited"

	// ClassSelfThrottled means the client-side governor pre-empted the call.
	// Handled exactly like ClassRateLimited everywhere downstream.
	ClassSelfThrottled Class = "self_throttled"

	// ClassGeneric covers any other upstream fault.
	ClassGeneric Class = "generic"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrQuotaExhausted indicates the provider's daily quota is used up.
	ErrQuotaExhausted = errors.New("provider daily quota exhausted")

	// ErrRateLimited indicates a short-term provider rate limit.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrSelfThrottled indicates the governor pre-empted the call.
	ErrSelfThrottled = errors.New("call throttled by governor")

	// ErrMissingQuery indicates a search without a query term.
	ErrMissingQuery = errors.New("query parameter is missing")
)

// Error is a classified provider failure.
type Error struct {
	Class      Class
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s error (status %d) on %s: %s",
			e.Class, e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("provider %s error on %s: %s", e.Class, e.Endpoint, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to an error class and sentinel.
func classifyStatus(status int) (Class, error) {
	switch status {
	case http.StatusPaymentRequired: // daily quota exhausted
		return ClassQuotaExhausted, ErrQuotaExhausted
	case http.StatusTooManyRequests:
		return ClassRateLimited, ErrRateLimited
	default:
		return ClassGeneric, nil
	}
}

// ClassOf extracts the classification from an error, or ClassGeneric for
// unclassified errors.
func ClassOf(err error) Class {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ClassGeneric
}

// IsRateLimit reports whether the error is a rate-limit condition, either
// provider-side or pre-empted by the governor.
func IsRateLimit(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrSelfThrottled)
}

// IsQuotaExhausted reports whether the provider's daily quota is used up.
func IsQuotaExhausted(err error) bool {
	return errors.Is(err, ErrQuotaExhausted)
}
