package ai

import (
	"fmt"
	"net/http"
	"time"
)

// Typed provider failures. Each wraps the decoded *APIError, so callers can
// reach the status, code and request id through errors.As.

// AuthError is a 401/403 or a request refused locally because no key is set.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string { return describe("authentication failed", e.APIError) }
func (e *AuthError) Unwrap() error { return e.APIError }

// Is matches ErrMissingAPIKey when the key was never configured.
func (e *AuthError) Is(target error) bool {
	return target == ErrMissingAPIKey && e.APIError != nil && e.APIError.Message == ErrMissingAPIKey.Error()
}

func missingKeyError() *AuthError {
	return &AuthError{APIError: &APIError{StatusCode: http.StatusUnauthorized, Message: ErrMissingAPIKey.Error()}}
}

// RateLimitError is a 429. RetryAfter is zero when the provider sent no hint.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return describe(fmt.Sprintf("rate limited, retry in ~%ds", int(e.RetryAfter.Seconds())), e.APIError)
	}
	return describe("rate limited", e.APIError)
}
func (e *RateLimitError) Unwrap() error { return e.APIError }

type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string { return describe("model not found", e.APIError) }
func (e *ModelNotFoundError) Unwrap() error { return e.APIError }

type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return describe("bad request", e.APIError) }
func (e *BadRequestError) Unwrap() error { return e.APIError }

// QuotaExceededError covers 402s and quota/billing refusals.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string { return describe("quota exceeded", e.APIError) }
func (e *QuotaExceededError) Unwrap() error { return e.APIError }

// ServerError is any 5xx from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return describe("provider error", e.APIError) }
func (e *ServerError) Unwrap() error { return e.APIError }

// UnreachableError means no HTTP response was received at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("endpoint unreachable: %v", e.Err)
	}
	return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

func describe(prefix string, e *APIError) string {
	if e == nil {
		return prefix
	}
	return prefix + ": " + e.Error()
}
