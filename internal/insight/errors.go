package insight

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/leaseup/internal/ai"
)

// Kind classifies an insight failure for display.
type Kind string

const (
	KindUnavailable   Kind = "unavailable"
	KindAuth          Kind = "auth"
	KindRateLimited   Kind = "rate_limited"
	KindModelNotFound Kind = "model_not_found"
	KindBadRequest    Kind = "bad_request"
	KindQuota         Kind = "quota"
	KindProvider      Kind = "provider_error"
	KindTimeout       Kind = "timeout"
	KindMalformed     Kind = "malformed_response"
)

// Error is the only error type Generate returns.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("insight %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is a short user-facing description of the failure.
func (e *Error) Message() string {
	switch e.Kind {
	case KindAuth:
		return "The insight service rejected the credentials. Check the API key."
	case KindRateLimited:
		return "The insight service is rate limiting requests. Try again shortly."
	case KindModelNotFound:
		return "The configured model is not available."
	case KindBadRequest:
		return "The insight service rejected the request."
	case KindQuota:
		return "The insight service account is out of quota."
	case KindTimeout:
		return "The insight service did not answer in time."
	case KindMalformed:
		return "The insight service returned an empty or malformed answer."
	case KindProvider:
		return "The insight service failed to answer."
	default:
		return "The insight service is unreachable."
	}
}

// ErrEmptyResponse marks a completion with no usable text.
var ErrEmptyResponse = errors.New("response has no content")

// classify wraps a runtime error in an *Error.
func classify(err error) *Error {
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}
	var (
		auth  *ai.AuthError
		rl    *ai.RateLimitError
		mnf   *ai.ModelNotFoundError
		bad   *ai.BadRequestError
		quota *ai.QuotaExceededError
		srv   *ai.ServerError
		api   *ai.APIError
	)
	kind := KindUnavailable
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &auth):
		kind = KindAuth
	case errors.As(err, &rl):
		kind = KindRateLimited
	case errors.As(err, &mnf):
		kind = KindModelNotFound
	case errors.As(err, &bad):
		kind = KindBadRequest
	case errors.As(err, &quota):
		kind = KindQuota
	case errors.As(err, &srv), errors.As(err, &api):
		kind = KindProvider
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, ai.ErrMalformedResponse):
		kind = KindMalformed
	}
	return &Error{Kind: kind, Err: err}
}
