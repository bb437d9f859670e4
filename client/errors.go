package client

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized is returned when the generation service rejects the caller
// identity (401). Fatal to the whole request; never retried.
var ErrUnauthorized = errors.New("unauthorized: no valid user identity")

// RateLimitError is the 429 response from the generation service. RetryAfter
// carries the service's suggested wait so callers can show a countdown.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: %s (retry after %s)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited: %s", e.Message)
}

// QuotaExceededError is the 403 "max-limit" business rule: the user has hit
// their course creation quota. Surfaced distinctly so the UI can prompt an
// upgrade instead of showing a generic failure.
type QuotaExceededError struct {
	Message string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.Message)
}

// FieldError is one field-level problem from a 422 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a 422 response: the generation request was malformed.
// Not retried.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
}

// APIError covers every other non-2xx response (transport errors wrap the
// underlying error instead).
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generation service returned %d: %s", e.StatusCode, e.Body)
}

// IsRateLimit reports whether err (anywhere in its chain) is a 429.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
