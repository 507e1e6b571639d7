package trends

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidInput marks queries rejected before any network call.
	ErrInvalidInput = errors.New("trends: invalid input")
	// ErrRateLimitExhausted is matched by RateLimitExhaustedError via errors.Is.
	ErrRateLimitExhausted = errors.New("trends: rate limit exhausted")
)

// rateLimitSignals are matched case-insensitively against provider error text.
var rateLimitSignals = []string{"429", "too many requests", "rate limit"}

// IsRateLimited reports whether err signals provider throttling.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range rateLimitSignals {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// RateLimitExhaustedError is returned once every attempt was throttled.
type RateLimitExhaustedError struct {
	Keywords []string
	Attempts int
	Err      error
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("google trends rate limit exceeded after %d attempts, try again later (keywords: %s)",
		e.Attempts, strings.Join(e.Keywords, ", "))
}

func (e *RateLimitExhaustedError) Unwrap() error { return e.Err }

func (e *RateLimitExhaustedError) Is(target error) bool { return target == ErrRateLimitExhausted }

// StatusError reports a non-200 response from a trends endpoint. Body holds a
// snippet of the response and is kept out of Error so that page text never
// affects rate-limit classification.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trends %s returned status %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}
