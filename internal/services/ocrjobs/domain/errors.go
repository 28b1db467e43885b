package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrLeaseLost means the job is no longer leased to the caller
var ErrLeaseLost = errors.New("queue lease lost")

// RateLimitError is returned when a requester used up the current minute
type RateLimitError struct {
	Remaining  int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, remaining %d, retry after %s", e.Remaining, e.RetryAfter)
}

// AsRateLimit unwraps a RateLimitError from err
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
