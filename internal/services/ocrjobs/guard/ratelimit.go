package guard

import (
	"context"
	"strconv"
	"time"

	"ocrjobs/internal/platform/store"
)

const (
	// Window is the fixed rate limit window
	Window = time.Minute
	// rate counters outlive their window by a second so a late read still sees them
	windowTTL = Window + time.Second
)

// RateLimiter is a fixed window counter per requester and wall clock minute.
// Bursts across a window boundary are accepted.
type RateLimiter struct {
	kv   store.KV
	keys Keys
	max  int
	now  func() time.Time
}

// NewRateLimiter builds a limiter allowing max requests per minute
func NewRateLimiter(kv store.KV, keys Keys, max int) *RateLimiter {
	return &RateLimiter{kv: kv, keys: keys, max: max, now: time.Now}
}

// Max is the configured budget per window
func (r *RateLimiter) Max() int { return r.max }

func (r *RateLimiter) bucket() int64 { return r.now().Unix() / int64(Window/time.Second) }

// Allow counts one request and reports whether it fits the current window
func (r *RateLimiter) Allow(ctx context.Context, requesterID string) (bool, error) {
	n, err := r.kv.IncrExpire(ctx, r.keys.Rate(requesterID, r.bucket()), windowTTL)
	if err != nil {
		return false, err
	}
	return n <= int64(r.max), nil
}

// Remaining is what is left of the current window, never negative
func (r *RateLimiter) Remaining(ctx context.Context, requesterID string) (int, error) {
	raw, ok, err := r.kv.Get(ctx, r.keys.Rate(requesterID, r.bucket()))
	if err != nil {
		return 0, err
	}
	if !ok {
		return r.max, nil
	}
	used, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return max(0, r.max-used), nil
}

// RetryAfter is the time until the next window opens
func (r *RateLimiter) RetryAfter() time.Duration {
	now := r.now()
	return now.Truncate(Window).Add(Window).Sub(now)
}
