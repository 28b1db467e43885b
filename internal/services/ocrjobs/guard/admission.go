package guard

import (
	"context"
	"strconv"
	"sync"
	"time"

	"ocrjobs/internal/platform/store"
)

// DefaultRunningTTL lets a counter heal itself if a worker dies holding slots
const DefaultRunningTTL = time.Hour

// Admission caps the jobs a requester has actively running. The counter only
// reflects jobs doing OCR work: a refused attempt never touches it.
type Admission struct {
	kv   store.KV
	keys Keys
	max  int
	ttl  time.Duration
}

// NewAdmission builds an Admission allowing max concurrent jobs per requester
func NewAdmission(kv store.KV, keys Keys, max int) *Admission {
	return &Admission{kv: kv, keys: keys, max: max, ttl: DefaultRunningTTL}
}

// Max is the configured per requester ceiling
func (a *Admission) Max() int { return a.max }

// Slot is a held admission; Release must run on every exit path and is safe to call twice
type Slot struct {
	a    *Admission
	key  string
	once sync.Once
	err  error
	// InFlight is the counter value right after this slot was taken
	InFlight int64
}

// Acquire takes a slot when the requester is under the ceiling. ok is false when the
// job has to be deferred.
func (a *Admission) Acquire(ctx context.Context, requesterID string) (*Slot, bool, error) {
	key := a.keys.Running(requesterID)
	n, ok, err := a.kv.IncrMax(ctx, key, int64(a.max), a.ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Slot{a: a, key: key, InFlight: n}, true, nil
}

// Release gives the slot back. It ignores ctx cancellation so a cancelled job still
// decrements.
func (s *Slot) Release(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		_, s.err = s.a.kv.Decr(context.WithoutCancel(ctx), s.key)
	})
	return s.err
}

// InFlight reads the current counter
func (a *Admission) InFlight(ctx context.Context, requesterID string) (int64, error) {
	raw, ok, err := a.kv.Get(ctx, a.keys.Running(requesterID))
	if err != nil || !ok {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}
