// Package memkv is an in process store.KV for single binary deployments and tests
package memkv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	val string
	exp time.Time // zero means no expiry
}

// KV is a mutex guarded map with per key expiry
type KV struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

// New returns an empty KV; now defaults to time.Now
func New(now func() time.Time) *KV {
	if now == nil {
		now = time.Now
	}
	return &KV{m: map[string]entry{}, now: now}
}

// lookup returns a live entry, evicting it when expired; caller holds mu
func (k *KV) lookup(key string) (entry, bool) {
	e, ok := k.m[key]
	if !ok {
		return entry{}, false
	}
	if !e.exp.IsZero() && !k.now().Before(e.exp) {
		delete(k.m, key)
		return entry{}, false
	}
	return e, true
}

func (k *KV) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return k.now().Add(ttl)
}

// IncrExpire increments key and sets ttl when the counter was just created
func (k *KV) IncrExpire(_ context.Context, key string, ttl time.Duration) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.lookup(key)
	var n int64
	if ok {
		v, err := strconv.ParseInt(e.val, 10, 64)
		if err != nil {
			return 0, err
		}
		n = v
	}
	n++
	if n == 1 {
		e.exp = k.expiry(ttl)
	}
	e.val = strconv.FormatInt(n, 10)
	k.m[key] = e
	return n, nil
}

// IncrMax increments key only while it is below limit
func (k *KV) IncrMax(_ context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.lookup(key)
	var n int64
	if ok {
		v, err := strconv.ParseInt(e.val, 10, 64)
		if err != nil {
			return 0, false, err
		}
		n = v
	}
	if n >= limit {
		return n, false, nil
	}
	n++
	if n == 1 {
		e.exp = k.expiry(ttl)
	}
	e.val = strconv.FormatInt(n, 10)
	k.m[key] = e
	return n, true, nil
}

// Decr decrements key, deleting it once it reaches zero
func (k *KV) Decr(_ context.Context, key string) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.lookup(key)
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseInt(e.val, 10, 64)
	if err != nil {
		return 0, err
	}
	v--
	if v <= 0 {
		delete(k.m, key)
		return 0, nil
	}
	e.val = strconv.FormatInt(v, 10)
	k.m[key] = e
	return v, nil
}

// Get returns the value and whether it was present
func (k *KV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.lookup(key)
	return e.val, ok, nil
}

// Set stores value with ttl; ttl <= 0 keeps the key until deleted
func (k *KV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = entry{val: value, exp: k.expiry(ttl)}
	return nil
}

// Exists reports whether key is present
func (k *KV) Exists(_ context.Context, key string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.lookup(key)
	return ok, nil
}

// Del removes key
func (k *KV) Del(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

// Ping always succeeds
func (k *KV) Ping(context.Context) error { return nil }

// Close is a no op
func (k *KV) Close() error { return nil }
