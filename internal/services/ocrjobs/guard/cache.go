package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ocrjobs/internal/platform/store"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

// DefaultCacheTTL keeps results for a day
const DefaultCacheTTL = 24 * time.Hour

// Cache maps fingerprints to completed result descriptors. It is advisory: callers
// treat every error as a miss and never fail a job because a write was lost.
type Cache struct {
	kv   store.KV
	keys Keys
	ttl  time.Duration
	now  func() time.Time
}

// NewCache builds a Cache; ttl <= 0 uses DefaultCacheTTL
func NewCache(kv store.KV, keys Keys, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{kv: kv, keys: keys, ttl: ttl, now: time.Now}
}

// Exists reports whether an unexpired entry is stored
func (c *Cache) Exists(ctx context.Context, fingerprint string) (bool, error) {
	return c.kv.Exists(ctx, c.keys.Cache(fingerprint))
}

// Get returns the entry for fingerprint
func (c *Cache) Get(ctx context.Context, fingerprint string) (dom.CacheEntry, bool, error) {
	raw, ok, err := c.kv.Get(ctx, c.keys.Cache(fingerprint))
	if err != nil || !ok {
		return dom.CacheEntry{}, false, err
	}
	var e dom.CacheEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return dom.CacheEntry{}, false, fmt.Errorf("cache decode %s: %w", fingerprint, err)
	}
	e.Fingerprint = fingerprint
	e.TTL = c.ttl
	return e, true, nil
}

// Put stores e, overwriting any previous entry; e.TTL overrides the cache default
func (c *Cache) Put(ctx context.Context, e dom.CacheEntry) error {
	if e.Fingerprint == "" {
		return fmt.Errorf("cache put: empty fingerprint")
	}
	ttl := e.TTL
	if ttl <= 0 {
		ttl = c.ttl
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.kv.Set(ctx, c.keys.Cache(e.Fingerprint), string(b), ttl)
}

// Drop removes an entry whose artifact went missing
func (c *Cache) Drop(ctx context.Context, fingerprint string) error {
	return c.kv.Del(ctx, c.keys.Cache(fingerprint))
}
