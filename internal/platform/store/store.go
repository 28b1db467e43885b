// Package store opens the optional backends behind small seams:
// postgres for the job queue, clickhouse for outcome events and
// redis for shared counters and the result cache.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ocrjobs/internal/platform/logger"
)

// Store holds whichever backends were enabled; a disabled backend stays nil
type Store struct {
	Log logger.Logger

	PG TxRunner
	CH Clickhouse
	KV KV
}

// Row scans a single result row
type Row interface {
	Scan(dest ...any) error
}

// Rows iterates a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag reports what a write touched
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the sql surface repos are written against
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner is a RowQuerier that can also run fn inside one transaction.
// fn returning an error rolls back.
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse appends rows to columnar tables
type Clickhouse interface {
	Insert(ctx context.Context, table string, data any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// KV is the atomic key value surface shared between processes.
// Counters and cache descriptors live here so every worker sees the same state.
type KV interface {
	// IncrExpire increments key and, when the result is 1, sets ttl on it
	IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// IncrMax increments key only while it is below limit. It returns the resulting
	// value and whether the increment happened; ttl is set when the value becomes 1
	IncrMax(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error)
	// Decr decrements key; values never go below zero and a drained key is removed
	Decr(ctx context.Context, key string) (int64, error)
	// Get returns the value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value; ttl <= 0 means no expiry
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Exists reports whether key is present and unexpired
	Exists(ctx context.Context, key string) (bool, error)
	// Del removes key; missing keys are not an error
	Del(ctx context.Context, key string) error
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

type backend struct {
	name   string
	enable bool
	open   func(context.Context, Config, *Store) error
}

// Open connects every backend enabled in cfg. A failure closes whatever
// was already opened.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("component", "store").Logger()

	backends := []backend{
		{"pg", cfg.PG.Enabled, func(ctx context.Context, cfg Config, s *Store) (err error) {
			s.PG, err = openPG(ctx, cfg, s)
			return err
		}},
		{"ch", cfg.CH.Enabled, func(ctx context.Context, cfg Config, s *Store) (err error) {
			s.CH, err = openCH(ctx, cfg)
			return err
		}},
		{"kv", cfg.RDS.Enabled, func(ctx context.Context, cfg Config, s *Store) (err error) {
			s.KV, err = openRDS(ctx, cfg)
			return err
		}},
	}
	for _, b := range backends {
		if !b.enable {
			continue
		}
		if err := b.open(ctx, cfg, s); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("store %s: %w", b.name, err)
		}
		s.Log.Debug().Str("backend", b.name).Msg("backend connected")
	}
	return s, nil
}

// seams lists the non nil backends by name
func (s *Store) seams() map[string]any {
	out := map[string]any{}
	if s.PG != nil {
		out["pg"] = s.PG
	}
	if s.CH != nil {
		out["ch"] = s.CH
	}
	if s.KV != nil {
		out["kv"] = s.KV
	}
	return out
}

// Ready pings every opened backend and joins the failures
func (s *Store) Ready(ctx context.Context) error {
	if s == nil {
		return errors.New("store: nil")
	}
	var errs []error
	for name, seam := range s.seams() {
		p, ok := seam.(Pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ErrNoSharedKV means the job queue is shared between processes but counters and the cache are not
var ErrNoSharedKV = errors.New("store: postgres queue without a shared kv; enable SERVICE_REDIS")

// Shared reports ErrNoSharedKV when PG is open and KV is not. Binaries that
// share the queue call it before building services.
func (s *Store) Shared() error {
	if s.PG != nil && s.KV == nil {
		return ErrNoSharedKV
	}
	return nil
}

// Close releases every opened backend; nil backends are skipped
func (s *Store) Close(_ context.Context) error {
	var errs []error
	for _, seam := range s.seams() {
		switch c := seam.(type) {
		case interface{ Close() error }:
			errs = append(errs, c.Close())
		case interface{ Close() }:
			c.Close()
		}
	}
	return errors.Join(errs...)
}
