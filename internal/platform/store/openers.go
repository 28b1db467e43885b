package store

import (
	"context"
	"fmt"
	"time"

	"ocrjobs/internal/platform/store/ch"
	"ocrjobs/internal/platform/store/pg"
	"ocrjobs/internal/platform/store/rds"
)

// sleep is swapped in tests
var sleep = time.Sleep

const (
	pgDefaultRetries = 20
	pgDefaultPing    = 3 * time.Second
	pgBackoffStart   = 150 * time.Millisecond
	pgBackoffMax     = 2 * time.Second
)

// openPG connects the pool then waits for postgres to answer, backing off
// between pings. Compose brings the worker up before the database is ready.
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	p, err := pg.Open(ctx, pg.Config{URL: cfg.PG.URL, MaxConns: cfg.PG.MaxConns, SlowMs: cfg.PG.SlowQueryMs}, tracer, nil)
	if err != nil {
		return nil, err
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = pgDefaultRetries
	}
	timeout := cfg.PG.PingTimeout
	if timeout <= 0 {
		timeout = pgDefaultPing
	}

	backoff := pgBackoffStart
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = p.Pool.Ping(pctx)
		cancel()
		if lastErr == nil {
			return newPGRunner(p), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		s.Log.Warn().Err(lastErr).Int("attempt", attempt).Dur("backoff", backoff).Msg("postgres not ready")
		sleep(backoff)
		backoff = min(backoff*2, pgBackoffMax)
	}
	p.Close()
	return nil, fmt.Errorf("ping failed after %d attempts: %w", attempts, lastErr)
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := ch.Open(ctx, ch.Config{URL: cfg.CH.URL, ClientName: cfg.CH.ClientName, ClientTag: cfg.CH.ClientTag})
	if err != nil {
		return nil, err
	}
	return chStore{c}, nil
}

func openRDS(ctx context.Context, cfg Config) (KV, error) {
	c, err := rds.Open(ctx, rds.Config{Addr: cfg.RDS.Addr, Password: cfg.RDS.Password, DB: cfg.RDS.DB})
	if err != nil {
		return nil, err
	}
	return c, nil
}
