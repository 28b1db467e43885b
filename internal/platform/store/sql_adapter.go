package store

import (
	"context"
	"errors"
	"time"

	"ocrjobs/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is what *pgxpool.Pool and pgx.Tx have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced runs statements on db and reports each one to the tracer
type traced struct {
	db     pgxQuerier
	tracer pg.QueryTracer
	slow   time.Duration // < 0 never marks a query slow
}

func (q traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.db.Exec(ctx, sql, args...)
	q.emit(ctx, sql, args, start, err)
	return ct, err
}

func (q traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := q.db.Query(ctx, sql, args...)
	q.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgxRows{rs}, nil
}

// QueryRow reports once Scan returns so the event carries the scan error
func (q traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return scanHook{row: q.db.QueryRow(ctx, sql, args...), done: func(err error) {
		q.emit(ctx, sql, args, start, err)
	}}
}

func (q traced) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if q.tracer == nil {
		return
	}
	took := time.Since(start)
	q.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: took.Microseconds(),
		Err:       err,
		Slow:      q.slow >= 0 && took >= q.slow,
	})
}

// pgRunner is the pool backed TxRunner handed to repos
type pgRunner struct {
	traced
	p *pg.PG
}

func newPGRunner(p *pg.PG) *pgRunner {
	return &pgRunner{
		traced: traced{db: p.Pool, tracer: p.Tracer, slow: time.Duration(p.SlowMs) * time.Millisecond},
		p:      p,
	}
}

func (r *pgRunner) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	return pgx.BeginFunc(ctx, r.p.Pool, func(tx pgx.Tx) error {
		return fn(traced{db: tx, tracer: r.tracer, slow: r.slow})
	})
}

func (r *pgRunner) Ping(ctx context.Context) error {
	if r == nil || r.p == nil || r.p.Pool == nil {
		return errors.New("pg: not connected")
	}
	return r.p.Pool.Ping(ctx)
}

func (r *pgRunner) Close() error {
	r.p.Close()
	return nil
}

type scanHook struct {
	row  pgx.Row
	done func(error)
}

func (s scanHook) Scan(dst ...any) error {
	err := s.row.Scan(dst...)
	s.done(err)
	return err
}

type pgxRows struct{ pgx.Rows }

func (r pgxRows) Columns() []string {
	fds := r.FieldDescriptions()
	names := make([]string, 0, len(fds))
	for _, fd := range fds {
		names = append(names, fd.Name)
	}
	return names
}
