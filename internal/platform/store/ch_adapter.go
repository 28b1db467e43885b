package store

import (
	"context"
	"fmt"

	"ocrjobs/internal/platform/store/ch"
)

// chStore exposes *ch.CH as the Clickhouse seam
type chStore struct{ c *ch.CH }

var _ Clickhouse = chStore{}

// Insert accepts [][]any, one inner slice per row in column order
func (s chStore) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return fmt.Errorf("ch insert %s: want [][]any, got %T", table, data)
	}
	return s.c.Insert(ctx, table, rows)
}

func (s chStore) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := s.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (s chStore) Ping(ctx context.Context) error { return s.c.Ping(ctx) }

func (s chStore) Close() error { return s.c.Close() }

// chRows drops the error from Close to match Rows
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
