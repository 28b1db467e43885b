package service

import (
	"context"
	"time"

	"ocrjobs/internal/core/langs"
	"ocrjobs/internal/platform/logger"
	"ocrjobs/internal/platform/store"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

// Event is one terminal job attempt
type Event struct {
	JobID       string
	RequesterID string
	Fingerprint string
	MimeKind    dom.MimeKind
	State       dom.State
	Backend     dom.Backend
	Script      string
	Pages       int
	Confidence  float64
	Chars       int
	Attempt     int
	Duration    time.Duration
	FinishedAt  time.Time
}

// EventSink records job outcomes for analytics; failures never reach the job
type EventSink interface {
	Record(ctx context.Context, ev Event)
}

const outcomesTable = "ocr_job_outcomes"

// CHSink appends outcomes to ClickHouse
type CHSink struct {
	ch      store.Clickhouse
	timeout time.Duration
}

// NewCHSink returns a sink over ch; a nil ch drops events
func NewCHSink(ch store.Clickhouse) *CHSink { return &CHSink{ch: ch, timeout: 2 * time.Second} }

// Record inserts ev as a single row
func (s *CHSink) Record(ctx context.Context, ev Event) {
	if s == nil || s.ch == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	row := []any{
		ev.JobID, ev.RequesterID, ev.Fingerprint, string(ev.MimeKind),
		string(ev.State), string(ev.Backend), ev.Script,
		uint32(ev.Pages), ev.Confidence, uint32(ev.Chars), uint16(ev.Attempt),
		uint32(ev.Duration.Milliseconds()), ev.FinishedAt.UTC(),
	}
	if err := s.ch.Insert(ctx, outcomesTable, [][]any{row}); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("outcome event insert failed")
	}
}

func (s *Svc) record(ctx context.Context, job dom.JobRequest, out dom.Outcome, took time.Duration) {
	s.events.Record(ctx, Event{
		JobID:       job.ID,
		RequesterID: job.RequesterID,
		Fingerprint: job.Fingerprint,
		MimeKind:    job.MimeKind,
		State:       out.State,
		Backend:     out.Backend,
		Script:      langs.DominantScript(out.Text),
		Pages:       out.Pages,
		Confidence:  out.Confidence,
		Chars:       len([]rune(out.Text)),
		Attempt:     job.Attempt,
		Duration:    took,
		FinishedAt:  s.now(),
	})
}
