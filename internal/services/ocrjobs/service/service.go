// Package service implements OCR job intake and execution
package service

import (
	"context"
	"time"

	"ocrjobs/internal/modkit"
	"ocrjobs/internal/platform/logger"
	"ocrjobs/internal/platform/store"
	"ocrjobs/internal/platform/store/memkv"
	dom "ocrjobs/internal/services/ocrjobs/domain"
	"ocrjobs/internal/services/ocrjobs/guard"
	"ocrjobs/internal/services/ocrjobs/pipeline"
	"ocrjobs/internal/services/ocrjobs/repo"

	"github.com/google/uuid"
)

// Service implements the intake, worker and health ports
type Service interface {
	dom.SubmitPort
	dom.WorkerPort
	dom.ExecutePort
	dom.HealthPort
}

// Config controls intake limits and the worker pool
type Config struct {
	RateMaxPerMinute  int
	MaxConcurrentJobs int
	PartialEvery      int
	CacheTTL          time.Duration
	DeferDelay        time.Duration
	ResultsDir        string
	WorkerConcurrency int
	QueueTakeBatch    int
	LeaseFor          time.Duration
	KeyPrefix         string
}

// Parts are the collaborators built from adapters by the module
type Parts struct {
	Queue    dom.JobQueue
	Pipeline *pipeline.Pipeline
	Splitter dom.Splitter
	Notifier dom.Notifier
	Events   EventSink
}

// Svc implements intake and execution of OCR jobs
type Svc struct {
	cfg Config

	queue     dom.JobQueue
	cache     *guard.Cache
	limiter   *guard.RateLimiter
	admission *guard.Admission
	prefs     *Prefs

	pipe   *pipeline.Pipeline
	split  dom.Splitter
	notify dom.Notifier
	events EventSink

	workerID string
	now      func() time.Time
}

// New constructs the service. Missing parts fall back to in process versions:
// the queue to the PG repo when deps.PG is set or memory otherwise, KV to memkv
// only when nothing is shared. A PG queue without a KV panics with store.ErrNoSharedKV.
func New(deps modkit.Deps, cfg Config, parts Parts) *Svc {
	cfg = withDefaults(cfg)

	kv := deps.KV
	if kv == nil {
		if deps.PG != nil {
			panic(store.ErrNoSharedKV)
		}
		kv = memkv.New(nil)
	}
	q := parts.Queue
	if q == nil {
		if deps.PG != nil {
			q = repo.NewPG().Bind(deps.PG)
		} else {
			q = repo.NewMemory(nil)
		}
	}
	ev := parts.Events
	if ev == nil {
		ev = NewCHSink(deps.CH)
	}
	n := parts.Notifier
	if n == nil {
		n = LogNotifier{}
	}

	keys := guard.Keys{Prefix: cfg.KeyPrefix}
	return &Svc{
		cfg:       cfg,
		queue:     q,
		cache:     guard.NewCache(kv, keys, cfg.CacheTTL),
		limiter:   guard.NewRateLimiter(kv, keys, cfg.RateMaxPerMinute),
		admission: guard.NewAdmission(kv, keys, cfg.MaxConcurrentJobs),
		prefs:     NewPrefs(kv, keys),
		pipe:      parts.Pipeline,
		split:     parts.Splitter,
		notify:    n,
		events:    ev,
		workerID:  "ocr-" + uuid.NewString()[:8],
		now:       time.Now,
	}
}

func withDefaults(c Config) Config {
	if c.RateMaxPerMinute <= 0 {
		c.RateMaxPerMinute = 15
	}
	if c.MaxConcurrentJobs <= 0 {
		c.MaxConcurrentJobs = 3
	}
	if c.PartialEvery <= 0 {
		c.PartialEvery = 5
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = guard.DefaultCacheTTL
	}
	if c.DeferDelay <= 0 {
		c.DeferDelay = 60 * time.Second
	}
	if c.WorkerConcurrency <= 0 {
		c.WorkerConcurrency = 4
	}
	if c.QueueTakeBatch <= 0 {
		c.QueueTakeBatch = 8
	}
	if c.LeaseFor <= 0 {
		c.LeaseFor = 15 * time.Minute
	}
	return c
}

// Prefs exposes stored requester preferences
func (s *Svc) Prefs() *Prefs { return s.prefs }

// QueueDepth reports queued plus leased jobs
func (s *Svc) QueueDepth(ctx context.Context) (int, error) { return s.queue.Depth(ctx) }

// say sends text and swallows transport failures
func (s *Svc) say(ctx context.Context, requesterID, text string) {
	if err := s.notify.NotifyText(ctx, requesterID, text); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("notify text failed")
	}
}

// send delivers an artifact and swallows transport failures
func (s *Svc) send(ctx context.Context, requesterID, path, caption string) {
	if err := s.notify.NotifyArtifact(ctx, requesterID, path, caption); err != nil {
		logger.C(ctx).Warn().Err(err).Str("path", path).Msg("notify artifact failed")
	}
}

// LogNotifier writes notifications to the log; used when no transport is configured
type LogNotifier struct{}

// NotifyText logs the text
func (LogNotifier) NotifyText(ctx context.Context, requesterID, text string) error {
	logger.C(ctx).Info().Str("to", requesterID).Str("text", text).Msg("notify")
	return nil
}

// NotifyArtifact logs the artifact path
func (LogNotifier) NotifyArtifact(ctx context.Context, requesterID, path, caption string) error {
	logger.C(ctx).Info().Str("to", requesterID).Str("path", path).Str("caption", caption).Msg("notify artifact")
	return nil
}
