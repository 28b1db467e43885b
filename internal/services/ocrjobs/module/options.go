package module

import (
	"time"

	"ocrjobs/internal/platform/config"
)

// Options controls intake limits, the worker pool and the OCR backends
type Options struct {
	RateMaxPerMinute  int
	MaxConcurrentJobs int
	PartialEvery      int
	CacheTTL          time.Duration
	DeferDelay        time.Duration
	ResultsDir        string
	SpoolDir          string
	WorkerConcurrency int
	QueueTakeBatch    int
	LeaseFor          time.Duration
	KeyPrefix         string
	MaxUploadMB       int
	APIToken          string

	// CloudEnabled dials the Vision API at startup; a failed dial leaves local OCR only
	CloudEnabled bool
	// LocalOnly is an override only: set, it turns CloudEnabled off
	LocalOnly      bool
	TessdataPrefix string

	RenderDPI int
	Pdfinfo   string
	Pdftotext string
	Pdftoppm  string
}

// FromConfig reads OCR_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("OCR_")
	return Options{
		RateMaxPerMinute:  c.MayInt("RATE_MAX_PER_MINUTE", 15),
		MaxConcurrentJobs: c.MayInt("MAX_CONCURRENT_JOBS", 3),
		PartialEvery:      c.MayInt("PARTIAL_EVERY", 5),
		CacheTTL:          c.MayDuration("CACHE_TTL", 24*time.Hour),
		DeferDelay:        c.MayDuration("DEFER_DELAY", 60*time.Second),
		ResultsDir:        c.MayDir("RESULTS_DIR", "var/results"),
		SpoolDir:          c.MayDir("SPOOL_DIR", "var/spool"),
		WorkerConcurrency: c.MayInt("WORKER_CONCURRENCY", 4),
		QueueTakeBatch:    c.MayInt("QUEUE_TAKE_BATCH", 8),
		LeaseFor:          c.MayDuration("LEASE_FOR", 15*time.Minute),
		KeyPrefix:         c.MayString("KEY_PREFIX", "tgocr:"),
		MaxUploadMB:       c.MayInt("MAX_UPLOAD_MB", 20),
		APIToken:          c.MayString("API_TOKEN", ""),
		CloudEnabled:      c.MayBool("CLOUD_ENABLED", true),
		TessdataPrefix:    c.MayString("TESSDATA_PREFIX", ""),
		RenderDPI:         c.MayInt("RENDER_DPI", 300),
		Pdfinfo:           c.MayString("PDFINFO", "pdfinfo"),
		Pdftotext:         c.MayString("PDFTOTEXT", "pdftotext"),
		Pdftoppm:          c.MayString("PDFTOPPM", "pdftoppm"),
	}
}

// merge applies non-zero overrides; LocalOnly is the only way to turn the cloud off
func merge(opts, o Options) Options {
	if o.LocalOnly {
		opts.CloudEnabled = false
	}
	if o.RateMaxPerMinute != 0 {
		opts.RateMaxPerMinute = o.RateMaxPerMinute
	}
	if o.MaxConcurrentJobs != 0 {
		opts.MaxConcurrentJobs = o.MaxConcurrentJobs
	}
	if o.PartialEvery != 0 {
		opts.PartialEvery = o.PartialEvery
	}
	if o.CacheTTL != 0 {
		opts.CacheTTL = o.CacheTTL
	}
	if o.DeferDelay != 0 {
		opts.DeferDelay = o.DeferDelay
	}
	if o.ResultsDir != "" {
		opts.ResultsDir = o.ResultsDir
	}
	if o.SpoolDir != "" {
		opts.SpoolDir = o.SpoolDir
	}
	if o.WorkerConcurrency != 0 {
		opts.WorkerConcurrency = o.WorkerConcurrency
	}
	if o.QueueTakeBatch != 0 {
		opts.QueueTakeBatch = o.QueueTakeBatch
	}
	if o.LeaseFor != 0 {
		opts.LeaseFor = o.LeaseFor
	}
	if o.KeyPrefix != "" {
		opts.KeyPrefix = o.KeyPrefix
	}
	if o.MaxUploadMB != 0 {
		opts.MaxUploadMB = o.MaxUploadMB
	}
	if o.APIToken != "" {
		opts.APIToken = o.APIToken
	}
	if o.TessdataPrefix != "" {
		opts.TessdataPrefix = o.TessdataPrefix
	}
	if o.RenderDPI != 0 {
		opts.RenderDPI = o.RenderDPI
	}
	if o.Pdfinfo != "" {
		opts.Pdfinfo = o.Pdfinfo
	}
	if o.Pdftotext != "" {
		opts.Pdftotext = o.Pdftotext
	}
	if o.Pdftoppm != "" {
		opts.Pdftoppm = o.Pdftoppm
	}
	return opts
}
