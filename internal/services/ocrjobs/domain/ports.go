package domain

import (
	"context"
	"image"
	"iter"
	"time"
)

// JobQueue is a durable FIFO with delayed delivery
type JobQueue interface {
	Enqueue(ctx context.Context, job JobRequest) (string, error)
	EnqueueWithDelay(ctx context.Context, job JobRequest, delay time.Duration) (string, error)
	// Lease hands out up to limit ready jobs; a lease that runs out makes the job ready again
	Lease(ctx context.Context, workerID string, limit int, leaseFor time.Duration) ([]QueuedJob, error)
	// Extend pushes the lease of a job workerID still holds; ErrLeaseLost otherwise
	Extend(ctx context.Context, jobID, workerID string, leaseFor time.Duration) error
	// Complete removes a job workerID still holds; ErrLeaseLost otherwise
	Complete(ctx context.Context, jobID, workerID string) error
	Depth(ctx context.Context) (int, error)
}

// Notifier delivers messages to a requester; failures are reported but never fail a job
type Notifier interface {
	NotifyText(ctx context.Context, requesterID, text string) error
	NotifyArtifact(ctx context.Context, requesterID, path, caption string) error
}

// Recognizer is an OCR backend
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, languages []string) (text string, confidence float64, err error)
}

// Page is one rendered document page; Index is zero based
type Page struct {
	Index int
	Total int
	Image image.Image
}

// Splitter inspects documents and renders their pages
type Splitter interface {
	HasTextLayer(ctx context.Context, path string) (bool, error)
	// ExtractTextLayer returns page separated text; confidence is always 100
	ExtractTextLayer(ctx context.Context, path string) (string, float64, error)
	PageCount(ctx context.Context, path string) (int, error)
	// RenderPages yields pages in order, one at a time; iterating again starts from page one
	RenderPages(ctx context.Context, path string) iter.Seq2[Page, error]
}

// Submission is an inbound request whose file is already on local disk
type Submission struct {
	RequesterID string
	FilePath    string
	FileName    string
	MIME        string
	Options     Options
}

// Receipt reports what Submit did with a submission
type Receipt struct {
	JobID       string
	Fingerprint string
	Cached      bool
	Entry       *CacheEntry
}

// SubmitPort accepts new work
type SubmitPort interface {
	Submit(ctx context.Context, in Submission) (Receipt, error)
}

// WorkerPort runs the job loop until ctx ends
type WorkerPort interface {
	Run(ctx context.Context) error
}

// ExecutePort runs one attempt of a job to its outcome
type ExecutePort interface {
	Execute(ctx context.Context, job JobRequest) Outcome
}

// PrefsPort reads and replaces stored requester defaults
type PrefsPort interface {
	Get(ctx context.Context, requesterID string) (Options, error)
	Set(ctx context.Context, requesterID string, o Options) (Options, error)
}

// HealthPort reports queue state
type HealthPort interface {
	QueueDepth(ctx context.Context) (int, error)
}

// ProgressFunc is called after each rendered page with a zero based index
type ProgressFunc func(pageIndex, total int)
