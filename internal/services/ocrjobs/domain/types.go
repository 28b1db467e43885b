// Package domain defines the OCR job types and the ports the service depends on
package domain

import (
	"path/filepath"
	"strings"
	"time"

	"ocrjobs/internal/core/langs"
)

// MimeKind separates documents that may carry a text layer from plain images
type MimeKind string

const (
	KindImage MimeKind = "image"
	KindPDF   MimeKind = "pdf"
)

// KindFromMIME classifies an upload by content type, falling back to the file name
func KindFromMIME(mime, filename string) MimeKind {
	if strings.EqualFold(strings.TrimSpace(mime), "application/pdf") {
		return KindPDF
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return KindPDF
	}
	return KindImage
}

// Options are the per request recognition settings
type Options struct {
	Languages   []string `json:"languages"`
	UseCloudOCR bool     `json:"use_cloud_ocr"`
}

// Normalized returns o with languages mapped to tesseract codes, de-duplicated in order
func (o Options) Normalized() (Options, error) {
	ls, err := langs.Normalize(o.Languages)
	if err != nil {
		return o, err
	}
	o.Languages = ls
	return o, nil
}

// JobRequest is one unit of work; the file at FilePath belongs to it until a terminal outcome
type JobRequest struct {
	ID          string
	RequesterID string
	FilePath    string
	MimeKind    MimeKind
	Options     Options
	Fingerprint string
	Attempt     int
	SubmittedAt time.Time
}

// QueuedJob is a JobRequest as seen by a worker holding its lease
type QueuedJob struct {
	JobRequest
	Attempts       int
	LeasedBy       string
	LeaseExpiresAt time.Time
	NextAttemptAt  time.Time
}

// CacheEntry describes a completed result stored under a fingerprint
type CacheEntry struct {
	Fingerprint    string        `json:"-"`
	ResultLocation string        `json:"result_location"`
	Confidence     float64       `json:"confidence"`
	CreatedAt      time.Time     `json:"created_at"`
	TTL            time.Duration `json:"-"`
}

// Backend names the source of a page's text
type Backend string

const (
	BackendCloud     Backend = "cloud"
	BackendLocal     Backend = "local"
	BackendTextLayer Backend = "text_layer"
	BackendCache     Backend = "cache"
)

// PageResult is the recognized text of one page; PageIndex is zero based
type PageResult struct {
	PageIndex  int
	Text       string
	Confidence float64
	Backend    Backend
}

// State is the terminal state of a job attempt
type State string

const (
	StateCompleted State = "completed"
	StateDeferred  State = "deferred"
	StateFailed    State = "failed"
)

// Outcome is the single result of one job attempt
type Outcome struct {
	State          State
	Text           string
	Confidence     float64
	ResultLocation string
	Backend        Backend
	Pages          int
	Reason         string
	RetryAfter     time.Duration
}

// Completed builds a successful outcome
func Completed(text string, confidence float64, location string, backend Backend, pages int) Outcome {
	return Outcome{
		State:          StateCompleted,
		Text:           text,
		Confidence:     confidence,
		ResultLocation: location,
		Backend:        backend,
		Pages:          pages,
	}
}

// Deferred builds an outcome for a job pushed back to the queue
func Deferred(retryAfter time.Duration) Outcome {
	return Outcome{State: StateDeferred, RetryAfter: retryAfter}
}

// Failed builds a failed outcome; reason is internal and never shown to the requester
func Failed(reason string) Outcome {
	return Outcome{State: StateFailed, Reason: reason}
}
