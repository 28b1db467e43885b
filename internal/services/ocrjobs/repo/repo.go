// Package repo provides the OCR job queue: a Postgres lease queue and an in-memory twin
package repo

import (
	"context"
	"time"

	"ocrjobs/internal/modkit/repokit"
	perr "ocrjobs/internal/platform/errors"
	"ocrjobs/internal/platform/store"
	dom "ocrjobs/internal/services/ocrjobs/domain"

	"github.com/google/uuid"
)

// Queue is the persistence surface the service uses
type Queue = dom.JobQueue

type (
	// PG is a Postgres implementation of the job queue
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Queue] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Queue { return &queries{q: q} }

// Enqueue makes job ready immediately
func (r *queries) Enqueue(ctx context.Context, job dom.JobRequest) (string, error) {
	return r.EnqueueWithDelay(ctx, job, 0)
}

// EnqueueWithDelay makes job ready after delay
func (r *queries) EnqueueWithDelay(ctx context.Context, job dom.JobRequest, delay time.Duration) (string, error) {
	const sqlq = `
		INSERT INTO ocr_jobs (
			requester_id, file_path, mime_kind, languages, use_cloud,
			fingerprint, attempt, submitted_at, next_attempt_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, COALESCE($8::timestamptz, now()), now() + $9::bigint * interval '1 millisecond'
		)
		RETURNING job_id::text
	`
	var submitted *time.Time
	if !job.SubmittedAt.IsZero() {
		t := job.SubmittedAt.UTC()
		submitted = &t
	}
	id, err := store.Scalar[string](ctx, r.q, sqlq,
		job.RequesterID, job.FilePath, string(job.MimeKind), job.Options.Languages, job.Options.UseCloudOCR,
		job.Fingerprint, job.Attempt, submitted, delay.Milliseconds(),
	)
	if err != nil {
		return "", perr.FromPostgres(err, "enqueue ocr job")
	}
	return id, nil
}

// Lease hands out up to limit ready jobs; expired leases count as ready
func (r *queries) Lease(ctx context.Context, workerID string, limit int, leaseFor time.Duration) ([]dom.QueuedJob, error) {
	if workerID == "" {
		workerID = uuid.NewString()
	}
	if limit <= 0 {
		limit = 1
	}
	const sqlq = `
		WITH ready AS (
			SELECT job_id
			  FROM ocr_jobs
			 WHERE next_attempt_at <= now()
			   AND (leased_by IS NULL OR lease_expires_at <= now())
			 ORDER BY next_attempt_at ASC, created_at ASC
			 LIMIT $1
			 FOR UPDATE SKIP LOCKED
		), upd AS (
			UPDATE ocr_jobs j
			   SET leased_by        = $2,
			       lease_expires_at = now() + $3::bigint * interval '1 millisecond',
			       attempts         = j.attempts + 1,
			       updated_at       = now()
			 WHERE j.job_id IN (SELECT job_id FROM ready)
			RETURNING j.*
		)
		SELECT job_id::text, requester_id, file_path, mime_kind, languages, use_cloud,
		       fingerprint, attempt, submitted_at, attempts, leased_by,
		       lease_expires_at, next_attempt_at
		  FROM upd
		 ORDER BY next_attempt_at ASC, created_at ASC
	`
	jobs, err := store.Many(ctx, r.q, scanQueued, sqlq, limit, workerID, leaseFor.Milliseconds())
	if err != nil {
		return nil, perr.FromPostgres(err, "lease ocr jobs")
	}
	return jobs, nil
}

func scanQueued(row store.Row) (dom.QueuedJob, error) {
	var (
		j    dom.QueuedJob
		kind string
	)
	err := row.Scan(
		&j.ID, &j.RequesterID, &j.FilePath, &kind, &j.Options.Languages, &j.Options.UseCloudOCR,
		&j.Fingerprint, &j.Attempt, &j.SubmittedAt, &j.Attempts, &j.LeasedBy,
		&j.LeaseExpiresAt, &j.NextAttemptAt,
	)
	j.MimeKind = dom.MimeKind(kind)
	return j, err
}

// Extend moves the lease deadline of a job workerID still holds
func (r *queries) Extend(ctx context.Context, jobID, workerID string, leaseFor time.Duration) error {
	const sqlq = `
		UPDATE ocr_jobs
		   SET lease_expires_at = now() + $3::bigint * interval '1 millisecond',
		       updated_at       = now()
		 WHERE job_id = $1::uuid AND leased_by = $2
	`
	tag, err := store.Exec(ctx, r.q, sqlq, jobID, workerID, leaseFor.Milliseconds())
	if err != nil {
		return perr.FromPostgres(err, "extend ocr job lease")
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrLeaseLost
	}
	return nil
}

// Complete removes the job; the attempt reached a terminal state
func (r *queries) Complete(ctx context.Context, jobID, workerID string) error {
	tag, err := store.Exec(ctx, r.q, `DELETE FROM ocr_jobs WHERE job_id = $1::uuid AND leased_by = $2`, jobID, workerID)
	if err != nil {
		return perr.FromPostgres(err, "complete ocr job")
	}
	if tag.RowsAffected() == 0 {
		return dom.ErrLeaseLost
	}
	return nil
}

// Depth counts queued and leased jobs
func (r *queries) Depth(ctx context.Context) (int, error) {
	n, err := store.Scalar[int64](ctx, r.q, `SELECT count(*) FROM ocr_jobs`)
	if err != nil {
		return 0, perr.FromPostgres(err, "queue depth")
	}
	return int(n), nil
}
