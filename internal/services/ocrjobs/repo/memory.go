package repo

import (
	"context"
	"slices"
	"sync"
	"time"

	dom "ocrjobs/internal/services/ocrjobs/domain"

	"github.com/google/uuid"
)

// Memory is an in process queue with the same lease semantics as PG.
// It backs single binary runs and tests; contents do not survive a restart.
type Memory struct {
	mu   sync.Mutex
	jobs map[string]*memJob
	seq  uint64
	now  func() time.Time
}

type memJob struct {
	dom.QueuedJob
	seq uint64
}

// NewMemory returns an empty queue; now defaults to time.Now
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{jobs: map[string]*memJob{}, now: now}
}

// Enqueue makes job ready immediately
func (m *Memory) Enqueue(ctx context.Context, job dom.JobRequest) (string, error) {
	return m.EnqueueWithDelay(ctx, job, 0)
}

// EnqueueWithDelay makes job ready after delay
func (m *Memory) EnqueueWithDelay(_ context.Context, job dom.JobRequest, delay time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	job.ID = uuid.NewString()
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = now
	}
	job.Options.Languages = slices.Clone(job.Options.Languages)
	m.seq++
	m.jobs[job.ID] = &memJob{
		QueuedJob: dom.QueuedJob{JobRequest: job, NextAttemptAt: now.Add(max(delay, 0))},
		seq:       m.seq,
	}
	return job.ID, nil
}

// Lease hands out up to limit ready jobs; expired leases count as ready
func (m *Memory) Lease(_ context.Context, workerID string, limit int, leaseFor time.Duration) ([]dom.QueuedJob, error) {
	if workerID == "" {
		workerID = uuid.NewString()
	}
	if limit <= 0 {
		limit = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	ready := make([]*memJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		if j.NextAttemptAt.After(now) {
			continue
		}
		if j.LeasedBy != "" && j.LeaseExpiresAt.After(now) {
			continue
		}
		ready = append(ready, j)
	}
	slices.SortFunc(ready, func(a, b *memJob) int {
		if c := a.NextAttemptAt.Compare(b.NextAttemptAt); c != 0 {
			return c
		}
		if a.seq < b.seq {
			return -1
		}
		return 1
	})
	if len(ready) > limit {
		ready = ready[:limit]
	}

	out := make([]dom.QueuedJob, 0, len(ready))
	for _, j := range ready {
		j.LeasedBy = workerID
		j.LeaseExpiresAt = now.Add(leaseFor)
		j.Attempts++
		cp := j.QueuedJob
		cp.Options.Languages = slices.Clone(cp.Options.Languages)
		out = append(out, cp)
	}
	return out, nil
}

// held returns the job if workerID is its last lessee. An expired lease nobody
// took over still counts, as in PG.
func (m *Memory) held(jobID, workerID string) (*memJob, bool) {
	j, ok := m.jobs[jobID]
	if !ok || j.LeasedBy != workerID {
		return nil, false
	}
	return j, true
}

// Extend moves the lease deadline of a job workerID still holds
func (m *Memory) Extend(_ context.Context, jobID, workerID string, leaseFor time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.held(jobID, workerID)
	if !ok {
		return dom.ErrLeaseLost
	}
	j.LeaseExpiresAt = m.now().Add(leaseFor)
	return nil
}

// Complete removes a job workerID still holds
func (m *Memory) Complete(_ context.Context, jobID, workerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held(jobID, workerID); !ok {
		return dom.ErrLeaseLost
	}
	delete(m.jobs, jobID)
	return nil
}

// Depth counts queued and leased jobs
func (m *Memory) Depth(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs), nil
}

var _ dom.JobQueue = (*Memory)(nil)
