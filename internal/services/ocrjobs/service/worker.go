package service

import (
	"context"
	"errors"
	"sync"
	"time"

	perr "ocrjobs/internal/platform/errors"
	"ocrjobs/internal/platform/logger"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

// pollEvery is how often an idle worker asks the queue for work
const pollEvery = 500 * time.Millisecond

// Run leases jobs and executes them on a bounded pool. Jobs already running finish
// even after ctx ends; Run returns once they have.
func (s *Svc) Run(ctx context.Context) error {
	log := logger.Named("ocr-worker")
	sem := make(chan struct{}, s.cfg.WorkerConcurrency)
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	log.Info().Str("worker_id", s.workerID).Int("concurrency", cap(sem)).Msg("worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker stopping")
			return ctx.Err()
		case <-ticker.C:
			free := cap(sem) - len(sem)
			if free == 0 {
				continue
			}
			jobs, err := s.queue.Lease(ctx, s.workerID, min(free, s.cfg.QueueTakeBatch), s.cfg.LeaseFor)
			if err != nil {
				switch {
				case ctx.Err() != nil:
				case perr.IsContention(err):
					log.Debug().Err(err).Msg("lease contention")
				default:
					log.Error().Err(err).Msg("lease jobs failed")
				}
				continue
			}
			for i := range jobs {
				sem <- struct{}{}
				j := jobs[i]
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() { <-sem }()
					s.handle(context.WithoutCancel(ctx), j)
				}()
			}
		}
	}
}

// handle executes one leased job, keeping the lease alive while it runs, then
// removes its queue row; a deferral is a new row
func (s *Svc) handle(ctx context.Context, j dom.QueuedJob) dom.Outcome {
	hbCtx, stop := context.WithCancel(ctx)
	var hb sync.WaitGroup
	hb.Add(1)
	go func() {
		defer hb.Done()
		s.heartbeat(hbCtx, j.ID)
	}()

	out := s.Execute(ctx, j.JobRequest)
	stop()
	hb.Wait()

	if err := s.queue.Complete(ctx, j.ID, s.workerID); err != nil {
		logger.C(ctx).Warn().Err(err).Str("job_id", j.ID).Msg("queue complete failed")
	}
	return out
}

// heartbeat extends the lease on jobID every third of LeaseFor until ctx ends or the lease is gone
func (s *Svc) heartbeat(ctx context.Context, jobID string) {
	t := time.NewTicker(max(s.cfg.LeaseFor/3, time.Millisecond))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			err := s.queue.Extend(ctx, jobID, s.workerID, s.cfg.LeaseFor)
			switch {
			case err == nil:
			case ctx.Err() != nil:
				return
			case errors.Is(err, dom.ErrLeaseLost):
				logger.C(ctx).Error().Str("job_id", jobID).Msg("lease lost while running")
				return
			default:
				logger.C(ctx).Warn().Err(err).Str("job_id", jobID).Msg("lease extend failed")
			}
		}
	}
}
