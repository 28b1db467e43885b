package service

import (
	"context"
	"os"

	"ocrjobs/internal/core/fingerprint"
	perr "ocrjobs/internal/platform/errors"
	"ocrjobs/internal/platform/logger"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

// Submit takes ownership of in.FilePath. In order it applies the rate limit,
// fingerprints the file, serves a cached result when one exists, and otherwise
// queues a job. Every path except a successful enqueue deletes the file.
func (s *Svc) Submit(ctx context.Context, in dom.Submission) (dom.Receipt, error) {
	ctx = logger.WithJob(ctx, "", in.RequesterID)
	log := logger.C(ctx)

	if _, err := os.Stat(in.FilePath); err != nil {
		return dom.Receipt{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeDownload, "input file missing"), "fetch")
	}

	keep := false
	defer func() {
		if !keep {
			removeInput(ctx, in.FilePath)
		}
	}()

	opts, err := in.Options.Normalized()
	if err != nil {
		return dom.Receipt{}, perr.WithField(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "invalid languages"), "languages")
	}

	allowed, err := s.limiter.Allow(ctx, in.RequesterID)
	if err != nil {
		return dom.Receipt{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "rate limiter unavailable")
	}
	if !allowed {
		rem, err := s.limiter.Remaining(ctx, in.RequesterID)
		if err != nil {
			log.Warn().Err(err).Msg("rate remaining read failed")
		}
		log.Info().Int("remaining", rem).Msg("submission rate limited")
		rl := &dom.RateLimitError{Remaining: rem, RetryAfter: s.limiter.RetryAfter()}
		return dom.Receipt{}, perr.Wrap(rl, perr.ErrorCodeTooManyRequests, MsgRateLimited(rem))
	}

	fp, err := fingerprint.FromFile(in.FilePath)
	if err != nil {
		return dom.Receipt{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeProcessing, "fingerprint"), "fingerprint")
	}
	fl := log.With().Str("fingerprint", fp).Logger()
	log = &fl

	if e, hit := s.lookupCache(ctx, fp); hit {
		log.Info().Msg("cache hit at intake")
		s.deliverCached(ctx, in.RequesterID, e)
		job := dom.JobRequest{RequesterID: in.RequesterID, Fingerprint: fp, MimeKind: dom.KindFromMIME(in.MIME, in.FileName)}
		s.record(ctx, job, dom.Completed("", e.Confidence, e.ResultLocation, dom.BackendCache, 0), 0)
		return dom.Receipt{Fingerprint: fp, Cached: true, Entry: &e}, nil
	}

	job := dom.JobRequest{
		RequesterID: in.RequesterID,
		FilePath:    in.FilePath,
		MimeKind:    dom.KindFromMIME(in.MIME, in.FileName),
		Options:     opts,
		Fingerprint: fp,
		Attempt:     1,
		SubmittedAt: s.now().UTC(),
	}
	id, err := s.queue.Enqueue(ctx, job)
	if err != nil {
		return dom.Receipt{}, perr.WithOp(err, "enqueue")
	}
	keep = true
	log.Info().Str("job_id", id).Str("mime_kind", string(job.MimeKind)).Strs("languages", opts.Languages).Msg("job queued")
	return dom.Receipt{JobID: id, Fingerprint: fp}, nil
}
