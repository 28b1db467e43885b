package service

import (
	"context"
	"fmt"
	"time"

	"ocrjobs/internal/core/textclean"
	perr "ocrjobs/internal/platform/errors"
	"ocrjobs/internal/platform/logger"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

// Execute runs one attempt of job to a terminal outcome.
//
// Queued -> Admitted when an admission slot is free, otherwise the job is queued
// again after the defer delay and the attempt ends Deferred. Admitted -> Running
// after a cache recheck; a hit completes without OCR. Running ends Completed or
// Failed. The slot is released and the input file removed on every path except
// Deferred, where the resubmitted job keeps the file.
func (s *Svc) Execute(ctx context.Context, job dom.JobRequest) (out dom.Outcome) {
	ctx = logger.WithJob(ctx, job.ID, job.RequesterID)
	log := logger.C(ctx).With().Str("fingerprint", job.Fingerprint).Int("attempt", job.Attempt).Logger()
	start := s.now()
	keepInput := false

	defer func() {
		if !keepInput {
			removeInput(ctx, job.FilePath)
		}
		s.record(ctx, job, out, s.now().Sub(start))
		log.Info().Str("state", string(out.State)).Str("backend", string(out.Backend)).
			Dur("took", s.now().Sub(start)).Msg("job finished")
	}()

	slot, ok, err := s.admission.Acquire(ctx, job.RequesterID)
	if err != nil {
		log.Error().Err(err).Msg("admission check failed")
		s.say(ctx, job.RequesterID, MsgFailed)
		return dom.Failed("admission: " + err.Error())
	}
	if !ok {
		if err := s.resubmit(ctx, job); err != nil {
			log.Error().Err(err).Msg("resubmit after deferral failed")
			s.say(ctx, job.RequesterID, MsgFailed)
			return dom.Failed("resubmit: " + err.Error())
		}
		keepInput = true
		s.say(ctx, job.RequesterID, MsgDeferred(s.admission.Max(), int(s.cfg.DeferDelay/time.Second)))
		return dom.Deferred(s.cfg.DeferDelay)
	}
	defer func() {
		if err := slot.Release(ctx); err != nil {
			log.Warn().Err(err).Msg("admission release failed")
		}
	}()

	if e, hit := s.lookupCache(ctx, job.Fingerprint); hit {
		log.Info().Msg("cache hit after admission")
		s.deliverCached(ctx, job.RequesterID, e)
		return dom.Completed("", e.Confidence, e.ResultLocation, dom.BackendCache, 0)
	}

	s.say(ctx, job.RequesterID, MsgStarting)

	res, err := s.run(ctx, job)
	if err != nil {
		log.Error().Err(err).Str("op", perr.OpOf(err)).Uint16("code", uint16(perr.CodeOf(err))).Msg("ocr processing failed")
		s.say(ctx, job.RequesterID, MsgFailed)
		return dom.Failed(err.Error())
	}

	loc, err := s.writeResult(job.Fingerprint, res.Text)
	if err != nil {
		log.Error().Err(err).Msg("result write failed")
		s.say(ctx, job.RequesterID, MsgFailed)
		return dom.Failed("write result: " + err.Error())
	}

	if err := s.cache.Put(ctx, dom.CacheEntry{
		Fingerprint:    job.Fingerprint,
		ResultLocation: loc,
		Confidence:     res.Confidence,
	}); err != nil {
		log.Warn().Err(err).Msg("cache write failed")
	}

	s.say(ctx, job.RequesterID, MsgSummary(res.Text))
	s.send(ctx, job.RequesterID, loc, CaptionFullText)
	return dom.Completed(res.Text, res.Confidence, loc, res.Backend, res.Pages)
}

// resubmit queues the next attempt of a deferred job
func (s *Svc) resubmit(ctx context.Context, job dom.JobRequest) error {
	next := job
	next.ID = ""
	next.Attempt++
	_, err := s.queue.EnqueueWithDelay(ctx, next, s.cfg.DeferDelay)
	return err
}

// docResult is the text of a whole job
type docResult struct {
	Text       string
	Confidence float64
	Backend    dom.Backend
	Pages      int
}

// run dispatches by kind; panics from backends become processing failures
func (s *Svc) run(ctx context.Context, job dom.JobRequest) (res docResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("ocr panic: %v", r)
		}
	}()
	if s.pipe == nil {
		return docResult{}, perr.Processingf("no ocr pipeline configured")
	}
	if job.MimeKind == dom.KindPDF {
		return s.runDocument(ctx, job)
	}
	p, err := s.pipe.ExtractFile(ctx, job.FilePath, job.Options)
	if err != nil {
		return docResult{}, err
	}
	return docResult{Text: p.Text, Confidence: p.Confidence, Backend: p.Backend, Pages: 1}, nil
}

// runDocument prefers the text layer; otherwise pages are rendered and recognized
// one at a time in order, with progress after each and a partial every PartialEvery.
func (s *Svc) runDocument(ctx context.Context, job dom.JobRequest) (docResult, error) {
	if s.split == nil {
		return docResult{}, perr.Processingf("no document splitter configured")
	}
	has, err := s.split.HasTextLayer(ctx, job.FilePath)
	if err != nil {
		return docResult{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeProcessing, "text layer probe"), "split")
	}
	if has {
		text, conf, err := s.split.ExtractTextLayer(ctx, job.FilePath)
		if err != nil {
			return docResult{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeProcessing, "text layer extract"), "split")
		}
		pages, err := s.split.PageCount(ctx, job.FilePath)
		if err != nil {
			logger.C(ctx).Debug().Err(err).Msg("page count unavailable")
		}
		return docResult{Text: textclean.Clean(text), Confidence: conf, Backend: dom.BackendTextLayer, Pages: pages}, nil
	}

	var (
		texts    []string
		confSum  float64
		backend  dom.Backend
		reported int // pages already covered by a partial
	)
	for page, err := range s.split.RenderPages(ctx, job.FilePath) {
		if err != nil {
			return docResult{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeProcessing, "render page"), "render")
		}
		if page.Index != len(texts) {
			return docResult{}, perr.Processingf("page %d rendered out of order", page.Index+1)
		}
		r, err := s.pipe.Extract(ctx, page.Image, job.Options)
		if err != nil {
			return docResult{}, fmt.Errorf("page %d: %w", page.Index+1, err)
		}
		texts = append(texts, r.Text)
		confSum += r.Confidence
		backend = mergeBackend(backend, r.Backend)

		done := len(texts)
		s.progress(ctx, job.RequesterID, done-1, page.Total)
		if done%s.cfg.PartialEvery == 0 {
			s.say(ctx, job.RequesterID, MsgPartial(reported+1, done, dom.JoinPages(texts[reported:done], reported+1)))
			reported = done
		}
	}
	if len(texts) == 0 {
		return docResult{}, perr.Processingf("document has no pages")
	}
	return docResult{
		Text:       dom.JoinPages(texts, 1),
		Confidence: confSum / float64(len(texts)),
		Backend:    backend,
		Pages:      len(texts),
	}, nil
}

// progress is the per page callback; pageIndex is zero based
func (s *Svc) progress(ctx context.Context, requesterID string, pageIndex, total int) {
	if total <= 0 {
		total = pageIndex + 1
	}
	s.say(ctx, requesterID, MsgProgress(pageIndex+1, total))
}

// mergeBackend reports cloud only when every page came from the cloud
func mergeBackend(acc, next dom.Backend) dom.Backend {
	if acc == "" || acc == next {
		return next
	}
	return dom.BackendLocal
}
