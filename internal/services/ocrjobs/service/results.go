package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"ocrjobs/internal/platform/logger"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

// resultPath is where the full text for a fingerprint is kept
func (s *Svc) resultPath(fingerprint string) string {
	dir := s.cfg.ResultsDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ocr_result_"+fingerprint+".txt")
}

func (s *Svc) writeResult(fingerprint, text string) (string, error) {
	p := s.resultPath(fingerprint)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// lookupCache treats errors and entries whose artifact is gone as misses
func (s *Svc) lookupCache(ctx context.Context, fingerprint string) (dom.CacheEntry, bool) {
	e, ok, err := s.cache.Get(ctx, fingerprint)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("fingerprint", fingerprint).Msg("cache read failed")
		return dom.CacheEntry{}, false
	}
	if !ok {
		return dom.CacheEntry{}, false
	}
	if _, err := os.Stat(e.ResultLocation); err != nil {
		logger.C(ctx).Info().Str("fingerprint", fingerprint).Msg("cached artifact missing, dropping entry")
		if err := s.cache.Drop(ctx, fingerprint); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("cache drop failed")
		}
		return dom.CacheEntry{}, false
	}
	return e, true
}

// deliverCached sends a cached artifact
func (s *Svc) deliverCached(ctx context.Context, requesterID string, e dom.CacheEntry) {
	s.say(ctx, requesterID, MsgCachedFound)
	s.send(ctx, requesterID, e.ResultLocation, CaptionCached)
}

// removeInput deletes the job's input file if it still exists
func removeInput(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.C(ctx).Warn().Err(err).Str("path", path).Msg("input cleanup failed")
	}
}
