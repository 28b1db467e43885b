// Package pipeline recognizes text in a single image: normalize, then cloud first
// when requested, with the local engine as the backend that is always there.
package pipeline

import (
	"context"
	"image"
	"strings"

	"ocrjobs/internal/core/imageprep"
	"ocrjobs/internal/core/textclean"
	perr "ocrjobs/internal/platform/errors"
	"ocrjobs/internal/platform/logger"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

// Pipeline runs normalization and backend selection for one image at a time
type Pipeline struct {
	local dom.Recognizer
	cloud dom.Recognizer
	prep  func(image.Image) image.Image
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithCloud enables the cloud backend; nil leaves it disabled
func WithCloud(r dom.Recognizer) Option { return func(p *Pipeline) { p.cloud = r } }

// WithPreprocess replaces the normalization step
func WithPreprocess(fn func(image.Image) image.Image) Option {
	return func(p *Pipeline) { p.prep = fn }
}

// New builds a Pipeline around the local backend
func New(local dom.Recognizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		local: local,
		prep:  func(img image.Image) image.Image { return imageprep.Normalize(img) },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CloudEnabled reports whether a cloud backend is configured
func (p *Pipeline) CloudEnabled() bool { return p.cloud != nil }

// Extract recognizes img. A cloud error or empty cloud result falls back to the local
// backend; only a local failure is returned.
func (p *Pipeline) Extract(ctx context.Context, img image.Image, opts dom.Options) (dom.PageResult, error) {
	if img == nil {
		return dom.PageResult{}, perr.Processingf("nil image")
	}
	if p.local == nil {
		return dom.PageResult{}, perr.Processingf("no local ocr backend")
	}
	norm := p.prep(img)

	if opts.UseCloudOCR && p.cloud != nil {
		text, conf, err := p.cloud.Recognize(ctx, norm, opts.Languages)
		switch {
		case err != nil:
			err = perr.WithOp(perr.Wrap(err, perr.ErrorCodeBackend, "cloud ocr"), "cloud_ocr")
			logger.C(ctx).Debug().Err(err).Msg("cloud ocr failed, using local")
		case strings.TrimSpace(text) == "":
			logger.C(ctx).Debug().Msg("cloud ocr returned no text, using local")
		default:
			return dom.PageResult{Text: textclean.Clean(text), Confidence: conf, Backend: dom.BackendCloud}, nil
		}
		if ctx.Err() != nil {
			return dom.PageResult{}, perr.WithOp(perr.Wrap(ctx.Err(), perr.ErrorCodeProcessing, "ocr cancelled"), "local_ocr")
		}
	}

	text, conf, err := p.local.Recognize(ctx, norm, opts.Languages)
	if err != nil {
		return dom.PageResult{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeProcessing, "local ocr"), "local_ocr")
	}
	return dom.PageResult{Text: textclean.Clean(text), Confidence: conf, Backend: dom.BackendLocal}, nil
}

// ExtractFile decodes the image at path and runs Extract
func (p *Pipeline) ExtractFile(ctx context.Context, path string, opts dom.Options) (dom.PageResult, error) {
	img, err := imageprep.Open(path)
	if err != nil {
		return dom.PageResult{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeProcessing, "decode image"), "decode")
	}
	return p.Extract(ctx, img, opts)
}

// IsBackendFailure reports whether err came from a cloud backend
func IsBackendFailure(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeBackend)
}
