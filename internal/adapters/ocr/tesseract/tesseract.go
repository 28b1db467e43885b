// Package tesseract runs local OCR through the gosseract bindings
package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"sync"

	"ocrjobs/internal/core/langs"
	perr "ocrjobs/internal/platform/errors"

	"github.com/otiai10/gosseract/v2"
)

// engine is the subset of *gosseract.Client in use
type engine interface {
	SetLanguage(langs ...string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	GetBoundingBoxes(level gosseract.PageIteratorLevel) ([]gosseract.BoundingBox, error)
	Close() error
}

// Options configures the engine
type Options struct {
	// TessdataPrefix points at traineddata files; empty uses the system default
	TessdataPrefix string
}

// Engine is a Recognizer. Clients are not safe for concurrent use, so each call
// takes one from a pool.
type Engine struct {
	pool sync.Pool
	mk   func() engine
}

// New builds an Engine backed by libtesseract
func New(opts Options) *Engine {
	return newEngine(func() engine {
		c := gosseract.NewClient()
		if opts.TessdataPrefix != "" {
			c.TessdataPrefix = opts.TessdataPrefix
		}
		return c
	})
}

func newEngine(mk func() engine) *Engine {
	return &Engine{mk: mk}
}

func (e *Engine) get() engine {
	if c, ok := e.pool.Get().(engine); ok {
		return c
	}
	return e.mk()
}

// Recognize runs LSTM recognition with automatic page segmentation. Confidence is
// the mean over recognized words, skipping negative sentinel values; 0 when none.
func (e *Engine) Recognize(ctx context.Context, img image.Image, languages []string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, perr.Wrap(err, perr.ErrorCodeProcessing, "tesseract: encode image")
	}

	c := e.get()
	ok := false
	defer func() {
		if ok {
			e.pool.Put(c)
			return
		}
		_ = c.Close()
	}()

	if len(languages) == 0 {
		languages = []string{langs.Default}
	}
	if err := c.SetLanguage(languages...); err != nil {
		return "", 0, perr.Wrap(err, perr.ErrorCodeProcessing, "tesseract: set language")
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", 0, perr.Wrap(err, perr.ErrorCodeProcessing, "tesseract: set psm")
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", 0, perr.Wrap(err, perr.ErrorCodeProcessing, "tesseract: set image")
	}
	text, err := c.Text()
	if err != nil {
		return "", 0, perr.Wrap(err, perr.ErrorCodeProcessing, "tesseract: recognize")
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return "", 0, perr.Wrap(err, perr.ErrorCodeProcessing, "tesseract: word boxes")
	}
	ok = true
	return strings.TrimSpace(text), meanConfidence(boxes), nil
}

func meanConfidence(boxes []gosseract.BoundingBox) float64 {
	var sum float64
	n := 0
	for _, b := range boxes {
		if b.Confidence < 0 {
			continue
		}
		sum += b.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
