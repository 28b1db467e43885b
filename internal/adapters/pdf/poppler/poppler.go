// Package poppler splits PDFs with the poppler command line tools: pdfinfo for the
// page count, pdftotext for the text layer and pdftoppm for page images.
package poppler

import (
	"bufio"
	"bytes"
	"context"
	"image"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ocrjobs/internal/core/imageprep"
	perr "ocrjobs/internal/platform/errors"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

// Config names the tools and the render resolution
type Config struct {
	Pdfinfo   string
	Pdftotext string
	Pdftoppm  string
	DPI       int
	// WorkDir holds rendered pages while they are decoded; empty means the system temp dir
	WorkDir string
}

// DefaultConfig uses the tools from PATH at 300 DPI
func DefaultConfig() Config {
	return Config{Pdfinfo: "pdfinfo", Pdftotext: "pdftotext", Pdftoppm: "pdftoppm", DPI: 300}
}

// Splitter implements the document splitter port
type Splitter struct {
	cfg Config
	run Runner
}

// New builds a Splitter; zero config fields take the defaults and a nil run uses os/exec
func New(cfg Config, run Runner) *Splitter {
	d := DefaultConfig()
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = d.Pdfinfo
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = d.Pdftotext
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = d.Pdftoppm
	}
	if cfg.DPI <= 0 {
		cfg.DPI = d.DPI
	}
	if run == nil {
		run = ExecRunner{}
	}
	return &Splitter{cfg: cfg, run: run}
}

// PageCount reads "Pages:" from pdfinfo
func (s *Splitter) PageCount(ctx context.Context, path string) (int, error) {
	out, errb, err := s.run.Run(ctx, s.cfg.Pdfinfo, path)
	if err != nil {
		return 0, toolErr(err, errb, "pdfinfo")
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(k) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, perr.Wrap(err, perr.ErrorCodeProcessing, "pdfinfo: bad page count")
		}
		return n, nil
	}
	return 0, perr.Processingf("pdfinfo: no page count")
}

// textPages returns the text layer per page; pdftotext ends every page with a form feed
func (s *Splitter) textPages(ctx context.Context, path string) ([]string, error) {
	out, errb, err := s.run.Run(ctx, s.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, toolErr(err, errb, "pdftotext")
	}
	pages := strings.Split(string(out), "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	for i := range pages {
		pages[i] = strings.TrimSpace(pages[i])
	}
	return pages, nil
}

// HasTextLayer reports whether any page carries selectable text
func (s *Splitter) HasTextLayer(ctx context.Context, path string) (bool, error) {
	pages, err := s.textPages(ctx, path)
	if err != nil {
		return false, err
	}
	for _, p := range pages {
		if p != "" {
			return true, nil
		}
	}
	return false, nil
}

// ExtractTextLayer returns every page under its header with confidence 100
func (s *Splitter) ExtractTextLayer(ctx context.Context, path string) (string, float64, error) {
	pages, err := s.textPages(ctx, path)
	if err != nil {
		return "", 0, err
	}
	return dom.JoinPages(pages, 1), 100.0, nil
}

// RenderPages renders and decodes one page at a time, in order. Iterating again
// renders from the first page. The sequence stops after the first error.
func (s *Splitter) RenderPages(ctx context.Context, path string) iter.Seq2[dom.Page, error] {
	return func(yield func(dom.Page, error) bool) {
		total, err := s.PageCount(ctx, path)
		if err != nil {
			yield(dom.Page{}, err)
			return
		}
		dir, err := os.MkdirTemp(s.cfg.WorkDir, "render-*")
		if err != nil {
			yield(dom.Page{}, perr.Wrap(err, perr.ErrorCodeProcessing, "render: work dir"))
			return
		}
		defer func() { _ = os.RemoveAll(dir) }()

		for i := 0; i < total; i++ {
			if err := ctx.Err(); err != nil {
				yield(dom.Page{}, err)
				return
			}
			img, err := s.render(ctx, path, dir, i+1)
			if err != nil {
				yield(dom.Page{}, err)
				return
			}
			if !yield(dom.Page{Index: i, Total: total, Image: img}, nil) {
				return
			}
		}
	}
}

func (s *Splitter) render(ctx context.Context, path, dir string, page int) (img image.Image, err error) {
	prefix := filepath.Join(dir, "page-"+strconv.Itoa(page))
	n := strconv.Itoa(page)
	_, errb, err := s.run.Run(ctx, s.cfg.Pdftoppm,
		"-r", strconv.Itoa(s.cfg.DPI), "-png", "-f", n, "-l", n, "-singlefile", path, prefix)
	if err != nil {
		return nil, toolErr(err, errb, "pdftoppm")
	}
	out := prefix + ".png"
	defer func() { _ = os.Remove(out) }()
	img, err = imageprep.Open(out)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeProcessing, "render: decode page %d", page)
	}
	return img, nil
}

func toolErr(err error, stderr []byte, tool string) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeProcessing, tool), tool)
	}
	return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeProcessing, "%s: %s", tool, msg), tool)
}
