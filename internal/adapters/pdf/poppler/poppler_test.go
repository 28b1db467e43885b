package poppler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	perr "ocrjobs/internal/platform/errors"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	info    string
	text    string
	failPPM int // page number whose render fails, 0 for none
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name, args})
	f.mu.Unlock()

	switch name {
	case "pdfinfo":
		return []byte(f.info), nil, nil
	case "pdftotext":
		return []byte(f.text), nil, nil
	case "pdftoppm":
		page := args[4]
		if f.failPPM > 0 && page == itoa(f.failPPM) {
			return nil, []byte("Syntax Error: broken xref"), errors.New("exit status 1")
		}
		prefix := args[len(args)-1]
		var buf bytes.Buffer
		_ = png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)))
		return nil, nil, os.WriteFile(prefix+".png", buf.Bytes(), 0o644)
	}
	return nil, nil, errors.New("unexpected tool " + name)
}

func itoa(n int) string { return string(rune('0' + n)) }

func (f *fakeRunner) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func TestPageCount(t *testing.T) {
	t.Parallel()

	s := New(Config{}, &fakeRunner{info: "Title:          scan\nPages:          12\nEncrypted:      no\n"})
	n, err := s.PageCount(context.Background(), "doc.pdf")
	if err != nil || n != 12 {
		t.Fatalf("PageCount = %d, %v", n, err)
	}

	bad := New(Config{}, &fakeRunner{info: "Title: x\n"})
	if _, err := bad.PageCount(context.Background(), "doc.pdf"); !perr.IsCode(err, perr.ErrorCodeProcessing) {
		t.Fatalf("err = %v", err)
	}
}

func TestTextLayer(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{text: "first page\n\fsecond page\n\f"}
	s := New(Config{}, r)

	has, err := s.HasTextLayer(context.Background(), "doc.pdf")
	if err != nil || !has {
		t.Fatalf("HasTextLayer = %v, %v", has, err)
	}
	text, conf, err := s.ExtractTextLayer(context.Background(), "doc.pdf")
	if err != nil || conf != 100.0 {
		t.Fatalf("ExtractTextLayer conf=%v err=%v", conf, err)
	}
	if text != "--- Page 1 ---\nfirst page\n--- Page 2 ---\nsecond page" {
		t.Fatalf("text = %q", text)
	}
	if r.count("pdftoppm") != 0 {
		t.Fatalf("text layer path rendered pages")
	}
}

func TestHasTextLayer_ScannedDocument(t *testing.T) {
	t.Parallel()

	s := New(Config{}, &fakeRunner{text: "\f \n\f\f"})
	has, err := s.HasTextLayer(context.Background(), "scan.pdf")
	if err != nil || has {
		t.Fatalf("HasTextLayer = %v, %v", has, err)
	}
}

func TestRenderPages_OrderedAndLazy(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{info: "Pages: 3\n"}
	work := t.TempDir()
	s := New(Config{DPI: 150, WorkDir: work}, r)

	var idx []int
	for p, err := range s.RenderPages(context.Background(), "doc.pdf") {
		if err != nil {
			t.Fatal(err)
		}
		if p.Total != 3 || p.Image == nil {
			t.Fatalf("page = %+v", p)
		}
		idx = append(idx, p.Index)
		if len(idx) == 2 {
			break
		}
	}
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 1 {
		t.Fatalf("indexes = %v", idx)
	}
	if r.count("pdftoppm") != 2 {
		t.Fatalf("rendered %d pages after stopping at 2", r.count("pdftoppm"))
	}
	first := r.calls[1].args
	if strings.Join(first[:7], " ") != "-r 150 -png -f 1 -l 1" {
		t.Fatalf("pdftoppm args = %v", first)
	}
	left, _ := filepath.Glob(filepath.Join(work, "*"))
	if len(left) != 0 {
		t.Fatalf("work dir not cleaned: %v", left)
	}
}

func TestRenderPages_ErrorStops(t *testing.T) {
	t.Parallel()

	s := New(Config{WorkDir: t.TempDir()}, &fakeRunner{info: "Pages: 4\n", failPPM: 2})
	var pages, errs int
	for _, err := range s.RenderPages(context.Background(), "doc.pdf") {
		if err != nil {
			errs++
			testkitContains(t, err.Error(), "broken xref")
			continue
		}
		pages++
	}
	if pages != 1 || errs != 1 {
		t.Fatalf("pages=%d errs=%d", pages, errs)
	}
}

func testkitContains(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Fatalf("%q does not contain %q", s, sub)
	}
}
