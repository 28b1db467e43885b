package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	perr "ocrjobs/internal/platform/errors"
	dom "ocrjobs/internal/services/ocrjobs/domain"
)

type fakeOCR struct {
	text    string
	conf    float64
	err     error
	calls   atomic.Int32
	langs   []string
	sawGray bool
}

func (f *fakeOCR) Recognize(_ context.Context, img image.Image, languages []string) (string, float64, error) {
	f.calls.Add(1)
	f.langs = languages
	_, f.sawGray = img.(*image.Gray)
	return f.text, f.conf, f.err
}

func page() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{250, 250, 250, 255}
			if y == 10 {
				c = color.RGBA{10, 10, 10, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestExtract_LocalOnly(t *testing.T) {
	t.Parallel()

	local := &fakeOCR{text: "  hello \n\n\n world ", conf: 91}
	cloud := &fakeOCR{text: "cloud", conf: 99}
	p := New(local, WithCloud(cloud))

	res, err := p.Extract(context.Background(), page(), dom.Options{Languages: []string{"eng"}})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Text != "hello\n\nworld" || res.Confidence != 91 || res.Backend != dom.BackendLocal {
		t.Fatalf("result = %+v", res)
	}
	if cloud.calls.Load() != 0 {
		t.Fatalf("cloud called without UseCloudOCR")
	}
	if !local.sawGray {
		t.Fatalf("backend did not get the normalized image")
	}
	if !reflect.DeepEqual(local.langs, []string{"eng"}) {
		t.Fatalf("languages = %v", local.langs)
	}
}

func TestExtract_CloudFirst(t *testing.T) {
	t.Parallel()

	local := &fakeOCR{text: "local", conf: 50}
	cloud := &fakeOCR{text: "cloud text", conf: 97.5}
	p := New(local, WithCloud(cloud))

	res, err := p.Extract(context.Background(), page(), dom.Options{UseCloudOCR: true})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Backend != dom.BackendCloud || res.Text != "cloud text" || res.Confidence != 97.5 {
		t.Fatalf("result = %+v", res)
	}
	if local.calls.Load() != 0 {
		t.Fatalf("local should not run when cloud succeeds")
	}
}

func TestExtract_CloudErrorFallsBack(t *testing.T) {
	t.Parallel()

	local := &fakeOCR{text: "from tesseract", conf: 80}
	cloud := &fakeOCR{err: errors.New("quota exceeded")}
	p := New(local, WithCloud(cloud))

	res, err := p.Extract(context.Background(), page(), dom.Options{UseCloudOCR: true})
	if err != nil {
		t.Fatalf("cloud failure must not surface: %v", err)
	}
	if res.Backend != dom.BackendLocal || res.Text != "from tesseract" {
		t.Fatalf("result = %+v", res)
	}
	if cloud.calls.Load() != 1 || local.calls.Load() != 1 {
		t.Fatalf("calls cloud=%d local=%d", cloud.calls.Load(), local.calls.Load())
	}
}

func TestExtract_EmptyCloudFallsBack(t *testing.T) {
	t.Parallel()

	local := &fakeOCR{text: "local", conf: 70}
	cloud := &fakeOCR{text: "   ", conf: 0}
	p := New(local, WithCloud(cloud))

	res, err := p.Extract(context.Background(), page(), dom.Options{UseCloudOCR: true})
	if err != nil || res.Backend != dom.BackendLocal {
		t.Fatalf("result = %+v, %v", res, err)
	}
}

func TestExtract_CloudRequestedButDisabled(t *testing.T) {
	t.Parallel()

	local := &fakeOCR{text: "local", conf: 70}
	p := New(local)
	if p.CloudEnabled() {
		t.Fatalf("cloud should be disabled")
	}
	res, err := p.Extract(context.Background(), page(), dom.Options{UseCloudOCR: true})
	if err != nil || res.Backend != dom.BackendLocal {
		t.Fatalf("result = %+v, %v", res, err)
	}
}

func TestExtract_LocalErrorIsProcessingFailure(t *testing.T) {
	t.Parallel()

	local := &fakeOCR{err: errors.New("tesseract crashed")}
	p := New(local, WithPreprocess(func(img image.Image) image.Image { return img }))

	_, err := p.Extract(context.Background(), page(), dom.Options{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !perr.IsCode(err, perr.ErrorCodeProcessing) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
	if IsBackendFailure(err) {
		t.Fatalf("local failure reported as backend failure")
	}
}

func TestExtract_ZeroConfidenceIsNotAnError(t *testing.T) {
	t.Parallel()

	local := &fakeOCR{text: "", conf: 0}
	p := New(local)
	res, err := p.Extract(context.Background(), page(), dom.Options{})
	if err != nil || res.Confidence != 0 || res.Text != "" {
		t.Fatalf("result = %+v, %v", res, err)
	}
}

func TestExtractFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, page()); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	local := &fakeOCR{text: "ok", conf: 60}
	res, err := New(local).ExtractFile(context.Background(), path, dom.Options{})
	if err != nil || res.Text != "ok" {
		t.Fatalf("ExtractFile = %+v, %v", res, err)
	}

	if _, err := New(local).ExtractFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"), dom.Options{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
