package module

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"iter"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ocrjobs/internal/modkit"
	"ocrjobs/internal/platform/config"
	phttp "ocrjobs/internal/platform/net/http"
	"ocrjobs/internal/platform/testkit"
	dom "ocrjobs/internal/services/ocrjobs/domain"

	"github.com/go-chi/chi/v5"
)

type stubOCR struct{ text string }

func (s stubOCR) Recognize(context.Context, image.Image, []string) (string, float64, error) {
	return s.text, 91, nil
}

type noPDF struct{}

func (noPDF) HasTextLayer(context.Context, string) (bool, error) { return false, nil }
func (noPDF) ExtractTextLayer(context.Context, string) (string, float64, error) {
	return "", 0, errors.New("no pdf")
}
func (noPDF) PageCount(context.Context, string) (int, error) { return 0, errors.New("no pdf") }
func (noPDF) RenderPages(context.Context, string) iter.Seq2[dom.Page, error] {
	return func(func(dom.Page, error) bool) {}
}

type inbox struct {
	mu    sync.Mutex
	texts []string
	files []string
}

func (b *inbox) NotifyText(_ context.Context, _ string, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.texts = append(b.texts, text)
	return nil
}

func (b *inbox) NotifyArtifact(_ context.Context, _ string, path, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files = append(b.files, path)
	return nil
}

func (b *inbox) artifacts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.files...)
}

func setDirs(t *testing.T) (results, spool string) {
	t.Helper()
	results, spool = t.TempDir(), t.TempDir()
	t.Setenv("OCR_RESULTS_DIR", results)
	t.Setenv("OCR_SPOOL_DIR", spool)
	t.Setenv("OCR_CLOUD_ENABLED", "false")
	return results, spool
}

func TestFromConfig_Defaults(t *testing.T) {
	results, spool := setDirs(t)

	o := FromConfig(config.New())
	if o.RateMaxPerMinute != 15 || o.MaxConcurrentJobs != 3 || o.PartialEvery != 5 {
		t.Fatalf("limits = %+v", o)
	}
	if o.CacheTTL != 24*time.Hour || o.DeferDelay != time.Minute || o.RenderDPI != 300 {
		t.Fatalf("durations = %+v", o)
	}
	if o.KeyPrefix != "tgocr:" || o.Pdftoppm != "pdftoppm" {
		t.Fatalf("names = %+v", o)
	}
	if o.ResultsDir != results || o.SpoolDir != spool || o.CloudEnabled {
		t.Fatalf("env not applied: %+v", o)
	}
}

func TestFromConfig_Env(t *testing.T) {
	setDirs(t)
	t.Setenv("OCR_RATE_MAX_PER_MINUTE", "2")
	t.Setenv("OCR_CACHE_TTL", "1h")
	t.Setenv("OCR_KEY_PREFIX", "x:")

	o := FromConfig(config.New())
	if o.RateMaxPerMinute != 2 || o.CacheTTL != time.Hour || o.KeyPrefix != "x:" {
		t.Fatalf("options = %+v", o)
	}
}

func TestMerge_NonZeroOverridesWin(t *testing.T) {
	t.Parallel()

	base := Options{RateMaxPerMinute: 15, PartialEvery: 5, Pdftoppm: "pdftoppm", CloudEnabled: true}
	got := merge(base, Options{RateMaxPerMinute: 1, Pdftoppm: "/opt/bin/pdftoppm"})
	if got.RateMaxPerMinute != 1 || got.PartialEvery != 5 || got.Pdftoppm != "/opt/bin/pdftoppm" {
		t.Fatalf("merged = %+v", got)
	}
	if !got.CloudEnabled {
		t.Fatalf("zero override turned cloud off")
	}
}

func TestMerge_LocalOnlyTurnsCloudOff(t *testing.T) {
	t.Parallel()

	got := merge(Options{CloudEnabled: true}, Options{LocalOnly: true})
	if got.CloudEnabled {
		t.Fatalf("LocalOnly override ignored: %+v", got)
	}
}

func TestModule_CloseLeavesInjectedClientsAlone(t *testing.T) {
	m := newModule(t, &inbox{})
	if len(m.owned) != 0 {
		t.Fatalf("owned = %v, cloud is off and local is injected", m.owned)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func newModule(t *testing.T, box *inbox) *Module {
	t.Helper()
	setDirs(t)
	return New(modkit.Deps{Cfg: config.New()}, Options{WorkerConcurrency: 1},
		modkit.WithPorts(Injected{Notifier: box, Local: stubOCR{text: "hello world"}, Splitter: noPDF{}}))
}

func TestModule_Identity(t *testing.T) {
	m := newModule(t, &inbox{})
	if m.Name() != "ocrjobs" || m.Prefix() != "/ocr" {
		t.Fatalf("name=%q prefix=%q", m.Name(), m.Prefix())
	}
	p, ok := m.Ports().(Ports)
	if !ok || p.Submit == nil || p.Worker == nil || p.Health == nil || p.Prefs == nil {
		t.Fatalf("ports = %#v", m.Ports())
	}
	if m.Options().WorkerConcurrency != 1 {
		t.Fatalf("override lost: %+v", m.Options())
	}
}

func TestModule_SubmitAndRun(t *testing.T) {
	box := &inbox{}
	m := newModule(t, box)
	p := m.Ports().(Ports)

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rc, err := p.Submit.Submit(ctx, dom.Submission{RequesterID: "42", FilePath: path, FileName: "scan.png"})
	if err != nil || rc.JobID == "" {
		t.Fatalf("Submit = %+v, %v", rc, err)
	}

	done := make(chan error, 1)
	go func() { done <- p.Worker.Run(ctx) }()
	testkit.Eventually(t, 5*time.Second, func() bool { return len(box.artifacts()) == 1 })
	cancel()
	<-done

	got, err := os.ReadFile(box.artifacts()[0])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(got, []byte("hello world")) {
		t.Fatalf("result = %q", got)
	}
}

func TestModule_MountRoutes(t *testing.T) {
	m := newModule(t, &inbox{})
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/ocr/jobs/health", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data == nil {
		t.Fatalf("envelope = %+v", env)
	}

	req := httptest.NewRequest(stdhttp.MethodPut, "/ocr/prefs/u9", strings.NewReader(`{"languages":["uz"]}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("put prefs = %d body=%s", rec.Code, rec.Body.String())
	}
	o, err := m.Ports().(Ports).Prefs.Get(context.Background(), "u9")
	if err != nil || strings.Join(o.Languages, "+") != "uzb" {
		t.Fatalf("stored prefs = %+v, %v", o, err)
	}
}
