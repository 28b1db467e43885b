package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ocrjobs/internal/modkit"
	"ocrjobs/internal/platform/store/memkv"
	"ocrjobs/internal/platform/testkit"
	dom "ocrjobs/internal/services/ocrjobs/domain"
	"ocrjobs/internal/services/ocrjobs/pipeline"
	"ocrjobs/internal/services/ocrjobs/repo"
)

type sent struct {
	to, text, path, caption string
}

type fakeNotifier struct {
	mu  sync.Mutex
	all []sent
}

func (n *fakeNotifier) NotifyText(_ context.Context, to, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, sent{to: to, text: text})
	return nil
}

func (n *fakeNotifier) NotifyArtifact(_ context.Context, to, path, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, sent{to: to, path: path, caption: caption})
	return nil
}

func (n *fakeNotifier) texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.all {
		if s.path == "" {
			out = append(out, s.text)
		}
	}
	return out
}

func (n *fakeNotifier) artifacts() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sent
	for _, s := range n.all {
		if s.path != "" {
			out = append(out, s)
		}
	}
	return out
}

func (n *fakeNotifier) withPrefix(p string) []string {
	var out []string
	for _, t := range n.texts() {
		if strings.HasPrefix(t, p) {
			out = append(out, t)
		}
	}
	return out
}

type failingNotifier struct{}

func (failingNotifier) NotifyText(context.Context, string, string) error {
	return errors.New("transport down")
}

func (failingNotifier) NotifyArtifact(context.Context, string, string, string) error {
	return errors.New("transport down")
}

type fakeOCR struct {
	mu    sync.Mutex
	calls atomic.Int32
	text  func(call int) string
	conf  float64
	err   error
	delay time.Duration
}

func (f *fakeOCR) Recognize(context.Context, image.Image, []string) (string, float64, error) {
	n := int(f.calls.Add(1))
	time.Sleep(f.delay)
	if f.err != nil {
		return "", 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.text == nil {
		return "recognized text", f.conf, nil
	}
	return f.text(n), f.conf, nil
}

type fakeSplitter struct {
	textLayer string
	pages     int
	renders   atomic.Int32
	renderErr error
}

func (s *fakeSplitter) HasTextLayer(context.Context, string) (bool, error) {
	return s.textLayer != "", nil
}

func (s *fakeSplitter) ExtractTextLayer(context.Context, string) (string, float64, error) {
	return s.textLayer, 100.0, nil
}

func (s *fakeSplitter) PageCount(context.Context, string) (int, error) { return s.pages, nil }

func (s *fakeSplitter) RenderPages(_ context.Context, _ string) iter.Seq2[dom.Page, error] {
	return func(yield func(dom.Page, error) bool) {
		for i := 0; i < s.pages; i++ {
			s.renders.Add(1)
			if s.renderErr != nil {
				yield(dom.Page{}, s.renderErr)
				return
			}
			if !yield(dom.Page{Index: i, Total: s.pages, Image: image.NewGray(image.Rect(0, 0, 4, 4))}, nil) {
				return
			}
		}
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Record(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) states() []dom.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dom.State
	for _, e := range r.events {
		out = append(out, e.State)
	}
	return out
}

type harness struct {
	svc    *Svc
	kv     *memkv.KV
	queue  *repo.Memory
	notify *fakeNotifier
	local  *fakeOCR
	cloud  *fakeOCR
	split  *fakeSplitter
	events *recordingSink
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		kv:     memkv.New(nil),
		queue:  repo.NewMemory(nil),
		notify: &fakeNotifier{},
		local:  &fakeOCR{conf: 88},
		cloud:  &fakeOCR{conf: 97},
		split:  &fakeSplitter{},
		events: &recordingSink{},
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = t.TempDir()
	}
	pipe := pipeline.New(h.local,
		pipeline.WithCloud(h.cloud),
		pipeline.WithPreprocess(func(img image.Image) image.Image { return img }),
	)
	h.svc = New(modkit.Deps{KV: h.kv}, cfg, Parts{
		Queue:    h.queue,
		Pipeline: pipe,
		Splitter: h.split,
		Notifier: h.notify,
		Events:   h.events,
	})
	return h
}

// pngFile writes a small distinct image and returns its path
func pngFile(t *testing.T, seed uint8) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 8))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(int(seed%16), 4, color.Gray{Y: seed})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return testkit.TempFile(t, "upload.png", buf.Bytes())
}
