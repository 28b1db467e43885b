package api

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"ocrjobs/internal/modkit"
	"ocrjobs/internal/modkit/module"
	"ocrjobs/internal/platform/config"
	phttp "ocrjobs/internal/platform/net/http"
	"ocrjobs/internal/platform/testkit"
	ocrmod "ocrjobs/internal/services/ocrjobs/module"

	"github.com/go-chi/chi/v5"
)

type blankOCR struct{}

func (blankOCR) Recognize(context.Context, image.Image, []string) (string, float64, error) {
	return "", 0, nil
}

func TestMount(t *testing.T) {
	t.Setenv("OCR_RESULTS_DIR", t.TempDir())
	t.Setenv("OCR_SPOOL_DIR", t.TempDir())
	t.Setenv("OCR_CLOUD_ENABLED", "false")
	t.Cleanup(module.Reset)

	m := chi.NewRouter()
	Mount(phttp.AdaptChi(m), Options{
		Config:        config.New(),
		EnableSwagger: true,
		OCR:           []modkit.Option{modkit.WithPorts(ocrmod.Injected{Local: blankOCR{}})},
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	for _, path := range []string{"/api/v1/meta/health", "/api/v1/ocr/jobs/health", "/api/v1/ocr/prefs/u1", "/api/v1/meta/version"} {
		if rec := get(path); rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d %s", path, rec.Code, rec.Body.String())
		}
	}

	doc := get("/api/docs/doc.json").Body.String()
	testkit.MustContain(t, doc, `"/ocr/jobs"`)
	testkit.MustContain(t, doc, `"/meta/ready"`)

	if _, ok := module.PortsAs[ocrmod.Ports]("ocrjobs"); !ok {
		t.Fatal("ocrjobs ports not registered")
	}
}
