package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "ocrjobs/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestMountProfiler(t *testing.T) {
	t.Parallel()

	for _, enabled := range []bool{true, false} {
		r := phttp.AdaptChi(chi.NewRouter())
		phttp.MountProfiler(r, "/debug", enabled)

		want := http.StatusNotFound
		if enabled {
			want = http.StatusOK
		}
		for _, path := range []string{"/debug/pprof/", "/debug/pprof/cmdline"} {
			rec := httptest.NewRecorder()
			r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != want {
				t.Fatalf("enabled=%v %s = %d, want %d", enabled, path, rec.Code, want)
			}
		}
	}
}
