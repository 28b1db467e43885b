package version

import "testing"

func TestInfo(t *testing.T) {
	t.Parallel()

	bi := Info("ocrjobs-worker")
	if bi.Service != "ocrjobs-worker" || bi.Version != "dev" {
		t.Fatalf("Info = %+v", bi)
	}
	if Info("").Service != "ocrjobs" {
		t.Fatalf("empty service should default")
	}
	if Tag() != "dev" {
		t.Fatalf("Tag = %q", Tag())
	}
}
