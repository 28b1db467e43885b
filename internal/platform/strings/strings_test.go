package strings

import (
	"testing"

	"ocrjobs/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	t.Parallel()

	def := []string{"eng"}
	if got := IfEmpty(nil, def); len(got) != 1 || got[0] != "eng" {
		t.Fatalf("IfEmpty(nil) = %v", got)
	}
	if got := IfEmpty([]string{"rus"}, def); got[0] != "rus" {
		t.Fatalf("IfEmpty(rus) = %v", got)
	}
}

func TestMustPrefix(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"ocr": "/ocr", "/ocr/": "/ocr", " ocr/jobs ": "/ocr/jobs", "//meta": "/meta"} {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q) = %q, want %q", in, got, want)
		}
	}
	testkit.MustPanic(t, func() { MustPrefix(" / ") })
}

func TestMustString(t *testing.T) {
	t.Parallel()

	if MustString("meta", "name") != "meta" {
		t.Fatal("MustString changed its input")
	}
	testkit.MustPanic(t, func() { MustString("  ", "name") })
}
