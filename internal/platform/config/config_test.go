package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kit "ocrjobs/internal/platform/testkit"
)

func TestPrefix(t *testing.T) {
	if got := New().Prefix("SERVICE_").Prefix("PGSQL_").key("DBURL"); got != "SERVICE_PGSQL_DBURL" {
		t.Fatalf("key = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("TELEGRAM_")
	t.Setenv("TELEGRAM_BOT_TOKEN", "  123:abc ")
	if got := c.MustString("BOT_TOKEN"); got != "123:abc" {
		t.Fatalf("MustString = %q", got)
	}
	t.Setenv("TELEGRAM_BLANK", "   ")
	kit.MustPanic(t, func() { _ = c.MustString("BLANK") })
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMayValues(t *testing.T) {
	c := New().Prefix("OCR_")
	t.Setenv("OCR_API_TOKEN", " s3cret ")
	t.Setenv("OCR_MAX_CONCURRENT_JOBS", "5")
	t.Setenv("OCR_RATE_MAX_PER_MINUTE", "lots")
	t.Setenv("OCR_CLOUD_ENABLED", "false")
	t.Setenv("OCR_LOCAL_ONLY", "maybe")
	t.Setenv("OCR_CACHE_TTL", "90m")
	t.Setenv("OCR_DEFER_DELAY", "soon")

	if got := c.MayString("API_TOKEN", ""); got != "s3cret" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayString("TESSDATA_PREFIX", "/usr/share"); got != "/usr/share" {
		t.Fatalf("MayString default = %q", got)
	}
	if got := c.MayInt("MAX_CONCURRENT_JOBS", 3); got != 5 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt("RATE_MAX_PER_MINUTE", 15); got != 15 {
		t.Fatalf("MayInt invalid = %d", got)
	}
	if c.MayBool("CLOUD_ENABLED", true) {
		t.Fatal("MayBool = true")
	}
	if !c.MayBool("LOCAL_ONLY", true) {
		t.Fatal("MayBool invalid did not fall back")
	}
	if got := c.MayDuration("CACHE_TTL", time.Hour); got != 90*time.Minute {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayDuration("DEFER_DELAY", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration invalid = %v", got)
	}
}

func TestLoadDotenv_KeepsExistingAndSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	body := "OCRJOBS_DOTENV_A=from_file\nOCRJOBS_DOTENV_B=from_file\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("OCRJOBS_DOTENV_B", "from_env")
	t.Cleanup(func() { _ = os.Unsetenv("OCRJOBS_DOTENV_A") })

	if err := LoadDotenv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("OCRJOBS_DOTENV_A"); got != "from_file" {
		t.Fatalf("A = %q, want from_file", got)
	}
	if got := os.Getenv("OCRJOBS_DOTENV_B"); got != "from_env" {
		t.Fatalf("B = %q, want from_env", got)
	}
}

func TestLoadDotenv_NothingToLoad(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("LoadDotenv on missing file: %v", err)
	}
}

func TestMayDir_CreatesDirectory(t *testing.T) {
	want := filepath.Join(t.TempDir(), "results", "nested")
	t.Setenv("OCR_RESULTS_DIR", want)

	got := New().Prefix("OCR_").MayDir("RESULTS_DIR", "")
	if got != want {
		t.Fatalf("MayDir = %q, want %q", got, want)
	}
	if st, err := os.Stat(want); err != nil || !st.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}
