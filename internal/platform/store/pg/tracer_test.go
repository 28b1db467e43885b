package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"select 1": "select 1",
		"  UPDATE ocr_jobs\n\tSET lease_until = now()  WHERE job_id = $1\r\n": "UPDATE ocr_jobs SET lease_until = now() WHERE job_id = $1",
		"": "",
	}
	for in, want := range cases {
		if got := compact(in); got != want {
			t.Fatalf("compact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTracer_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel))

	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT\n1", ElapsedUS: 1500})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "DELETE FROM ocr_jobs", ElapsedUS: 900000, Slow: true, Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d: %s", len(lines), buf.String())
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first["level"] != "info" || first["sql"] != "SELECT 1" || first["elapsed_ms"] != 1.5 || first["component"] != "pg" {
		t.Fatalf("first = %v", first)
	}
	if second["level"] != "warn" || second["slow"] != true || second["error"] != "boom" {
		t.Fatalf("second = %v", second)
	}
}
