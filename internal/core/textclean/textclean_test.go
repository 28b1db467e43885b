package textclean

import "testing"

func TestClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name, in, want string
	}{
		{"empty", "", ""},
		{"trim and collapse spaces", "  Hello \t  world  ", "Hello world"},
		{"zero width removed", "in\u200bvoice\ufeff", "invoice"},
		{"nfc composes", "Cafe\u0301", "Caf\u00e9"},
		{"crlf", "a\r\nb", "a\nb"},
		{"blank lines collapse", "para one\n\n\n\n  \npara two", "para one\n\npara two"},
		{"single newline kept", "line1\nline2", "line1\nline2"},
		{"control chars", "a\x00b\x07c", "abc"},
		{"invalid utf8", "ok\xffok", "okok"},
		{"page headers survive", "--- Page 1 ---\ntext\n--- Page 2 ---\nmore", "--- Page 1 ---\ntext\n--- Page 2 ---\nmore"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"привет", 2, "пр"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
