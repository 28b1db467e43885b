package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type langsIn struct {
	Languages []string `json:"languages" validate:"required"`
}

func TestJSONHandler(t *testing.T) {
	t.Parallel()

	h := JSONHandler(func(_ *http.Request, in langsIn) (any, error) {
		if in.Languages[0] == "xx" {
			return nil, errors.New("store down")
		}
		return map[string]int{"count": len(in.Languages)}, nil
	})

	cases := []struct {
		body   string
		status int
		want   string
	}{
		{`{"languages":["eng","rus"]}`, http.StatusOK, `"count":2`},
		{`{"languages":`, http.StatusBadRequest, "invalid JSON"},
		{`{}`, http.StatusBadRequest, "languages"},
		{`{"languages":["xx"]}`, http.StatusInternalServerError, "store down"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPut, "/prefs/u1", strings.NewReader(c.body)))
		if rec.Code != c.status || !strings.Contains(rec.Body.String(), c.want) {
			t.Fatalf("%s: %d %s", c.body, rec.Code, rec.Body.String())
		}
	}
}
