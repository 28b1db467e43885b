package net_test

import (
	"errors"
	"net/http"
	"testing"

	perr "ocrjobs/internal/platform/errors"
	pnet "ocrjobs/internal/platform/net"
)

func TestError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   perr.ErrorCode
		msg    string
	}{
		{"nil", nil, http.StatusOK, 0, ""},
		{"unauthorized", perr.Unauthorizedf("missing token"), http.StatusUnauthorized, perr.ErrorCodeUnauthorized, "missing token"},
		{"rate limited", perr.TooManyRequestsf("slow down"), http.StatusTooManyRequests, perr.ErrorCodeTooManyRequests, "slow down"},
		{"foreign", errors.New("boom"), http.StatusInternalServerError, perr.ErrorCodeUnknown, "boom"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			status, w := pnet.Error(c.err, "req-1")
			if status != c.status || w.StatusCode != c.status || w.Status != http.StatusText(c.status) {
				t.Fatalf("status = %d %+v, want %d", status, w, c.status)
			}
			if w.Code != c.code || w.Error != c.msg || w.RequestID != "req-1" {
				t.Fatalf("wire = %+v", w)
			}
		})
	}
}
