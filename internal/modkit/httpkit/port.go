// Package httpkit is the small HTTP toolkit modules mount their routes with
package httpkit

import (
	"net/http"
	"strings"

	perr "ocrjobs/internal/platform/errors"
)

// TokenFunc checks a bearer token and names the caller it belongs to
type TokenFunc func(token string) (caller string, err error)

// Port reads "Authorization: Bearer <token>" and hands the token to a TokenFunc
type Port struct {
	check TokenFunc
}

// NewPortFunc builds a Port around fn
func NewPortFunc(fn TokenFunc) *Port { return &Port{check: fn} }

// Parse reports every failure as unauthorized without echoing the token
func (p *Port) Parse(r *http.Request) (string, error) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	token = strings.TrimSpace(token)
	if !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	if p.check == nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	caller, err := p.check(token)
	if err != nil {
		return "", perr.Unauthorizedf("invalid bearer token")
	}
	return caller, nil
}
