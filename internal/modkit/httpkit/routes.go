package httpkit

import (
	"net/http"

	phttp "ocrjobs/internal/platform/net/http"
	"ocrjobs/internal/platform/net/middleware"
)

type (
	Envelope = phttp.Envelope
	Response = phttp.Response
	Handler  = phttp.Handler
	Router   = phttp.Router
)

func OK(data any) Response       { return phttp.OK(data) }
func Accepted(data any) Response { return phttp.Accepted(data) }
func Error(err error) Response   { return phttp.Error(err) }

// Param reads a path parameter such as {requester_id}
func Param(r *http.Request, name string) string { return phttp.Param(r, name) }

// Handle adapts a handler that builds its own Response, e.g. to pick 202
// or set Retry-After
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }

// Get registers h for GET; a nil error answers 200 with the returned data
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.Handle(func(req *http.Request) Response {
		out, err := h(req)
		if err != nil {
			return phttp.Error(err)
		}
		return phttp.OK(out)
	}))
}

// PutJSON registers h for PUT with the body bound and validated into T
func PutJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Put(path, phttp.JSONHandler(h))
}

// MountAPIV1 opens /api/v1 with mw and hands it to mount
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/v1", func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}

// Protected mounts fn's routes in a group that requires bearer auth
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(g Router) {
		g.Use(Auth(p))
		fn(g)
	})
}
