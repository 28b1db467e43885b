package http

import (
	"net/http"

	perr "ocrjobs/internal/platform/errors"

	"github.com/go-chi/chi/v5"
)

// chiRouter adapts any chi.Router, the root *chi.Mux included
type chiRouter struct{ r chi.Router }

// AdaptChi adapts m to Router. Unknown paths answer with the JSON error envelope.
func AdaptChi(m *chi.Mux) Router {
	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		RespondError(w, r, perr.New(perr.ErrorCodeNotFound, "route not found"))
	})
	return chiRouter{m}
}

func (c chiRouter) Get(p string, h Handler)    { c.r.Get(p, h) }
func (c chiRouter) Post(p string, h Handler)   { c.r.Post(p, h) }
func (c chiRouter) Put(p string, h Handler)    { c.r.Put(p, h) }
func (c chiRouter) Delete(p string, h Handler) { c.r.Delete(p, h) }

func (c chiRouter) Handle(p string, h http.Handler)           { c.r.Handle(p, h) }
func (c chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }
func (c chiRouter) Mux() http.Handler                         { return c.r }

func (c chiRouter) Group(fn func(Router)) {
	c.r.Group(func(sub chi.Router) { fn(chiRouter{sub}) })
}

func (c chiRouter) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(sub chi.Router) { fn(chiRouter{sub}) })
}

// Param returns the named path parameter of the matched route
func Param(r *http.Request, name string) string { return chi.URLParam(r, name) }
