package modkit

import (
	"net/http"

	"ocrjobs/internal/modkit/httpkit"
	"ocrjobs/internal/modkit/swaggerkit"
)

// Built is the resolved module configuration. Subrouter and Register are
// never nil after Build.
type Built struct {
	Name      string
	Prefix    string
	Mw        []func(http.Handler) http.Handler
	Ports     any
	SwaggerOn bool
	Subrouter func(httpkit.Router) httpkit.Router
	Register  func(httpkit.Router)
}

// Option edits a Built during Build; later options win
type Option func(*Built)

// Build applies opts in order
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	if b.Subrouter == nil {
		b.Subrouter = func(r httpkit.Router) httpkit.Router { return r }
	}
	if b.Register == nil {
		b.Register = func(httpkit.Router) {}
	}
	return b
}

// Mount opens b.Prefix on r with b's middlewares, then runs own and the
// extra Register hook on it. routes are added to the API document, prefixed,
// when SwaggerOn.
func (b Built) Mount(r httpkit.Router, own func(httpkit.Router), routes []swaggerkit.Route) {
	r.Route(b.Prefix, func(rr httpkit.Router) {
		for _, mw := range b.Mw {
			rr.Use(mw)
		}
		rr = b.Subrouter(rr)
		own(rr)
		b.Register(rr)
	})
	if !b.SwaggerOn {
		return
	}
	for _, rt := range routes {
		rt.Path = b.Prefix + rt.Path
		swaggerkit.Document(rt)
	}
}

func WithName(name string) Option { return func(b *Built) { b.Name = name } }

func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends to the module's middleware chain
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands the module collaborators whose concrete type the module owns
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// WithSwagger adds the module's routes to the served API document
func WithSwagger(on bool) Option { return func(b *Built) { b.SwaggerOn = on } }

// WithSubrouter wraps the prefixed router before routes are attached
func WithSubrouter(fn func(httpkit.Router) httpkit.Router) Option {
	return func(b *Built) { b.Subrouter = fn }
}

// WithRegister attaches extra routes next to the module's own
func WithRegister(fn func(httpkit.Router)) Option { return func(b *Built) { b.Register = fn } }
