// Package module mounts the meta endpoints under /meta
package module

import (
	"time"

	"ocrjobs/internal/modkit"
	"ocrjobs/internal/modkit/httpkit"
	"ocrjobs/internal/platform/store"

	metahttp "ocrjobs/internal/services/api/meta/http"
)

// Module serves health, readiness and build info
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New probes deps.PG, deps.CH and deps.KV for readiness. A nil backend is
// reported as skipped.
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	return &Module{b: b, deps: metahttp.Deps{
		ServiceName:  "ocrjobs-api",
		StartedAt:    time.Now(),
		ReadyTimeout: deps.Cfg.Prefix("META_").MayDuration("READY_TIMEOUT", 2*time.Second),
		Checks: []metahttp.Check{
			probe("pg", deps.PG),
			probe("ch", deps.CH),
			probe("kv", deps.KV),
		},
	}}
}

func probe(name string, seam any) metahttp.Check {
	c := metahttp.Check{Name: name}
	if p, ok := seam.(store.Pinger); ok {
		c.Ping = p.Ping
	}
	return c
}

func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) }, metahttp.Routes())
}

func (m *Module) Name() string { return m.b.Name }

// Ports is nil; nothing else consumes meta
func (m *Module) Ports() any { return nil }
