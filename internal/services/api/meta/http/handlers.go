// Package http serves the liveness, readiness and build info endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"ocrjobs/internal/core/version"
	"ocrjobs/internal/modkit/httpkit"
	"ocrjobs/internal/modkit/swaggerkit"

	"golang.org/x/sync/errgroup"
)

// Check is one dependency probed by /ready; a nil Ping means the backend is disabled
type Check struct {
	Name string
	Ping func(context.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName  string
	StartedAt    time.Time
	Checks       []Check
	ReadyTimeout time.Duration // 2s when zero
}

// HealthResponse is the /health payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is one probe result; Status is ok, fail or skipped
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse rolls the probes up into ok, degraded or fail
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse is the /service payload; Uptime is in seconds
type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	httpkit.Get(r, "/health", d.health)
	httpkit.Get(r, "/ready", d.ready)
	httpkit.Get(r, "/version", func(*http.Request) (any, error) { return version.Info(d.ServiceName), nil })
	httpkit.Get(r, "/service", d.service)
}

// Routes lists what Register mounts, relative to the module prefix
func Routes() []swaggerkit.Route {
	return []swaggerkit.Route{
		{Method: http.MethodGet, Path: "/health", Summary: "Liveness", Tag: "meta"},
		{Method: http.MethodGet, Path: "/ready", Summary: "Readiness of PostgreSQL, ClickHouse and Redis", Tag: "meta"},
		{Method: http.MethodGet, Path: "/version", Summary: "Build information", Tag: "meta"},
		{Method: http.MethodGet, Path: "/service", Summary: "Service name and uptime", Tag: "meta"},
	}
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (d Deps) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: d.ServiceName, Started: stamp(d.StartedAt), Now: stamp(time.Now())}, nil
}

func (d Deps) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    d.ServiceName,
		Started: stamp(d.StartedAt),
		Uptime:  int64(time.Since(d.StartedAt) / time.Second),
	}, nil
}

// ready pings every backend in parallel. Any failure makes the service
// "fail"; a disabled backend only degrades it.
func (d Deps) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), d.ReadyTimeout)
	defer cancel()

	out := make([]ReadyCheck, len(d.Checks))
	var g errgroup.Group
	for i, c := range d.Checks {
		out[i] = ReadyCheck{Name: c.Name, Status: "skipped"}
		if c.Ping == nil {
			continue
		}
		g.Go(func() error {
			if err := c.Ping(ctx); err != nil {
				out[i].Status, out[i].Error = "fail", err.Error()
				return nil
			}
			out[i].Status = "ok"
			return nil
		})
	}
	_ = g.Wait()

	status := "ok"
	for _, c := range out {
		switch {
		case c.Status == "fail":
			status = "fail"
		case c.Status == "skipped" && status == "ok":
			status = "degraded"
		}
	}
	return ReadyResponse{Status: status, Checks: out, Now: stamp(time.Now())}, nil
}
