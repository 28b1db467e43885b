package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// Route is one documented operation
type Route struct {
	Method  string
	Path    string
	Summary string
	Tag     string
}

var (
	mu     sync.RWMutex
	title  = "ocrjobs API"
	routes []Route
)

// Document adds routes to the served spec; modules call it while mounting.
// Paths are relative to the /api/v1 server
func Document(rs ...Route) {
	mu.Lock()
	defer mu.Unlock()
	for _, r := range rs {
		dup := false
		for _, have := range routes {
			if have.Method == r.Method && have.Path == r.Path {
				dup = true
				break
			}
		}
		if !dup {
			routes = append(routes, r)
		}
	}
}

// spec renders an OpenAPI 3 skeleton of the documented routes
func spec() map[string]any {
	mu.RLock()
	defer mu.RUnlock()
	paths := map[string]any{}
	for _, rt := range routes {
		ops, _ := paths[rt.Path].(map[string]any)
		if ops == nil {
			ops = map[string]any{}
			paths[rt.Path] = ops
		}
		ops[strings.ToLower(rt.Method)] = map[string]any{
			"summary":   rt.Summary,
			"tags":      []string{rt.Tag},
			"responses": map[string]any{"default": map[string]any{"description": "envelope"}},
		}
	}
	return map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": title, "version": "v1"},
		"servers": []any{map[string]any{"url": "/api/v1"}},
		"paths":   paths,
	}
}

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec())
	}
}
