// Package middleware exposes the chi and go-chi/cors middlewares the API
// mounts, plus access logging, panic recovery and bearer auth.
package middleware

import (
	"net/http"
	"time"

	pstrings "ocrjobs/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

type mw = func(http.Handler) http.Handler

func RequestID() mw       { return chimw.RequestID }
func RealIP() mw          { return chimw.RealIP }
func NoCache() mw         { return chimw.NoCache }
func RedirectSlashes() mw { return chimw.RedirectSlashes }
func StripSlashes() mw    { return chimw.StripSlashes }

// Timeout cancels the request context after d and answers 504 if the handler
// has not written yet
func Timeout(d time.Duration) mw { return chimw.Timeout(d) }

// Compress gzips or deflates compressible responses at level
func Compress(level int) mw { return chimw.NewCompressor(level).Handler }

// CORSOptions is the subset of go-chi/cors the API configures.
// Empty methods and headers fall back to what the OCR endpoints need.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	corsHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
)

func CORS(o CORSOptions) mw {
	return chicors.Handler(chicors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   pstrings.IfEmpty(o.AllowedMethods, corsMethods),
		AllowedHeaders:   pstrings.IfEmpty(o.AllowedHeaders, corsHeaders),
		ExposedHeaders:   o.ExposedHeaders,
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}
