// Package logger owns the process root zerolog logger and the request and
// job fields carried on a context.
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ocrjobs/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type used across the module
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level        string
	Format       string // "console" or "json"
	Service      string
	Component    string
	Writer       io.Writer // stdout when nil
	WithCaller   bool
	SampleEvery  int
	StaticFields map[string]string
}

// FromEnv reads LOG_* variables through the raw config view, which does no logging itself
func FromEnv() Options {
	env := raw.New().Prefix("LOG_")
	return Options{
		Level:       strings.ToLower(env.Get("LEVEL", "debug")),
		Format:      strings.ToLower(env.Get("FORMAT", "console")),
		Service:     env.Get("SERVICE", "ocrjobs"),
		Component:   env.Get("COMPONENT", ""),
		WithCaller:  env.GetBool("CALLER", false),
		SampleEvery: env.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	initOnce sync.Once
	root     atomic.Pointer[Logger]
)

// Init builds the root logger. Only the first call has any effect.
func Init(opt Options) {
	initOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := build(opt)
		root.Store(&l)
	})
}

func build(opt Options) Logger {
	out := opt.Writer
	if out == nil {
		out = os.Stdout
	}
	if opt.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	with := zerolog.New(out).Level(parseLevel(opt.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok {
		with = with.Str("go_version", bi.GoVersion)
	}
	static := map[string]string{"service": opt.Service, "component": opt.Component}
	for k, v := range opt.StaticFields {
		static[k] = v
	}
	for k, v := range static {
		if v != "" {
			with = with.Str(k, v)
		}
	}
	if opt.WithCaller {
		with = with.Caller()
	}

	l := with.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return l
}

// Get returns the root logger, initializing it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// parseLevel accepts zerolog level names plus "warning"; anything else is debug
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return lvl
}

type scopeKey struct{}

// scope is the set of ids C stamps on every line
type scope struct {
	requestID   string
	requesterID string
	jobID       string
}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// WithRequest records the request id and requester; empty values keep what ctx had
func WithRequest(ctx context.Context, reqID, requesterID string) context.Context {
	s := scopeOf(ctx)
	set(&s.requestID, reqID)
	set(&s.requesterID, requesterID)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithJob records the job being worked on and its requester
func WithJob(ctx context.Context, jobID, requesterID string) context.Context {
	s := scopeOf(ctx)
	set(&s.jobID, jobID)
	set(&s.requesterID, requesterID)
	return context.WithValue(ctx, scopeKey{}, s)
}

// C returns the root logger with whatever ids ctx carries
func C(ctx context.Context) *Logger {
	s := scopeOf(ctx)
	with := Get().With()
	for _, f := range [...]struct{ k, v string }{
		{"request_id", s.requestID},
		{"requester_id", s.requesterID},
		{"job_id", s.jobID},
	} {
		if f.v != "" {
			with = with.Str(f.k, f.v)
		}
	}
	l := with.Logger()
	return &l
}

// Named returns a child of the root logger tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
