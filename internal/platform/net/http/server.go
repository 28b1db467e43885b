package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server owns the chi mux and the listener
type Server struct {
	mux   *chi.Mux
	srv   *stdhttp.Server
	grace time.Duration
}

// NewServer reads API_PORT, READ_TIMEOUT and SHUTDOWN_GRACE from cfg.
// Each opt gets the mux before any module mounts.
func NewServer(cfg config.Conf, opts ...func(*chi.Mux)) *Server {
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		mux: m,
		srv: &stdhttp.Server{
			Addr:              cfg.MayString("API_PORT", ":4000"),
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
			// uploads can be large; the OCR itself runs on the worker
			ReadTimeout: cfg.MayDuration("READ_TIMEOUT", 2*time.Minute),
		},
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 10*time.Second),
	}
}

func (s *Server) Router() Router { return AdaptChi(s.mux) }

func (s *Server) Addr() string { return s.srv.Addr }

// Run serves until ctx is done, then drains in-flight requests for up to the
// shutdown grace. A Shutdown from elsewhere also ends Run with nil.
func (s *Server) Run(ctx context.Context) error {
	logger.Named("http").Info().Str("addr", s.srv.Addr).Msg("http listening")

	served := make(chan error, 1)
	go func() { served <- s.srv.ListenAndServe() }()

	select {
	case err := <-served:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	logger.Named("http").Info().Dur("grace", s.grace).Msg("http draining")
	return s.Shutdown(sctx)
}

// Shutdown stops accepting and waits for active requests
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
