package main

import (
	"context"
	"os/signal"
	"syscall"

	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"
	phttp "ocrjobs/internal/platform/net/http"
	"ocrjobs/internal/platform/store"

	"ocrjobs/internal/services/api"
)

func main() {
	l := logger.Get()
	if err := config.LoadDotenv(); err != nil {
		l.Warn().Err(err).Msg("dotenv not loaded")
	}

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if err := st.Shared(); err != nil {
		l.Fatal().Err(err).Msg("store not shareable")
	}

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
