package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"ocrjobs/internal/adapters/telegram"
	"ocrjobs/internal/modkit"
	"ocrjobs/internal/modkit/module"
	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"
	"ocrjobs/internal/platform/store"
	dom "ocrjobs/internal/services/ocrjobs/domain"

	ocrmod "ocrjobs/internal/services/ocrjobs/module"
)

func main() {
	l := logger.Get()
	if err := config.LoadDotenv(); err != nil {
		l.Warn().Err(err).Msg("dotenv not loaded")
	}
	root := config.New()

	var (
		fConc  = flag.Int("concurrency", 0, "worker concurrency (default OCR_WORKER_CONCURRENCY)")
		fBatch = flag.Int("batch", 0, "queue lease batch size per poll")
		fLocal = flag.Bool("local-only", false, "never call the cloud OCR backend")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "worker"), store.WithLogger(*l))
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
	if err := st.Ready(ctx); err != nil {
		l.Fatal().Err(err).Msg("store not ready")
	}

	var notifier dom.Notifier
	if token := root.MayString("TELEGRAM_BOT_TOKEN", ""); token != "" {
		tg, err := telegram.New(token)
		if err != nil {
			l.Panic().Err(err).Msg("telegram client failed")
		}
		notifier = tg
	} else {
		l.Warn().Msg("TELEGRAM_BOT_TOKEN not set; results are only logged")
	}

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, KV: st.KV, Log: *l}
	mod := ocrmod.New(deps, ocrmod.Options{
		WorkerConcurrency: *fConc,
		QueueTakeBatch:    *fBatch,
		LocalOnly:         *fLocal,
	}, modkit.WithPorts(ocrmod.Injected{Notifier: notifier}))
	defer func() {
		if err := mod.Close(); err != nil {
			l.Warn().Err(err).Msg("close ocr clients")
		}
	}()
	module.Register(mod.Name(), mod.Ports())

	ports := module.MustPortsOf[ocrmod.Ports](mod)
	if err := ports.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("ocr worker failed")
	}
}
