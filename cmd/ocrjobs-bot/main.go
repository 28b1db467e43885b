package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"sync"
	"syscall"

	"ocrjobs/internal/adapters/telegram"
	"ocrjobs/internal/modkit"
	"ocrjobs/internal/modkit/module"
	"ocrjobs/internal/platform/config"
	"ocrjobs/internal/platform/logger"
	"ocrjobs/internal/platform/store"
	"ocrjobs/internal/services/ocrjobs/bot"

	ocrmod "ocrjobs/internal/services/ocrjobs/module"
)

func main() {
	l := logger.Get()
	if err := config.LoadDotenv(); err != nil {
		l.Warn().Err(err).Msg("dotenv not loaded")
	}
	root := config.New()

	fWorker := flag.Bool("with-worker", true, "run the OCR worker pool in this process")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, "bot"), store.WithLogger(*l))
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

	tg, err := telegram.New(root.MustString("TELEGRAM_BOT_TOKEN"))
	if err != nil {
		l.Panic().Err(err).Msg("telegram client failed")
	}

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, KV: st.KV, Log: *l}
	// intake alone never runs OCR, so only a bot with a worker dials the cloud
	mod := ocrmod.New(deps, ocrmod.Options{LocalOnly: !*fWorker}, modkit.WithPorts(ocrmod.Injected{Notifier: tg}))
	defer func() {
		if err := mod.Close(); err != nil {
			l.Warn().Err(err).Msg("close ocr clients")
		}
	}()
	module.Register(mod.Name(), mod.Ports())
	ports := module.MustPortsOf[ocrmod.Ports](mod)

	var wg sync.WaitGroup
	if *fWorker {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ports.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				l.Error().Err(err).Msg("ocr worker failed")
				stop()
			}
		}()
	}

	router := bot.New(tg, ports.Submit, ports.Health, ports.Prefs, mod.Options().SpoolDir)
	l.Info().Bool("worker", *fWorker).Msg("bot polling")
	if err := tg.Poll(ctx, router.Handle); err != nil && !errors.Is(err, context.Canceled) {
		l.Error().Err(err).Msg("polling stopped")
	}
	stop()
	wg.Wait()
}
