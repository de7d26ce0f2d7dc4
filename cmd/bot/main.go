package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"assetbot/internal/app"
	"assetbot/internal/config"
	"assetbot/internal/logging"
	"assetbot/internal/notify"
	"assetbot/internal/scrape"
	"assetbot/internal/storage"
	"assetbot/internal/transport/telegram"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	log, closeLog := logging.New(cfg.Logging)
	defer closeLog()

	store, err := storage.Open(cfg.Storage, log)
	if err != nil {
		log.Error().Err(err).Msg("opening storage failed")
		os.Exit(1)
	}
	defer store.Close()

	renderer := scrape.NewChromeRenderer(cfg.Scrape)
	defer renderer.Close()
	scraper := scrape.New(cfg.Scrape, renderer, log)

	adapter, err := telegram.New(cfg.Telegram, log)
	if err != nil {
		log.Error().Err(err).Msg("telegram setup failed")
		os.Exit(1)
	}

	images := notify.NewImageFetcher(config.Duration(cfg.Notify.ImageTimeout, 8*time.Second))
	fan := notify.NewFanout(adapter, images, config.Duration(cfg.Notify.PaceEvery, time.Second), log)

	svc := app.New(cfg.Monitor, scraper, store, fan, log)
	adapter.Bind(svc)

	if err := svc.Start(ctx); err != nil {
		log.Error().Err(err).Msg("monitor start failed")
		os.Exit(1)
	}
	adapter.Start(ctx)

	// Reloadable knobs only; everything else needs a restart.
	go func() {
		err := config.Watch(ctx, cfgPath, log, func(next *config.Config) {
			zerolog.SetGlobalLevel(logging.ParseLevel(next.Logging.Level, zerolog.InfoLevel))
			fan.SetPace(config.Duration(next.Notify.PaceEvery, time.Second))
		})
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("config watch stopped")
		}
	}()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug().Err(err).Msg("sd_notify not available")
	}
	log.Info().Msg("assetbot up")

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := svc.Stop(stopCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown incomplete")
	}
	log.Info().Msg("assetbot stopped")
}
