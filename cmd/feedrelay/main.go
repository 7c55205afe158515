package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"feedrelay/internal/infrastructure/config"
	"feedrelay/internal/infrastructure/logger"
	"feedrelay/internal/infrastructure/svc"
)

func main() {
	logger.Setup(logger.Options{Level: "info"})

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(logger.Options{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		File:   cfg.App.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service init failed")
	}
	defer sc.Close()

	log.Info().
		Str("config", *configPath).
		Str("http_addr", cfg.App.HTTPAddr).
		Int("instruments", sc.Registry.Len()).
		Msg("feedrelay started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sc.Scheduler.Run(gctx)
	})
	g.Go(func() error {
		return sc.Server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return sc.Server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("feedrelay exited with error")
		return
	}
	log.Info().Msg("feedrelay stopped")
}
