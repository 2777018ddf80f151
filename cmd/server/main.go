package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/HyungsunSo/AI-NutriCurator/config"
	"github.com/HyungsunSo/AI-NutriCurator/internal/app"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "nutricurator",
	})
	log := logger.Get()

	log.Info().
		Str("version", "1.0.0").
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Str("oracle", cfg.Oracle.Provider).
		Msg("starting NutriCurator server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	if err := a.Serve(ctx); err != nil {
		log.Error().Err(err).Msg("server exited")
		a.Close()
		os.Exit(1)
	}
}
