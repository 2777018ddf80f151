package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpDelivery "github.com/HyungsunSo/AI-NutriCurator/internal/delivery/http"
	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

const shutdownTimeout = 15 * time.Second

// NewServer builds the HTTP server for the wired services
func (a *App) NewServer() *http.Server {
	handler := httpDelivery.NewHandler(a.Matcher, a.Recommender)
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", a.Config.Server.Port),
		Handler:           httpDelivery.SetupRouter(a.Config, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully
func (a *App) Serve(ctx context.Context) error {
	log := logger.Named("server")
	srv := a.NewServer()

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("environment", a.Config.Server.Environment).Msg("server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return srv.Close()
	}
	log.Info().Msg("server stopped")
	return nil
}
