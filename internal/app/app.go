package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshspace/meshspace-server/internal/auth"
	"github.com/meshspace/meshspace-server/internal/config"
	"github.com/meshspace/meshspace-server/internal/core"
	"github.com/meshspace/meshspace-server/internal/directory/sqlite"
	transporthttp "github.com/meshspace/meshspace-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	spaces          *sqlite.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	spaces, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init space directory: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("space directory initialized")

	verifier := auth.NewVerifier(&auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	})

	registry := core.NewRegistry()
	server := transporthttp.NewServer(registry, verifier, spaces, core.RandomSpawn, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		spaces:          spaces,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the space directory and other resources.
func (a *App) cleanup() {
	if a.spaces != nil {
		if err := a.spaces.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close space directory")
		} else {
			a.log.Info().Msg("space directory closed")
		}
	}
}
