package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshspace/meshspace-server/internal/app"
	"github.com/meshspace/meshspace-server/internal/auth"
	"github.com/meshspace/meshspace-server/internal/config"
	"github.com/meshspace/meshspace-server/internal/directory/sqlite"
	"github.com/meshspace/meshspace-server/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "meshspace-server",
		Short:         "Real-time spatial presence relay for meshspace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newTokenCmd(&configPath),
		newSpaceCmd(&configPath),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	var (
		addr     string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLog := log.New("info")
			cfg, path, err := config.Load(bootLog, *configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting meshspace server")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	return cmd
}

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token for a user id",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, _, err := config.Load(nil, *configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			token, err := auth.GenerateToken(&auth.JWTConfig{
				Secret:   []byte(cfg.JWTSecret),
				Issuer:   cfg.JWTIssuer,
				Audience: cfg.JWTAudience,
				TTL:      ttl,
			}, userID)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}

			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newSpaceCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "space",
		Short: "Manage spaces in the local directory database",
	}
	cmd.AddCommand(newSpaceAddCmd(configPath))
	return cmd
}

func newSpaceAddCmd(configPath *string) *cobra.Command {
	var (
		id     string
		name   string
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert a space row (id is generated when omitted)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.Load(nil, *configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open space directory: %w", err)
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			space, err := store.CreateSpace(ctx, id, name, width, height)
			if err != nil {
				return fmt.Errorf("create space: %w", err)
			}

			fmt.Printf("%s\t%dx%d\n", space.ID, space.Width, space.Height)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "space id (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().IntVar(&width, "width", 0, "grid width")
	cmd.Flags().IntVar(&height, "height", 0, "grid height")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}
