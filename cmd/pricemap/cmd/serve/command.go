// Package serve provides the HTTP server command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/pricemap/internal/cmd/application"
	"github.com/agentstation/pricemap/internal/cmd/emoji"
	"github.com/agentstation/pricemap/internal/server"
	"github.com/agentstation/pricemap/pkg/constants"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Serve the pricing catalog over HTTP with scheduled refreshes",
		Long: `Start the pricing query service.

Endpoints (also mounted under /api):
  GET  /pricing?serviceType=&provider=   catalog as a key -> record object
  GET  /pricing/{key}                    one record (404 unknown, 503 not ready)
  GET  /health                           {status, lastUpdated, cacheSize}
  GET  /health/ready                     503 until a catalog is active
  POST /refresh                          start a refresh (202)
  GET  /runs?limit=N                     recent refresh runs
  GET  /events/sse, /events/ws           realtime refresh and record events

On a fresh install with no catalog file, a refresh starts immediately.`,
		Example: `  # Start on default port 8080
  pricemap serve

  # Bind all interfaces, refresh every hour
  PRICEMAP_REFRESH_INTERVAL=1h pricemap serve --host 0.0.0.0

  # Restrict cross-origin access
  pricemap serve --cors-origins "https://example.com"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (default: all)")
	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "Response cache TTL")
	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().Bool("no-auto-refresh", false, "Disable scheduled refreshes")

	return cmd
}

func runServer(cmd *cobra.Command, app application.Application) error {
	cfg, err := parseConfig(cmd)
	if err != nil {
		return err
	}
	logger := app.Logger()

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Bool("auto_refresh", cfg.AutoRefresh).
		Msg("Starting API server")

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	return startWithGracefulShutdown(cmd, httpServer, srv, logger)
}

func parseConfig(cmd *cobra.Command) (server.Config, error) {
	cfg := server.DefaultConfig()
	var err error

	if cfg.Port, err = cmd.Flags().GetInt("port"); err != nil {
		return cfg, err
	}
	if cfg.Host, err = cmd.Flags().GetString("host"); err != nil {
		return cfg, err
	}
	if cfg.CORSOrigins, err = cmd.Flags().GetStringSlice("cors-origins"); err != nil {
		return cfg, err
	}
	if cfg.RateLimit, err = cmd.Flags().GetInt("rate-limit"); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl"); err != nil {
		return cfg, err
	}
	if cfg.ReadTimeout, err = cmd.Flags().GetDuration("read-timeout"); err != nil {
		return cfg, err
	}
	if cfg.IdleTimeout, err = cmd.Flags().GetDuration("idle-timeout"); err != nil {
		return cfg, err
	}
	noAuto, err := cmd.Flags().GetBool("no-auto-refresh")
	if err != nil {
		return cfg, err
	}
	cfg.AutoRefresh = !noAuto

	if envPort := os.Getenv("HTTP_PORT"); envPort != "" && !cmd.Flags().Changed("port") {
		if cfg.Port, err = parsePort(envPort); err != nil {
			return cfg, err
		}
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" && !cmd.Flags().Changed("host") {
		cfg.Host = envHost
	}
	return cfg, nil
}

func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// startWithGracefulShutdown serves until the command context is cancelled.
func startWithGracefulShutdown(cmd *cobra.Command, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	out := cmd.OutOrStdout()
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		_, _ = fmt.Fprintf(out, "%s pricing API listening on %s\n", emoji.Success, httpServer.Addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	ctx := cmd.Context()
	select {
	case err := <-serverErr:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
		_, _ = fmt.Fprintf(out, "\n%s Shutting down pricing API...\n", emoji.Stop)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		// Event streams only end when the background services stop, so they
		// go first; otherwise the HTTP shutdown waits on open SSE clients.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}
