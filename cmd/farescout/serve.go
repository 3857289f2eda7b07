package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/farescout/api"
	"github.com/use-agent/farescout/cache"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API on top of one shared browser session.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogger(cfg.Log, os.Stdout)
		slog.Info("farescout starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"mode", cfg.Server.Mode,
			"endpoint", cfg.Navigator.Endpoint,
		)

		// ── 1. Browser session + search pipeline ────────────────────
		svc, closeBrowser, err := newService(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialise browser session: %w", err)
		}
		defer closeBrowser()

		// ── 2. Cache ────────────────────────────────────────────────
		cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		defer cc.Close()

		// ── 3. Router + server ──────────────────────────────────────
		router := api.NewRouter(svc, cfg, cc, time.Now())
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// ── 4. Graceful shutdown ────────────────────────────────────
		select {
		case err := <-errCh:
			return fmt.Errorf("HTTP server error: %w", err)
		case <-cmd.Context().Done():
			slog.Info("shutdown signal received")
		}

		// A search in flight can hold the session for a full retry cycle.
		shutdownTimeout := cfg.Navigator.WaitTimeout*time.Duration(cfg.Navigator.MaxAttempts) + 5*time.Second
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		slog.Info("farescout stopped")
		return nil
	},
}
