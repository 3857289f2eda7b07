package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/farescout/api/handler"
	"github.com/use-agent/farescout/config"
	"github.com/use-agent/farescout/drift"
	"github.com/use-agent/farescout/extractor"
	"github.com/use-agent/farescout/fares"
	"github.com/use-agent/farescout/models"
	"github.com/use-agent/farescout/navigator"
	"github.com/use-agent/farescout/webhook"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "farescout",
	Short:         "farescout collects round-trip cash and points fares from the Southwest booking site.",
	Version:       handler.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newService launches (or attaches to) Chrome and wires the fare search
// pipeline on top of it. The returned func releases the browser.
func newService(cfg *config.Config) (*fares.Service, func(), error) {
	ext, err := extractor.New(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid page layout: %w", err)
	}

	session, err := navigator.NewRodSession(cfg.Browser)
	if err != nil {
		return nil, nil, err
	}
	nav := navigator.New(session, cfg.Navigator)

	var opts []fares.Option
	if cfg.Drift.WebhookURL != "" {
		opts = append(opts, fares.WithDriftHook(driftNotifier(webhook.New(cfg.Drift.WebhookURL, cfg.Drift.WebhookSecret))))
	}
	svc := fares.NewService(nav, ext, drift.Detector{Threshold: cfg.Drift.Threshold}, opts...)
	return svc, session.Close, nil
}

// driftNotifier posts a "layout.drift" event for every drifted search.
func driftNotifier(n *webhook.Notifier) fares.DriftHook {
	return func(q models.TripQuery, r drift.Report) {
		n.DeliverAsync(&webhook.Event{
			Type:      "layout.drift",
			Timestamp: time.Now().Unix(),
			Data: map[string]any{
				"origin":         q.Origin,
				"destination":    q.Destination,
				"departure_date": q.Outbound.Format(models.DateLayout),
				"return_date":    q.Return.Format(models.DateLayout),
				"distance":       r.Distance,
			},
		})
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(h))
}
