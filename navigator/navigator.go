package navigator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/use-agent/farescout/config"
	"github.com/use-agent/farescout/metrics"
	"github.com/use-agent/farescout/models"
)

// Session is the browser capability the navigator drives. Implementations
// hold a single page; calls are not expected to run concurrently.
type Session interface {
	// Navigate points the page at url.
	Navigate(ctx context.Context, url string) error

	// WaitElement blocks until an element matching selector is present or
	// ctx is done, in which case it returns ctx's error.
	WaitElement(ctx context.Context, selector string) error

	// HTML returns the rendered outer HTML of the first element matching selector.
	HTML(ctx context.Context, selector string) (string, error)
}

const (
	defaultWaitTimeout = 20 * time.Second
	defaultMaxAttempts = 3
)

// Navigator loads booking pages through a Session with a bounded retry loop.
type Navigator struct {
	session     Session
	endpoint    string
	waitTimeout time.Duration
	maxAttempts int
	diag        io.Writer
}

// Option customises a Navigator.
type Option func(*Navigator)

// WithDiagnostics redirects the page-load timeout report (default os.Stderr).
func WithDiagnostics(w io.Writer) Option {
	return func(n *Navigator) { n.diag = w }
}

// New creates a Navigator. Zero values in cfg fall back to 20s / 3 attempts.
func New(session Session, cfg config.NavigatorConfig, opts ...Option) *Navigator {
	n := &Navigator{
		session:     session,
		endpoint:    cfg.Endpoint,
		waitTimeout: cfg.WaitTimeout,
		maxAttempts: cfg.MaxAttempts,
		diag:        os.Stderr,
	}
	if n.waitTimeout <= 0 {
		n.waitTimeout = defaultWaitTimeout
	}
	if n.maxAttempts < 1 {
		n.maxAttempts = defaultMaxAttempts
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SearchURL builds the booking search URL for q on the configured endpoint.
func (n *Navigator) SearchURL(q models.TripQuery) string {
	return BuildSearchURL(n.endpoint, q)
}

// LoadPageWithRetry navigates to url and waits for waitSelector, making up
// to maxAttempts identical attempts. Only timeouts are retried; any other
// navigation failure, or cancellation of ctx, is returned at once.
//
// When every attempt times out, one line naming url is written to the
// diagnostics writer and a PAGE_LOAD_TIMEOUT error wrapping the last
// timeout is returned.
func (n *Navigator) LoadPageWithRetry(ctx context.Context, url, waitSelector string) error {
	var lastErr error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		metrics.PageLoadAttempts.Inc()

		attemptCtx, cancel := context.WithTimeout(ctx, n.waitTimeout)
		err := n.session.Navigate(attemptCtx, url)
		if err == nil {
			err = n.session.WaitElement(attemptCtx, waitSelector)
		}
		cancel()

		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return categorizeError(ctx.Err(), "page load canceled")
		case !errors.Is(err, context.DeadlineExceeded):
			return categorizeError(err, "navigation to booking page failed")
		}

		lastErr = err
		slog.Warn("page load attempt timed out",
			"url", url,
			"attempt", attempt,
			"maxAttempts", n.maxAttempts,
			"timeout", n.waitTimeout,
		)
	}

	metrics.PageLoadTimeouts.Inc()
	fmt.Fprintf(n.diag, "Timed out waiting for page to load: %s\n", url)
	return models.NewFareError(
		models.ErrCodePageLoadTimeout,
		fmt.Sprintf("fare button did not appear after %d attempts", n.maxAttempts),
		lastErr,
	)
}

// Snapshot loads url with retries and returns the rendered <body> markup.
func (n *Navigator) Snapshot(ctx context.Context, url, waitSelector string) (string, error) {
	if err := n.LoadPageWithRetry(ctx, url, waitSelector); err != nil {
		return "", err
	}
	body, err := n.session.HTML(ctx, "body")
	if err != nil {
		return "", categorizeError(err, "failed to read rendered page HTML")
	}
	return body, nil
}

// categorizeError wraps raw errors into typed FareErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.FareError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewFareError(models.ErrCodePageLoadTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewFareError(models.ErrCodePageLoadTimeout, "request canceled", err)
	default:
		return models.NewFareError(models.ErrCodeNavigation, msg, err)
	}
}
