package navigator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/farescout/config"
	"github.com/use-agent/farescout/models"
	"github.com/ysmood/gson"
)

// RodSession is a Session backed by a single Chromium tab driven over CDP.
type RodSession struct {
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	launched bool
}

// NewRodSession launches a browser (or connects to cfg.ControlURL when set)
// and opens the tab every navigation will reuse.
func NewRodSession(cfg config.BrowserConfig) (*RodSession, error) {
	controlURL := cfg.ControlURL
	launched := false
	if controlURL == "" {
		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(cfg.NoSandbox)

		if cfg.BrowserBin != "" {
			l = l.Bin(cfg.BrowserBin)
		}
		if cfg.Proxy != "" {
			l = l.Proxy(cfg.Proxy)
		}

		l.Set(flags.Flag("disable-background-timer-throttling"))
		l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
		l.Set(flags.Flag("disable-renderer-backgrounding"))
		l.Set(flags.Flag("disable-component-update"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("no-first-run"))

		u, err := l.Launch()
		if err != nil {
			return nil, models.NewFareError(
				models.ErrCodeBrowserCrash,
				"failed to launch browser",
				err,
			)
		}
		slog.Info("browser launched", "controlURL", u)
		controlURL = u
		launched = true
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewFareError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, models.NewFareError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}

	if headers := parseHeaders(cfg.ExtraHeaders); len(headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(page); err != nil {
			slog.Warn("failed to set extra headers", "error", err)
		}
	}

	return &RodSession{
		browser:  browser,
		page:     page,
		router:   setupHijack(page, cfg.BlockedResourceTypes),
		launched: launched,
	}, nil
}

// Navigate points the tab at url.
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	return s.page.Context(ctx).Navigate(url)
}

// WaitElement relies on rod's Element, which polls until the selector
// matches or the context ends.
func (s *RodSession) WaitElement(ctx context.Context, selector string) error {
	_, err := s.page.Context(ctx).Element(selector)
	return err
}

// HTML returns the outer HTML of the first element matching selector.
func (s *RodSession) HTML(ctx context.Context, selector string) (string, error) {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return "", err
	}
	return el.HTML()
}

// Close stops request interception, closes the tab, and shuts down the
// browser if this session launched it.
func (s *RodSession) Close() {
	if s.router != nil {
		_ = s.router.Stop()
	}
	if err := s.page.Close(); err != nil {
		slog.Warn("failed to close page", "error", err)
	}
	if s.launched {
		s.browser.MustClose()
		slog.Info("browser closed")
	}
}

// parseHeaders converts "Name=Value" pairs to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func parseHeaders(pairs []string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		m[strings.TrimSpace(name)] = gson.New(strings.TrimSpace(value))
	}
	return m
}
