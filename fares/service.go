package fares

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/farescout/drift"
	"github.com/use-agent/farescout/extractor"
	"github.com/use-agent/farescout/metrics"
	"github.com/use-agent/farescout/models"
	"github.com/use-agent/farescout/navigator"
)

// Service runs round-trip searches against one browser session.
// Searches are serialised: the session has a single page.
type Service struct {
	nav   *navigator.Navigator
	ext   *extractor.Extractor
	drift drift.Detector

	onDrift DriftHook

	mu       sync.Mutex
	busy     atomic.Bool
	searches atomic.Int64
}

// DriftHook is called after a search whose cash and points pages differed in structure.
type DriftHook func(q models.TripQuery, r drift.Report)

// Option customises a Service.
type Option func(*Service)

// WithDriftHook registers fn to run on layout drift.
func WithDriftHook(fn DriftHook) Option {
	return func(s *Service) { s.onDrift = fn }
}

// NewService wires a navigator and extractor into a Service.
func NewService(nav *navigator.Navigator, ext *extractor.Extractor, detector drift.Detector, opts ...Option) *Service {
	s := &Service{nav: nav, ext: ext, drift: detector}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns a snapshot of the session state.
func (s *Service) Stats() models.SessionStats {
	return models.SessionStats{
		Busy:     s.busy.Load(),
		Searches: s.searches.Load(),
	}
}

// GetRoundTrip loads the cash-priced results for q, extracts the outbound and
// return listings, then loads the points-priced results and adds points and
// ratios to the same records.
//
// Any page-load or extraction failure aborts the whole search; there are no
// partial results.
func (s *Service) GetRoundTrip(ctx context.Context, q models.TripQuery) (*models.RoundTrip, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy.Store(true)
	defer s.busy.Store(false)
	s.searches.Add(1)

	start := time.Now()
	rt, err := s.getRoundTrip(ctx, q)
	metrics.RoundTripDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RoundTrips.WithLabelValues(models.ErrorCode(err)).Inc()
		slog.Error("round trip search failed",
			"origin", q.Origin,
			"destination", q.Destination,
			"error", err,
		)
		return nil, err
	}
	metrics.RoundTrips.WithLabelValues("ok").Inc()
	slog.Info("round trip search complete",
		"origin", q.Origin,
		"destination", q.Destination,
		"outbound", len(rt.Outbound),
		"return", len(rt.Return),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return rt, nil
}

func (s *Service) getRoundTrip(ctx context.Context, q models.TripQuery) (*models.RoundTrip, error) {
	layout := s.ext.Layout()

	// ── 1. Cash fares ───────────────────────────────────────────────
	cashURL := s.nav.SearchURL(q.WithMode(models.FareModeCash))
	slog.Info("fetching fares", "mode", models.FareModeCash, "url", cashURL)
	cashHTML, err := s.nav.Snapshot(ctx, cashURL, layout.ReadySelector)
	if err != nil {
		return nil, err
	}
	cashDoc, err := extractor.Parse(cashHTML)
	if err != nil {
		return nil, err
	}

	outbound, err := s.ext.ExtractDirection(cashDoc.Selection, layout.OutboundItems, q.Outbound, q.Origin, q.Destination)
	if err != nil {
		return nil, err
	}
	inbound, err := s.ext.ExtractDirection(cashDoc.Selection, layout.ReturnItems, q.Return, q.Destination, q.Origin)
	if err != nil {
		return nil, err
	}

	// ── 2. Points fares ─────────────────────────────────────────────
	pointsURL := s.nav.SearchURL(q.WithMode(models.FareModePoints))
	slog.Info("fetching fares", "mode", models.FareModePoints, "url", pointsURL)
	pointsHTML, err := s.nav.Snapshot(ctx, pointsURL, layout.ReadySelector)
	if err != nil {
		return nil, err
	}
	pointsDoc, err := extractor.Parse(pointsHTML)
	if err != nil {
		return nil, err
	}

	if err := s.ext.AugmentDirection(pointsDoc.Selection, layout.OutboundItems, outbound); err != nil {
		return nil, err
	}
	if err := s.ext.AugmentDirection(pointsDoc.Selection, layout.ReturnItems, inbound); err != nil {
		return nil, err
	}

	// ── 3. Layout drift (warning only) ──────────────────────────────
	if r := s.drift.Compare(cashHTML, pointsHTML); r.Drifted {
		metrics.LayoutDrift.Inc()
		slog.Warn("cash and points pages differ in structure",
			"distance", r.Distance,
			"threshold", s.drift.Threshold,
		)
		if s.onDrift != nil {
			s.onDrift(q, r)
		}
	}

	return &models.RoundTrip{Outbound: outbound, Return: inbound}, nil
}
