package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farescout/cache"
	"github.com/use-agent/farescout/models"
)

// Searcher runs a round-trip fare search.
type Searcher interface {
	GetRoundTrip(ctx context.Context, q models.TripQuery) (*models.RoundTrip, error)
}

// RoundTrip returns a handler for POST /api/v1/roundtrip.
//
// Flow:
//  1. Bind and validate the request, build the TripQuery.
//  2. Serve from cache when max_age allows.
//  3. Searcher.GetRoundTrip (cash page, then points page).
//  4. Fill timing, store in cache, return 200.
func RoundTrip(s Searcher, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.RoundTripRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewFareError(models.ErrCodeInvalidInput, err.Error(), err), totalStart)
			return
		}
		q, err := req.Query()
		if err != nil {
			respondError(c, err, totalStart)
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(q)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3. Search ───────────────────────────────────────────────
		rt, err := s.GetRoundTrip(c.Request.Context(), q)
		if err != nil {
			respondError(c, err, totalStart)
			return
		}

		resp := &models.RoundTripResponse{
			Success:     true,
			Origin:      q.Origin,
			Destination: q.Destination,
			Outbound:    rt.Outbound,
			Return:      rt.Return,
			Timing:      models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
		}

		// ── 4. Cache store ──────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, resp)
			out := *resp
			out.CacheStatus = "miss"
			c.JSON(http.StatusOK, out)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a FareError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, start time.Time) {
	var fareErr *models.FareError
	if !errors.As(err, &fareErr) {
		fareErr = models.NewFareError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(StatusFor(fareErr.Code), models.RoundTripResponse{
		Success: false,
		Error:   fareErr.ToDetail(),
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

// StatusFor translates an error code to an HTTP status code.
func StatusFor(code string) int {
	switch code {
	case models.ErrCodePageLoadTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeBrowserCrash:
		return http.StatusBadGateway // 502
	case models.ErrCodeExtraction, models.ErrCodeArithmetic:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
