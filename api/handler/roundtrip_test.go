package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farescout/cache"
	"github.com/use-agent/farescout/models"
)

type stubSearcher struct {
	calls int
	last  models.TripQuery
	rt    *models.RoundTrip
	err   error
}

func (s *stubSearcher) GetRoundTrip(_ context.Context, q models.TripQuery) (*models.RoundTrip, error) {
	s.calls++
	s.last = q
	return s.rt, s.err
}

func init() { gin.SetMode(gin.TestMode) }

func post(t *testing.T, h gin.HandlerFunc, body string) (*httptest.ResponseRecorder, models.RoundTripResponse) {
	t.Helper()
	r := gin.New()
	r.POST("/roundtrip", h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/roundtrip", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp models.RoundTripResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func sampleTrip() *models.RoundTrip {
	out := models.NewFlightRecord("AUS", "DEN")
	out.Flight = "2100"
	out.Fares[models.FareEconomy].Fare = models.IntPtr(180)
	back := models.NewFlightRecord("DEN", "AUS")
	back.Flight = "915"
	return &models.RoundTrip{
		Outbound: []*models.FlightRecord{out},
		Return:   []*models.FlightRecord{back},
	}
}

const validBody = `{"origin":"aus","destination":"DEN","departure_date":"2024-03-01","return_date":"2024-03-08"}`

func TestRoundTrip_OK(t *testing.T) {
	s := &stubSearcher{rt: sampleTrip()}
	w, resp := post(t, RoundTrip(s, nil), validBody)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !resp.Success || resp.Origin != "AUS" || resp.Destination != "DEN" {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(resp.Outbound) != 1 || resp.Outbound[0].Flight != "2100" {
		t.Errorf("outbound = %+v", resp.Outbound)
	}
	if got := s.last.Outbound.Format(models.DateLayout); got != "2024-03-01" {
		t.Errorf("query outbound = %s", got)
	}
	if resp.CacheStatus != "" {
		t.Errorf("CacheStatus = %q without max_age", resp.CacheStatus)
	}
	if !strings.Contains(w.Body.String(), `"pts":null`) {
		t.Errorf("missing points should serialise as null: %s", w.Body.String())
	}
}

func TestRoundTrip_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing destination", `{"origin":"AUS","departure_date":"2024-03-01","return_date":"2024-03-08"}`},
		{"long code", `{"origin":"AUST","destination":"DEN","departure_date":"2024-03-01","return_date":"2024-03-08"}`},
		{"bad date", `{"origin":"AUS","destination":"DEN","departure_date":"03/01/2024","return_date":"2024-03-08"}`},
		{"return before departure", `{"origin":"AUS","destination":"DEN","departure_date":"2024-03-08","return_date":"2024-03-01"}`},
		{"same airport", `{"origin":"AUS","destination":"aus","departure_date":"2024-03-01","return_date":"2024-03-08"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubSearcher{rt: sampleTrip()}
			w, resp := post(t, RoundTrip(s, nil), tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
				t.Errorf("error = %+v", resp.Error)
			}
			if s.calls != 0 {
				t.Error("searcher must not run on invalid input")
			}
		})
	}
}

func TestRoundTrip_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewFareError(models.ErrCodePageLoadTimeout, "timed out", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{models.NewFareError(models.ErrCodeNavigation, "nav", nil), http.StatusBadGateway},
		{fmt.Errorf("listing 2: %w", models.NewFareError(models.ErrCodeExtraction, "no price", nil)), http.StatusUnprocessableEntity},
		{models.NewFareError(models.ErrCodeArithmetic, "zero fare", nil), http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w, resp := post(t, RoundTrip(&stubSearcher{err: tt.err}, nil), validBody)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if resp.Success || resp.Error == nil {
				t.Fatalf("expected error response, got %+v", resp)
			}
			if resp.Error.Code != models.ErrorCode(tt.err) {
				t.Errorf("code = %s, want %s", resp.Error.Code, models.ErrorCode(tt.err))
			}
			if len(resp.Outbound) != 0 {
				t.Error("failed searches must not return partial results")
			}
		})
	}
}

func TestRoundTrip_Cache(t *testing.T) {
	cc := cache.New(10, time.Hour)
	defer cc.Close()
	s := &stubSearcher{rt: sampleTrip()}
	h := RoundTrip(s, cc)
	body := strings.Replace(validBody, "}", `,"max_age":60000}`, 1)

	_, first := post(t, h, body)
	if first.CacheStatus != "miss" {
		t.Errorf("first CacheStatus = %q, want miss", first.CacheStatus)
	}
	_, second := post(t, h, body)
	if second.CacheStatus != "hit" {
		t.Errorf("second CacheStatus = %q, want hit", second.CacheStatus)
	}
	if s.calls != 1 {
		t.Errorf("searcher calls = %d, want 1", s.calls)
	}

	post(t, h, validBody)
	if s.calls != 2 {
		t.Errorf("request without max_age should bypass the cache, calls = %d", s.calls)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		models.ErrCodeInvalidInput: http.StatusBadRequest,
		models.ErrCodeRateLimited:  http.StatusTooManyRequests,
		models.ErrCodeUnauthorized: http.StatusUnauthorized,
		models.ErrCodeBrowserCrash: http.StatusBadGateway,
		models.ErrCodeInternal:     http.StatusInternalServerError,
		"SOMETHING_NEW":            http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
