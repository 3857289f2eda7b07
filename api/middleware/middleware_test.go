package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farescout/config"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, headers map[string]string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.Use(Auth([]string{"alpha", "", "beta"}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(identityKey)) })

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "gamma"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "alpha"}, http.StatusOK},
		{"bearer key", map[string]string{"Authorization": "Bearer beta"}, http.StatusOK},
		{"basic auth", map[string]string{"Authorization": "Basic beta"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serve(r, tt.headers); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := gin.New()
	r.Use(Auth([]string{""}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	if got := serve(r, nil); got != http.StatusOK {
		t.Errorf("status = %d, want 200", got)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(Auth([]string{"alpha", "beta"}))
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	alpha := map[string]string{"X-API-Key": "alpha"}
	for i := 0; i < 2; i++ {
		if got := serve(r, alpha); got != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, got)
		}
	}
	if got := serve(r, alpha); got != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", got)
	}
	if got := serve(r, map[string]string{"X-API-Key": "beta"}); got != http.StatusOK {
		t.Errorf("other key should have its own bucket, status = %d", got)
	}
}

func TestLimiterSet_Sweep(t *testing.T) {
	s := newLimiterSet(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 0})
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	if !s.allow("a", now) {
		t.Fatal("burst below 1 should still admit one request")
	}
	s.allow("b", now.Add(2*time.Hour))
	s.sweep(now.Add(time.Hour))

	if _, ok := s.limiters["a"]; ok {
		t.Error("idle limiter should be swept")
	}
	if _, ok := s.limiters["b"]; !ok {
		t.Error("recent limiter should survive")
	}
}
