package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farescout/models"
)

type stubStats models.SessionStats

func (s stubStats) Stats() models.SessionStats { return models.SessionStats(s) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name  string
		stats stubStats
		want  string
	}{
		{"idle", stubStats{Searches: 4}, "healthy"},
		{"searching", stubStats{Busy: true, Searches: 5}, "busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", Health(tt.stats, time.Now().Add(-time.Minute)))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}

			var resp models.HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.want {
				t.Errorf("Status = %q, want %q", resp.Status, tt.want)
			}
			if resp.Session.Searches != tt.stats.Searches || resp.Version != Version {
				t.Errorf("unexpected body %+v", resp)
			}
		})
	}
}
