package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/farescout/models"
)

// Version is reported by the health endpoint and the CLI.
const Version = "0.1.0"

// StatsReporter exposes the state of the browser session.
type StatsReporter interface {
	Stats() models.SessionStats
}

// Health returns a handler for GET /api/v1/health.
//
// Reports "busy" while a search holds the session.
func Health(sr StatsReporter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sr.Stats()

		status := "healthy"
		if stats.Busy {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Session: stats,
			Version: Version,
		})
	}
}
