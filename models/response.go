package models

// RoundTripResponse is the response for POST /api/v1/roundtrip.
type RoundTripResponse struct {
	// Success indicates whether both page loads and extraction passes completed.
	Success bool `json:"success"`

	// Origin and Destination echo the normalised airport codes.
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`

	// Outbound lists flights from Origin to Destination on the departure date.
	Outbound []*FlightRecord `json:"outbound,omitempty"`

	// Return lists flights from Destination to Origin on the return date.
	Return []*FlightRecord `json:"return,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string       `json:"status"` // "healthy" or "busy"
	Uptime  string       `json:"uptime"`
	Session SessionStats `json:"session"`
	Version string       `json:"version"`
}

// SessionStats reports the state of the shared browser session.
type SessionStats struct {
	// Busy is true while a round-trip search holds the session.
	Busy bool `json:"busy"`

	// Searches is the number of round-trip searches started since launch.
	Searches int64 `json:"searches"`
}
