package models

import "time"

// RoundTripRequest is the payload for POST /api/v1/roundtrip.
type RoundTripRequest struct {
	// Origin is the departure airport code, e.g. "AUS". Required.
	Origin string `json:"origin" binding:"required,alpha,len=3"`

	// Destination is the arrival airport code, e.g. "DEN". Required.
	Destination string `json:"destination" binding:"required,alpha,len=3"`

	// DepartureDate is the outbound date in YYYY-MM-DD format. Required.
	DepartureDate string `json:"departure_date" binding:"required"`

	// ReturnDate is the inbound date in YYYY-MM-DD format. Required.
	ReturnDate string `json:"return_date" binding:"required"`

	// MaxAge enables the response cache. A cached result younger than
	// MaxAge milliseconds is returned without touching the browser.
	// Default: 0 (no caching).
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Query converts the request into a cash-mode TripQuery.
func (r *RoundTripRequest) Query() (TripQuery, error) {
	out, err := time.Parse(DateLayout, r.DepartureDate)
	if err != nil {
		return TripQuery{}, NewFareError(ErrCodeInvalidInput, "departure_date must be YYYY-MM-DD", err)
	}
	ret, err := time.Parse(DateLayout, r.ReturnDate)
	if err != nil {
		return TripQuery{}, NewFareError(ErrCodeInvalidInput, "return_date must be YYYY-MM-DD", err)
	}
	q := NewTripQuery(r.Origin, r.Destination, out, ret)
	if err := q.Validate(); err != nil {
		return TripQuery{}, err
	}
	return q, nil
}
