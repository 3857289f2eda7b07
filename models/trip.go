package models

import (
	"strings"
	"time"
)

// DateLayout is the wire format for trip dates, e.g. "2024-03-01".
const DateLayout = "2006-01-02"

// FareMode selects the currency in which the booking page prices fares.
type FareMode string

const (
	FareModeCash   FareMode = "cash"
	FareModePoints FareMode = "points"
)

// FareType returns the value of the booking page's fareType parameter.
func (m FareMode) FareType() string {
	if m == FareModePoints {
		return "POINTS"
	}
	return "USD"
}

// TripQuery describes one round-trip search. It is a value type; use
// WithMode to derive the points-mode variant.
type TripQuery struct {
	Origin      string
	Destination string
	Outbound    time.Time
	Return      time.Time
	Mode        FareMode
}

// NewTripQuery builds a cash-mode query with upper-cased airport codes.
func NewTripQuery(origin, destination string, outbound, ret time.Time) TripQuery {
	return TripQuery{
		Origin:      strings.ToUpper(strings.TrimSpace(origin)),
		Destination: strings.ToUpper(strings.TrimSpace(destination)),
		Outbound:    outbound,
		Return:      ret,
		Mode:        FareModeCash,
	}
}

// WithMode returns a copy of q priced in mode m.
func (q TripQuery) WithMode(m FareMode) TripQuery {
	q.Mode = m
	return q
}

// Validate reports malformed queries as INVALID_INPUT errors.
func (q TripQuery) Validate() error {
	switch {
	case q.Origin == "" || q.Destination == "":
		return NewFareError(ErrCodeInvalidInput, "origin and destination airport codes are required", nil)
	case q.Origin == q.Destination:
		return NewFareError(ErrCodeInvalidInput, "origin and destination must differ", nil)
	case q.Outbound.IsZero() || q.Return.IsZero():
		return NewFareError(ErrCodeInvalidInput, "outbound and return dates are required", nil)
	case q.Return.Before(q.Outbound):
		return NewFareError(ErrCodeInvalidInput, "return date is before outbound date", nil)
	}
	return nil
}

// FareClass names one of the three fare products shown per flight.
type FareClass string

const (
	FareBusiness FareClass = "Business"
	FareAnytime  FareClass = "Anytime"
	FareEconomy  FareClass = "Economy" // "Get Away" on the booking page
)

// FareClasses lists every fare class in display order.
var FareClasses = []FareClass{FareBusiness, FareAnytime, FareEconomy}

// FareQuote holds the prices of one fare class. Nil fields were not found on
// the page. The cash pass fills Fare/Earn; the points pass fills the rest.
type FareQuote struct {
	Fare          *int     `json:"fare"`
	Earn          *int     `json:"earn"`
	Points        *int     `json:"pts"`
	PricePerPoint *float64 `json:"ppd"`
	EarnPerDollar *float64 `json:"epd"`
}

// FlightRecord is one flight listing for a single direction of the trip.
type FlightRecord struct {
	Flight string                   `json:"flight"`
	Leave  time.Time                `json:"leave"`
	Arrive time.Time                `json:"arrive"`
	Src    string                   `json:"src"`
	Dst    string                   `json:"dst"`
	Fares  map[FareClass]*FareQuote `json:"fares"`
}

// NewFlightRecord returns a record with an empty quote for every fare class.
func NewFlightRecord(src, dst string) *FlightRecord {
	fares := make(map[FareClass]*FareQuote, len(FareClasses))
	for _, c := range FareClasses {
		fares[c] = &FareQuote{}
	}
	return &FlightRecord{Src: src, Dst: dst, Fares: fares}
}

// RoundTrip is the result of one round-trip search.
type RoundTrip struct {
	Outbound []*FlightRecord `json:"outbound"`
	Return   []*FlightRecord `json:"return"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
