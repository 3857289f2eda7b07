package navigator

import (
	"net/url"

	"github.com/use-agent/farescout/models"
)

// campaignTag is sent ahead of the search parameters, as the home page
// booking widget does.
const campaignTag = "int=HOMEQBOMAIR"

// BuildSearchURL returns the booking search URL for q. The result depends only
// on its inputs; q.Mode switches fareType between USD and POINTS.
func BuildSearchURL(endpoint string, q models.TripQuery) string {
	params := url.Values{
		"adultPassengersCount":   {"1"},
		"departureDate":          {q.Outbound.Format(models.DateLayout)},
		"departureTimeOfDay":     {"ALL_DAY"},
		"destinationAirportCode": {q.Destination},
		"fareType":               {q.Mode.FareType()},
		"originationAirportCode": {q.Origin},
		"passengerType":          {"ADULT"},
		"reset":                  {"true"},
		"returnDate":             {q.Return.Format(models.DateLayout)},
		"returnTimeOfDay":        {"ALL_DAY"},
		"seniorPassengersCount":  {"0"},
		"tripType":               {"roundtrip"},
	}
	// Encode sorts by key.
	return endpoint + "?" + campaignTag + "&" + params.Encode()
}
