package extractor

import (
	"fmt"
	"regexp"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/farescout/models"
)

// ClassRule classifies a fare control: a label containing Match belongs to Class.
type ClassRule struct {
	Match string
	Class models.FareClass
}

// Layout is everything the extractor knows about the booking page markup.
// When the site changes, update the table; the extraction code stays put.
type Layout struct {
	// ReadySelector matches the fare button whose presence means the
	// fare list has rendered.
	ReadySelector string

	// OutboundItems and ReturnItems match one list item per flight in the
	// outbound and return product regions.
	OutboundItems string
	ReturnItems   string

	FlightNumber  string // element whose text holds the flight number
	TimeStatus    string // departure is the first match, arrival the second
	FareButton    string // one per fare class offered
	FareLabelAttr string // accessible label carrying price and earn

	// FlightTag prefixes the flight number in a listing's visible text.
	FlightTag string

	FlightPattern *regexp.Regexp // first match is the flight number
	TimePattern   *regexp.Regexp // time-of-day token, e.g. "6:05AM"
	CashPattern   *regexp.Regexp // groups: price, earn
	PointsPattern *regexp.Regexp // group: points

	// TimeLayout parses "<flight date> <time token>".
	TimeLayout string

	// Classes are applied in order; every rule whose Match appears in a
	// label is applied.
	Classes []ClassRule
}

// DefaultLayout returns the layout of the Southwest booking select page.
func DefaultLayout() *Layout {
	return &Layout{
		ReadySelector: `#air-booking-fares-0-1 > div.fare-button.fare-button_primary-yellow.select-detail--fare > button`,
		OutboundItems: `#air-booking-product-0 div span ul li`,
		ReturnItems:   `#air-booking-product-1 div span ul li`,
		FlightNumber:  `.flight-numbers--flight-number .actionable--text`,
		TimeStatus:    `.air-operations-time-status`,
		FareButton:    `.fare-button--button`,
		FareLabelAttr: "aria-label",
		FlightTag:     "# ",

		FlightPattern: regexp.MustCompile(`[0-9]{1,4}`),
		TimePattern:   regexp.MustCompile(`\d{1,2}:\d{1,2}[AP]M`),
		CashPattern:   regexp.MustCompile(`\$([0-9]{0,4}),[a-zA-Z\s]*([0-9]{1,5})`),
		PointsPattern: regexp.MustCompile(`([0-9]{1,6}) Points`),

		TimeLayout: "Jan 02 2006 3:04PM",

		Classes: []ClassRule{
			{Match: "Business", Class: models.FareBusiness},
			{Match: "Anytime", Class: models.FareAnytime},
			{Match: "Get Away", Class: models.FareEconomy},
		},
	}
}

// Validate compiles every selector and checks the patterns are present.
func (l *Layout) Validate() error {
	selectors := map[string]string{
		"ReadySelector": l.ReadySelector,
		"OutboundItems": l.OutboundItems,
		"ReturnItems":   l.ReturnItems,
		"FlightNumber":  l.FlightNumber,
		"TimeStatus":    l.TimeStatus,
		"FareButton":    l.FareButton,
	}
	for name, sel := range selectors {
		if _, err := cascadia.Parse(sel); err != nil {
			return fmt.Errorf("layout: %s selector %q: %w", name, sel, err)
		}
	}

	patterns := map[string]*regexp.Regexp{
		"FlightPattern": l.FlightPattern,
		"TimePattern":   l.TimePattern,
		"CashPattern":   l.CashPattern,
		"PointsPattern": l.PointsPattern,
	}
	for name, re := range patterns {
		if re == nil {
			return fmt.Errorf("layout: %s is not set", name)
		}
	}
	if n := l.CashPattern.NumSubexp(); n < 2 {
		return fmt.Errorf("layout: CashPattern needs 2 groups, has %d", n)
	}
	if n := l.PointsPattern.NumSubexp(); n < 1 {
		return fmt.Errorf("layout: PointsPattern needs 1 group, has %d", n)
	}

	if l.FareLabelAttr == "" || l.TimeLayout == "" {
		return fmt.Errorf("layout: FareLabelAttr and TimeLayout are required")
	}
	if len(l.Classes) == 0 {
		return fmt.Errorf("layout: no fare class rules")
	}
	return nil
}
