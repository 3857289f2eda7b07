package extractor

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/farescout/models"
)

// Extractor turns rendered booking page markup into flight records.
// It holds no state besides its layout and is safe for concurrent use.
type Extractor struct {
	layout *Layout
}

// New validates layout and returns an Extractor for it.
// A nil layout selects DefaultLayout.
func New(layout *Layout) (*Extractor, error) {
	if layout == nil {
		layout = DefaultLayout()
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{layout: layout}, nil
}

// Layout returns the layout the extractor was built with.
func (e *Extractor) Layout() *Layout {
	return e.layout
}

// Parse loads rendered HTML into a queryable document.
func Parse(rawHTML string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewFareError(models.ErrCodeExtraction, "failed to parse page HTML", err)
	}
	return doc, nil
}

// ExtractDirection runs ExtractFareBlock on every item matched by itemsSelector
// under root and stamps each record with src and dst. The first failing item
// aborts the whole pass.
func (e *Extractor) ExtractDirection(root *goquery.Selection, itemsSelector string, flightDate time.Time, src, dst string) ([]*models.FlightRecord, error) {
	items := root.Find(itemsSelector)
	records := make([]*models.FlightRecord, 0, items.Length())

	var err error
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		var rec *models.FlightRecord
		rec, err = e.ExtractFareBlock(item, flightDate)
		if err != nil {
			err = fmt.Errorf("listing %d: %w", i, err)
			return false
		}
		rec.Src, rec.Dst = src, dst
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ExtractFareBlock reads one flight listing: its flight number, departure and
// arrival times on flightDate, and the cash price and points earned for each
// fare class. Classes without a matching control keep nil quotes.
func (e *Extractor) ExtractFareBlock(item *goquery.Selection, flightDate time.Time) (*models.FlightRecord, error) {
	l := e.layout

	numberEl := item.Find(l.FlightNumber).First()
	if numberEl.Length() == 0 {
		return nil, structural("flight number element %q not found", l.FlightNumber)
	}
	flight := l.FlightPattern.FindString(numberEl.Text())
	if flight == "" {
		return nil, structural("no flight number in %q", strings.TrimSpace(numberEl.Text()))
	}

	status := item.Find(l.TimeStatus)
	if status.Length() < 2 {
		return nil, structural("flight %s: want 2 %q elements, found %d", flight, l.TimeStatus, status.Length())
	}
	leave, err := e.timeOn(flightDate, status.Eq(0).Text())
	if err != nil {
		return nil, fmt.Errorf("flight %s departure: %w", flight, err)
	}
	arrive, err := e.timeOn(flightDate, status.Eq(1).Text())
	if err != nil {
		return nil, fmt.Errorf("flight %s arrival: %w", flight, err)
	}

	rec := models.NewFlightRecord("", "")
	rec.Flight = flight
	rec.Leave = leave
	rec.Arrive = arrive

	seen := make(map[models.FareClass]bool, len(l.Classes))
	item.Find(l.FareButton).EachWithBreak(func(_ int, btn *goquery.Selection) bool {
		label, ok := btn.Attr(l.FareLabelAttr)
		if !ok {
			err = structural("flight %s: fare control has no %s", flight, l.FareLabelAttr)
			return false
		}
		for _, rule := range l.Classes {
			if !strings.Contains(label, rule.Match) {
				continue
			}
			fare, earn, perr := e.cashAndEarn(label)
			if perr != nil {
				err = fmt.Errorf("flight %s %s: %w", flight, rule.Class, perr)
				return false
			}
			q := rec.Fares[rule.Class]
			q.Fare = models.IntPtr(fare)
			q.Earn = models.IntPtr(earn)
			seen[rule.Class] = true
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	for _, rule := range l.Classes {
		if !seen[rule.Class] {
			slog.Debug("fare class not offered", "flight", flight, "class", rule.Class)
		}
	}
	return rec, nil
}

// timeOn combines flightDate with the first time-of-day token in text.
func (e *Extractor) timeOn(flightDate time.Time, text string) (time.Time, error) {
	token := e.layout.TimePattern.FindString(strings.ReplaceAll(text, "\n", ""))
	if token == "" {
		return time.Time{}, structural("no time of day in %q", strings.TrimSpace(text))
	}
	t, err := time.ParseInLocation(e.layout.TimeLayout, flightDate.Format("Jan 02 2006 ")+token, flightDate.Location())
	if err != nil {
		return time.Time{}, models.NewFareError(models.ErrCodeExtraction, "bad time of day "+token, err)
	}
	return t, nil
}

func (e *Extractor) cashAndEarn(label string) (int, int, error) {
	m := e.layout.CashPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, structural("no price in label %q", label)
	}
	fare, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, models.NewFareError(models.ErrCodeExtraction, "bad price in label "+strconv.Quote(label), err)
	}
	earn, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, models.NewFareError(models.ErrCodeExtraction, "bad earn in label "+strconv.Quote(label), err)
	}
	return fare, earn, nil
}

func structural(format string, args ...any) *models.FareError {
	return models.NewFareError(models.ErrCodeExtraction, fmt.Sprintf(format, args...), nil)
}
