package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/farescout/models"
)

// AugmentDirection runs AugmentWithPoints for every points-page item matched by
// itemsSelector under root, against the same set of records.
func (e *Extractor) AugmentDirection(root *goquery.Selection, itemsSelector string, records []*models.FlightRecord) error {
	var err error
	root.Find(itemsSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
		if err = e.AugmentWithPoints(item, records); err != nil {
			err = fmt.Errorf("points listing %d: %w", i, err)
			return false
		}
		return true
	})
	return err
}

// AugmentWithPoints fills points, price-per-point and earn-per-dollar on
// every record whose tagged flight number ("# 2100") appears in item's text.
// Records that do not appear are left untouched. Applying the same item
// twice yields the same values.
func (e *Extractor) AugmentWithPoints(item *goquery.Selection, records []*models.FlightRecord) error {
	l := e.layout
	raw := item.Text()

	for _, rec := range records {
		if !strings.Contains(raw, l.FlightTag+rec.Flight) {
			continue
		}

		var err error
		item.Find(l.FareButton).EachWithBreak(func(_ int, btn *goquery.Selection) bool {
			err = e.applyPoints(btn, rec)
			return err == nil
		})
		if err != nil {
			return fmt.Errorf("flight %s: %w", rec.Flight, err)
		}
	}
	return nil
}

func (e *Extractor) applyPoints(btn *goquery.Selection, rec *models.FlightRecord) error {
	l := e.layout

	m := l.PointsPattern.FindStringSubmatch(btn.Text())
	if m == nil {
		return structural("no points in fare control %q", strings.TrimSpace(btn.Text()))
	}
	pts, err := strconv.Atoi(m[1])
	if err != nil {
		return models.NewFareError(models.ErrCodeExtraction, "bad points value "+m[1], err)
	}

	label, ok := btn.Attr(l.FareLabelAttr)
	if !ok {
		return structural("fare control has no %s", l.FareLabelAttr)
	}

	for _, rule := range l.Classes {
		if !strings.Contains(label, rule.Match) {
			continue
		}
		q := rec.Fares[rule.Class]
		if q == nil {
			q = &models.FareQuote{}
			rec.Fares[rule.Class] = q
		}
		ppd, err := ratio(pts, q.Fare)
		if err != nil {
			return fmt.Errorf("%s price per point: %w", rule.Class, err)
		}
		if q.Earn == nil {
			return models.NewFareError(models.ErrCodeArithmetic, fmt.Sprintf("%s has no earn value", rule.Class), nil)
		}
		epd, err := ratio(*q.Earn, q.Fare)
		if err != nil {
			return fmt.Errorf("%s earn per dollar: %w", rule.Class, err)
		}
		q.Points = models.IntPtr(pts)
		q.PricePerPoint = models.FloatPtr(ppd)
		q.EarnPerDollar = models.FloatPtr(epd)
	}
	return nil
}

// ratio divides num by the cash fare, refusing nil and zero fares.
func ratio(num int, fare *int) (float64, error) {
	if fare == nil {
		return 0, models.NewFareError(models.ErrCodeArithmetic, "cash fare is missing", nil)
	}
	if *fare == 0 {
		return 0, models.NewFareError(models.ErrCodeArithmetic, "cash fare is zero", nil)
	}
	return float64(num) / float64(*fare), nil
}
