package fares

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/farescout/config"
	"github.com/use-agent/farescout/drift"
	"github.com/use-agent/farescout/extractor"
	"github.com/use-agent/farescout/models"
	"github.com/use-agent/farescout/navigator"
)

func listing(flight, leave, arrive, business, anytime, getAway string) string {
	return `<li><div class="flight-numbers--flight-number"><span class="actionable--text"># ` + flight + `</span></div>` +
		`<div class="air-operations-time-status">` + leave + `</div>` +
		`<div class="air-operations-time-status">` + arrive + `</div>` +
		`<button class="fare-button--button" aria-label="Business Select, ` + business + `">` + business + `</button>` +
		`<button class="fare-button--button" aria-label="Anytime, ` + anytime + `">` + anytime + `</button>` +
		`<button class="fare-button--button" aria-label="Wanna Get Away, ` + getAway + `">` + getAway + `</button></li>`
}

func page(outbound, inbound string) string {
	return `<body>` +
		`<div id="air-booking-fares-0-1"><div class="fare-button fare-button_primary-yellow select-detail--fare"><button>Select</button></div></div>` +
		`<div id="air-booking-product-0"><div><span><ul>` + outbound + `</ul></span></div></div>` +
		`<div id="air-booking-product-1"><div><span><ul>` + inbound + `</ul></span></div></div>` +
		`</body>`
}

var (
	cashPage = page(
		listing("2100", "6:05AM", "7:10AM", "$450,12000 pts", "$320,8000 pts", "$180,4000 pts")+
			listing("88", "1:30PM", "2:35PM", "$470,12500 pts", "$340,8500 pts", "$120,2600 pts"),
		listing("915", "9:00AM", "12:05PM", "$460,12200 pts", "$330,8200 pts", "$150,3300 pts"),
	)
	pointsPage = page(
		listing("2100", "6:05AM", "7:10AM", "13500 Points", "9600 Points", "5400 Points")+
			listing("88", "1:30PM", "2:35PM", "14100 Points", "10200 Points", "3600 Points"),
		listing("915", "9:00AM", "12:05PM", "13800 Points", "9900 Points", "4500 Points"),
	)
)

// fakeSession serves the cash or points page depending on the last URL.
type fakeSession struct {
	urls   []string
	never  bool
	cash   string
	points string
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.urls = append(f.urls, url)
	return nil
}

func (f *fakeSession) WaitElement(ctx context.Context, _ string) error {
	if f.never {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeSession) HTML(_ context.Context, _ string) (string, error) {
	if strings.Contains(f.urls[len(f.urls)-1], "fareType=POINTS") {
		return f.points, nil
	}
	return f.cash, nil
}

func newService(t *testing.T, sess navigator.Session, diag *bytes.Buffer) *Service {
	t.Helper()
	nav := navigator.New(sess, config.NavigatorConfig{
		Endpoint:    "https://booking.test/select.html",
		WaitTimeout: 10 * time.Millisecond,
		MaxAttempts: 3,
	}, navigator.WithDiagnostics(diag))
	ext, err := extractor.New(nil)
	if err != nil {
		t.Fatalf("extractor.New: %v", err)
	}
	return NewService(nav, ext, drift.Detector{Threshold: 12})
}

func query() models.TripQuery {
	return models.NewTripQuery("AUS", "DEN",
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC))
}

func TestGetRoundTrip_EndToEnd(t *testing.T) {
	sess := &fakeSession{cash: cashPage, points: pointsPage}
	var diag bytes.Buffer
	svc := newService(t, sess, &diag)

	rt, err := svc.GetRoundTrip(context.Background(), query())
	if err != nil {
		t.Fatalf("GetRoundTrip: %v", err)
	}

	if len(sess.urls) != 2 {
		t.Fatalf("page loads = %d, want 2", len(sess.urls))
	}
	if !strings.Contains(sess.urls[0], "fareType=USD") || !strings.Contains(sess.urls[1], "fareType=POINTS") {
		t.Errorf("expected cash then points loads, got %v", sess.urls)
	}

	if len(rt.Outbound) != 2 || len(rt.Return) != 1 {
		t.Fatalf("outbound=%d return=%d, want 2 and 1", len(rt.Outbound), len(rt.Return))
	}
	for _, r := range rt.Outbound {
		if r.Src != "AUS" || r.Dst != "DEN" {
			t.Errorf("outbound %s src/dst = %s/%s", r.Flight, r.Src, r.Dst)
		}
		if r.Leave.Day() != 1 {
			t.Errorf("outbound %s should leave on the outbound date, got %v", r.Flight, r.Leave)
		}
	}
	for _, r := range rt.Return {
		if r.Src != "DEN" || r.Dst != "AUS" {
			t.Errorf("return %s src/dst = %s/%s", r.Flight, r.Src, r.Dst)
		}
		if r.Leave.Day() != 8 {
			t.Errorf("return %s should leave on the return date, got %v", r.Flight, r.Leave)
		}
	}

	for _, r := range append(append([]*models.FlightRecord{}, rt.Outbound...), rt.Return...) {
		for _, c := range models.FareClasses {
			if _, ok := r.Fares[c]; !ok {
				t.Errorf("flight %s missing fare class %s", r.Flight, c)
			}
		}
	}

	econ := rt.Outbound[1].Fares[models.FareEconomy]
	if econ.Points == nil || *econ.Points != 3600 {
		t.Fatalf("flight 88 economy pts = %v, want 3600", econ.Points)
	}
	if want := 3600.0 / 120.0; *econ.PricePerPoint != want {
		t.Errorf("flight 88 economy ppd = %v, want %v", *econ.PricePerPoint, want)
	}
	if diag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %q", diag.String())
	}

	if st := svc.Stats(); st.Busy || st.Searches != 1 {
		t.Errorf("Stats = %+v, want idle with 1 search", st)
	}
}

func TestGetRoundTrip_PageLoadTimeout(t *testing.T) {
	sess := &fakeSession{never: true}
	var diag bytes.Buffer
	svc := newService(t, sess, &diag)

	_, err := svc.GetRoundTrip(context.Background(), query())
	if code := models.ErrorCode(err); code != models.ErrCodePageLoadTimeout {
		t.Fatalf("error code = %q, want %q", code, models.ErrCodePageLoadTimeout)
	}
	if len(sess.urls) != 3 {
		t.Errorf("navigations = %d, want 3 attempts of the cash page", len(sess.urls))
	}
	if n := strings.Count(diag.String(), "\n"); n != 1 {
		t.Errorf("diagnostic lines = %d, want 1", n)
	}
	if !strings.Contains(diag.String(), sess.urls[0]) {
		t.Errorf("diagnostic %q does not name %s", diag.String(), sess.urls[0])
	}
}

func TestGetRoundTrip_ExtractionFailureAborts(t *testing.T) {
	broken := strings.Replace(cashPage, "$340,8500 pts", "sold out", 2)
	sess := &fakeSession{cash: broken, points: pointsPage}
	svc := newService(t, sess, &bytes.Buffer{})

	rt, err := svc.GetRoundTrip(context.Background(), query())
	if code := models.ErrorCode(err); code != models.ErrCodeExtraction {
		t.Fatalf("error code = %q, want %q", code, models.ErrCodeExtraction)
	}
	if rt != nil {
		t.Error("no partial result expected")
	}
	if len(sess.urls) != 1 {
		t.Errorf("points page should not load after a cash extraction failure, loads = %d", len(sess.urls))
	}
}

func TestGetRoundTrip_InvalidQuery(t *testing.T) {
	sess := &fakeSession{cash: cashPage, points: pointsPage}
	svc := newService(t, sess, &bytes.Buffer{})

	q := query()
	q.Return = q.Outbound.AddDate(0, 0, -1)
	_, err := svc.GetRoundTrip(context.Background(), q)
	if code := models.ErrorCode(err); code != models.ErrCodeInvalidInput {
		t.Errorf("error code = %q, want %q", code, models.ErrCodeInvalidInput)
	}
	if len(sess.urls) != 0 {
		t.Error("invalid queries must not touch the browser")
	}
}

func TestGetRoundTrip_DriftHook(t *testing.T) {
	redesigned := `<body><section class="results"><table>` +
		`<tr class="row"><td class="flight">2100</td><td class="price">5400</td></tr>` +
		`</table></section>` + pointsPage[len("<body>"):]
	sess := &fakeSession{cash: cashPage, points: redesigned}

	nav := navigator.New(sess, config.NavigatorConfig{Endpoint: "https://booking.test/select.html"},
		navigator.WithDiagnostics(&bytes.Buffer{}))
	ext, err := extractor.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	var fired []drift.Report
	svc := NewService(nav, ext, drift.Detector{Threshold: -1}, WithDriftHook(func(q models.TripQuery, r drift.Report) {
		if q.Origin != "AUS" {
			t.Errorf("hook query origin = %s", q.Origin)
		}
		fired = append(fired, r)
	}))

	if _, err := svc.GetRoundTrip(context.Background(), query()); err != nil {
		t.Fatalf("GetRoundTrip: %v", err)
	}
	if len(fired) != 1 || !fired[0].Drifted {
		t.Errorf("drift hook calls = %+v, want one drifted report", fired)
	}
}
