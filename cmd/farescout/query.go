package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/use-agent/farescout/models"
)

var queryJSON *bool

func init() {
	queryJSON = queryCmd.Flags().Bool("json", false, "Print the result as JSON instead of tables.")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <origin> <destination> <departure YYYY-MM-DD> <return YYYY-MM-DD>",
	Short: "Runs one round-trip search and prints every flight with its fares.",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogger(cfg.Log, os.Stderr)

		req := models.RoundTripRequest{
			Origin:        args[0],
			Destination:   args[1],
			DepartureDate: args[2],
			ReturnDate:    args[3],
		}
		q, err := req.Query()
		if err != nil {
			return err
		}

		svc, closeBrowser, err := newService(cfg)
		if err != nil {
			return err
		}
		defer closeBrowser()

		rt, err := svc.GetRoundTrip(cmd.Context(), q)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if *queryJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rt)
		}
		renderDirection(out, fmt.Sprintf("%s → %s  %s", q.Origin, q.Destination, q.Outbound.Format(models.DateLayout)), rt.Outbound)
		renderDirection(out, fmt.Sprintf("%s → %s  %s", q.Destination, q.Origin, q.Return.Format(models.DateLayout)), rt.Return)
		return nil
	},
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// renderDirection prints one row per flight and fare class.
func renderDirection(w io.Writer, title string, records []*models.FlightRecord) {
	t := newTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Flight", "Leave", "Arrive", "Class", "Fare", "Earn", "Points", "PPD", "EPD"})
	for _, r := range records {
		for _, class := range models.FareClasses {
			q := r.Fares[class]
			if q == nil {
				q = &models.FareQuote{}
			}
			t.AppendRow(table.Row{
				r.Flight,
				r.Leave.Format(time.Kitchen),
				r.Arrive.Format(time.Kitchen),
				string(class),
				fmtInt(q.Fare),
				fmtInt(q.Earn),
				fmtInt(q.Points),
				fmtFloat(q.PricePerPoint),
				fmtFloat(q.EarnPerDollar),
			})
		}
		t.AppendSeparator()
	}
	t.Render()
}

func fmtInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
