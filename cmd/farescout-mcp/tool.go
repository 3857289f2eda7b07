package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/farescout/models"
)

// client calls the farescout HTTP API.
type client struct {
	apiURL string
	apiKey string
	http   *http.Client
}

func newClient(apiURL, apiKey string) *client {
	return &client{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		// Two pages, each up to three 20s attempts.
		http: &http.Client{Timeout: 150 * time.Second},
	}
}

func (c *client) roundTrip(ctx context.Context, req models.RoundTripRequest) (*models.RoundTripResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v1/roundtrip", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out models.RoundTripResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}

func handleRoundTrip(c *client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req models.RoundTripRequest
		var err error
		if req.Origin, err = request.RequireString("origin"); err != nil {
			return mcp.NewToolResultError("origin is required"), nil
		}
		if req.Destination, err = request.RequireString("destination"); err != nil {
			return mcp.NewToolResultError("destination is required"), nil
		}
		if req.DepartureDate, err = request.RequireString("departure_date"); err != nil {
			return mcp.NewToolResultError("departure_date is required"), nil
		}
		if req.ReturnDate, err = request.RequireString("return_date"); err != nil {
			return mcp.NewToolResultError("return_date is required"), nil
		}
		req.MaxAge = request.GetInt("max_age", 0)

		resp, err := c.roundTrip(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			errMsg := "round trip search failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(summarize(resp)), nil
	}
}

// summarize renders one line per flight and class, compact enough for a
// model's context window.
func summarize(resp *models.RoundTripResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round trip %s ⇄ %s", resp.Origin, resp.Destination)
	if resp.CacheStatus == "hit" {
		b.WriteString(" (cached)")
	}
	b.WriteString("\n")

	writeDirection(&b, "Outbound", resp.Outbound)
	writeDirection(&b, "Return", resp.Return)
	return b.String()
}

func writeDirection(b *strings.Builder, title string, records []*models.FlightRecord) {
	fmt.Fprintf(b, "\n## %s (%d flights)\n", title, len(records))
	for _, r := range records {
		fmt.Fprintf(b, "#%s %s %s→%s %s\n", r.Flight, r.Src, r.Leave.Format("2006-01-02 3:04PM"), r.Dst, r.Arrive.Format("3:04PM"))
		for _, class := range models.FareClasses {
			q := r.Fares[class]
			if q == nil || q.Fare == nil {
				fmt.Fprintf(b, "  %-8s unavailable\n", class)
				continue
			}
			fmt.Fprintf(b, "  %-8s $%d, earn %d", class, *q.Fare, deref(q.Earn))
			if q.Points != nil {
				fmt.Fprintf(b, ", %d pts", *q.Points)
			}
			if q.PricePerPoint != nil {
				fmt.Fprintf(b, ", ppd %.2f", *q.PricePerPoint)
			}
			if q.EarnPerDollar != nil {
				fmt.Fprintf(b, ", epd %.2f", *q.EarnPerDollar)
			}
			b.WriteString("\n")
		}
	}
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
