package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("FARESCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("FARESCOUT_API_KEY")

	s := server.NewMCPServer(
		"farescout",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	roundTripTool := mcp.NewTool("get_round_trip",
		mcp.WithDescription("Look up every Southwest flight for a round trip and return cash fares, points prices and value ratios for the Business, Anytime and Economy classes. A search drives a real browser and takes 10-60 seconds."),
		mcp.WithString("origin",
			mcp.Required(),
			mcp.Description("Departure airport code, e.g. AUS"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("Arrival airport code, e.g. DEN"),
		),
		mcp.WithString("departure_date",
			mcp.Required(),
			mcp.Description("Outbound date, YYYY-MM-DD"),
		),
		mcp.WithString("return_date",
			mcp.Required(),
			mcp.Description("Return date, YYYY-MM-DD"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached result up to this many milliseconds old (default 0, always search)"),
		),
	)

	s.AddTool(roundTripTool, handleRoundTrip(newClient(apiURL, apiKey)))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
