package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// CityArgs defines arguments for the city utility tools.
type CityArgs struct {
	City string `json:"city" jsonschema:"The name of the city."`
}

// StatusResult is the standard output type for the utility tools.
type StatusResult struct {
	Status       string `json:"status"`
	Report       string `json:"report,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// cityTimezones maps supported cities to their IANA timezone names.
// New York only for now; extend as needed.
var cityTimezones = map[string]string{
	"new york": "America/New_York",
}

func getWeatherTool(ctx tool.Context, args CityArgs) (StatusResult, error) {
	slog.Info("fetching weather", "city", args.City, "invocation_id", ctx.InvocationID())

	if strings.ToLower(args.City) != "new york" {
		return StatusResult{
			Status:       "error",
			ErrorMessage: fmt.Sprintf("Weather information for '%s' is not available.", args.City),
		}, nil
	}
	return StatusResult{
		Status: "success",
		Report: "The weather in New York is sunny with a temperature of 25 degrees" +
			" Celsius (77 degrees Fahrenheit).",
	}, nil
}

func getCurrentTimeTool(ctx tool.Context, args CityArgs) (StatusResult, error) {
	slog.Info("fetching current time", "city", args.City, "invocation_id", ctx.InvocationID())

	tzName, ok := cityTimezones[strings.ToLower(args.City)]
	if !ok {
		return StatusResult{
			Status:       "error",
			ErrorMessage: fmt.Sprintf("Sorry, I don't have timezone information for %s.", args.City),
		}, nil
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return StatusResult{}, fmt.Errorf("loading timezone %s: %w", tzName, err)
	}
	now := time.Now().In(loc)
	return StatusResult{
		Status: "success",
		Report: fmt.Sprintf("The current time in %s is %s", args.City, now.Format("2006-01-02 15:04:05 MST")),
	}, nil
}

// utilityTools returns the weather and time tools.
func utilityTools() ([]tool.Tool, error) {
	weather, err := functiontool.New(functiontool.Config{
		Name:        "get_weather",
		Description: "Get the current weather report for a specified city.",
	}, getWeatherTool)
	if err != nil {
		return nil, fmt.Errorf("creating get_weather tool: %w", err)
	}
	currentTime, err := functiontool.New(functiontool.Config{
		Name:        "get_current_time",
		Description: "Get the current time in a specified city.",
	}, getCurrentTimeTool)
	if err != nil {
		return nil, fmt.Errorf("creating get_current_time tool: %w", err)
	}
	return []tool.Tool{weather, currentTime}, nil
}
