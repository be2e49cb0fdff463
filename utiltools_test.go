package main

import (
	"strings"
	"testing"
)

func TestGetWeather(t *testing.T) {
	tests := []struct {
		name       string
		city       string
		wantStatus string
		wantSub    string
	}{
		{name: "new york", city: "New York", wantStatus: "success", wantSub: "sunny"},
		{name: "case insensitive", city: "new YORK", wantStatus: "success", wantSub: "25 degrees"},
		{name: "unknown city", city: "Lagos", wantStatus: "error", wantSub: "'Lagos'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := getWeatherTool(newTestContext(), CityArgs{City: tt.city})
			if err != nil {
				t.Fatalf("getWeatherTool: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", result.Status, tt.wantStatus)
			}
			combined := result.Report + result.ErrorMessage
			if !strings.Contains(combined, tt.wantSub) {
				t.Errorf("output %q missing %q", combined, tt.wantSub)
			}
		})
	}
}

func TestGetCurrentTime(t *testing.T) {
	result, err := getCurrentTimeTool(newTestContext(), CityArgs{City: "New York"})
	if err != nil {
		t.Fatalf("getCurrentTimeTool: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("status = %q, want success: %+v", result.Status, result)
	}
	if !strings.Contains(result.Report, "The current time in New York is") {
		t.Errorf("report = %q", result.Report)
	}

	result, err = getCurrentTimeTool(newTestContext(), CityArgs{City: "Lagos"})
	if err != nil {
		t.Fatalf("getCurrentTimeTool: %v", err)
	}
	if result.Status != "error" || !strings.Contains(result.ErrorMessage, "Lagos") {
		t.Errorf("result = %+v, want timezone error for Lagos", result)
	}
}
