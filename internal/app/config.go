package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds everything an App instance needs to answer one query.
type Config struct {
	RecipePath  string // hcl recipe document
	MappingPath string // hcl mapping document
	CubePath    string // yaml layout or sqlite database

	OutputPath string // result json, empty means stdout

	LogFormat string
	LogLevel  string

	// Spatial extent.
	Bounds     [4]float64 // xmin, ymin, xmax, ymax
	CRS        int
	Resolution [2]float64 // dy, dx

	// Temporal extent.
	Start time.Time
	End   time.Time
	TZ    string
	Step  time.Duration

	Workers    int
	TrackTypes bool
}

// NewConfig validates a Config and fills its defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RecipePath == "" {
		return nil, errors.New("a recipe document is required")
	}
	if cfg.MappingPath == "" {
		return nil, errors.New("a mapping document is required")
	}
	if cfg.CubePath == "" {
		return nil, errors.New("a datacube source is required")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}

// ParseBounds reads a "xmin,ymin,xmax,ymax" flag value.
func ParseBounds(s string) ([4]float64, error) {
	var out [4]float64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return out, fmt.Errorf("bounds need four comma-separated numbers, got %q", s)
	}
	for i, part := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%g", &out[i]); err != nil {
			return out, fmt.Errorf("invalid bound %q", part)
		}
	}
	return out, nil
}

// ParseResolution reads a "dy,dx" flag value.
func ParseResolution(s string) ([2]float64, error) {
	var out [2]float64
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return out, fmt.Errorf("resolution needs two comma-separated numbers, got %q", s)
	}
	for i, part := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%g", &out[i]); err != nil {
			return out, fmt.Errorf("invalid resolution %q", part)
		}
	}
	return out, nil
}

// ParseStep reads a temporal step flag value.
func ParseStep(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid step %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("step must be positive, got %q", s)
	}
	return d, nil
}

// ParseInstant reads a flag value as RFC3339 or a bare date.
func ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
