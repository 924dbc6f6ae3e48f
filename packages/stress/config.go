// Package stress samples the latency and error mix of a comments service
// endpoint by sending paced requests through the request executor.
package stress

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for a probe run
type Config struct {
	Method      string
	URL         string
	Payload     map[string]any
	Count       int     // total requests to send
	Rate        float64 // requests per second, 0 for unpaced
	Concurrency int     // max requests in flight
	Thresholds  Thresholds
}

// Thresholds defines pass/fail criteria for a probe run
type Thresholds struct {
	P95       time.Duration
	P99       time.Duration
	ErrorRate float64 // maximum error rate (0.0 - 1.0)
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Method:      http.MethodGet,
		Count:       10,
		Rate:        5,
		Concurrency: 4,
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate cannot be negative")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	return nil
}

// HasThresholds reports whether any threshold is set
func (t Thresholds) HasThresholds() bool {
	return t.P95 > 0 || t.P99 > 0 || t.ErrorRate > 0
}

// ParseThresholds parses a threshold string like "p95<200ms,errors<1%"
func ParseThresholds(s string) (Thresholds, error) {
	var t Thresholds

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, ok := strings.Cut(part, "<")
		if !ok {
			return t, fmt.Errorf("invalid threshold %q: expected name<value", part)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		switch name {
		case "p95", "p99":
			d, err := time.ParseDuration(value)
			if err != nil {
				return t, fmt.Errorf("invalid %s threshold: %w", name, err)
			}
			if name == "p95" {
				t.P95 = d
			} else {
				t.P99 = d
			}
		case "errors", "error_rate":
			rate, err := parseRate(value)
			if err != nil {
				return t, fmt.Errorf("invalid %s threshold: %w", name, err)
			}
			t.ErrorRate = rate
		default:
			return t, fmt.Errorf("unknown threshold %q", name)
		}
	}

	return t, nil
}

func parseRate(s string) (float64, error) {
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		f, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 0, err
		}
		return f / 100, nil
	}
	return strconv.ParseFloat(s, 64)
}
