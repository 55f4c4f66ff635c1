package models

import (
	"fmt"
	"strings"
	"time"
)

// Sensor is one configured soil probe as supplied by the config provider.
type Sensor struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Sample is a single stored moisture reading. Timestamp is unix seconds
// assigned by the server at ingest; any device-supplied timestamp is
// informational only and never stored.
type Sample struct {
	Timestamp int64   `json:"ts"`
	Percent   float64 `json:"percent"`
	Raw       *int    `json:"raw,omitempty"`
}

// NewSample creates a sample stamped with the current server time.
func NewSample(percent float64, raw *int) Sample {
	return Sample{
		Timestamp: time.Now().Unix(),
		Percent:   percent,
		Raw:       raw,
	}
}

// NormalizeSensorID canonicalizes a sensor id the way it is keyed in the
// store: trimmed and uppercased.
func NormalizeSensorID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidPercent reports whether p is within the accepted ingest range.
func ValidPercent(p float64) bool {
	return p >= 0.0 && p <= 100.0
}

func (s Sample) String() string {
	return fmt.Sprintf("Sample{ts: %d, percent: %.1f%%}", s.Timestamp, s.Percent)
}
