package models

import "time"

// ProbeInfo contains metadata about a probe agent
type ProbeInfo struct {
	ID        string    `json:"id"`
	Site      string    `json:"site"`
	Version   string    `json:"version"`
	StartTime time.Time `json:"start_time"`
}

// Uptime returns the duration since the probe agent started
func (p *ProbeInfo) Uptime() time.Duration {
	return time.Since(p.StartTime)
}

// NewProbeInfo creates a new ProbeInfo with the current time as start time
func NewProbeInfo(id, site, version string) *ProbeInfo {
	return &ProbeInfo{
		ID:        id,
		Site:      site,
		Version:   version,
		StartTime: time.Now(),
	}
}
