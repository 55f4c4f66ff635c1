// Package series holds the pure time-series computations of the hub:
// freshness classification, minute-bucket history reconstruction and the
// simulated signal generator. Everything here operates on snapshots and
// plain values; no locking, no I/O.
package series

import "github.com/afroash/plantlab/internal/models"

// OfflineAfterS is the staleness threshold in seconds. A sensor whose
// newest sample is older than this is reported offline. Rule of thumb:
// ~3x the expected probe posting interval.
const OfflineAfterS int64 = 180

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Presence classifies one sensor's freshness at a given instant.
// Percent is nil when offline: a stale numeric value must not be shown
// as current.
type Presence struct {
	Status     string
	Percent    *float64
	LastSeen   *int64
	AgeSeconds *int64
}

// Evaluate classifies a sensor from its newest sample, if any. The
// threshold boundary is inclusive: age == OfflineAfterS is still online.
func Evaluate(last *models.Sample, now int64) Presence {
	if last == nil {
		return Presence{Status: StatusOffline}
	}

	age := now - last.Timestamp
	seen := last.Timestamp
	p := Presence{
		Status:     StatusOffline,
		LastSeen:   &seen,
		AgeSeconds: &age,
	}
	if age <= OfflineAfterS {
		p.Status = StatusOnline
		v := Round1(last.Percent)
		p.Percent = &v
	}
	return p
}
