package probe

import (
	"math"
	"math/rand"
	"time"
)

// MoistureSource produces one soil-moisture reading per call. Percent is
// the calibrated value in [0,100]; raw is the underlying ADC count.
type MoistureSource interface {
	Read() (percent float64, raw int, err error)
	Close() error
}

// adcFullScale is the 12-bit ADC range of the capacitive probes.
const adcFullScale = 4095

// SyntheticSource emulates a planted bed slowly cycling between watered
// and dry, with measurement noise. Useful for demos and end-to-end tests
// when no field hardware is attached.
type SyntheticSource struct {
	offset float64
	start  time.Time
}

// NewSyntheticSource creates a synthetic source. Each source gets a
// random phase offset so multiple probes visibly diverge.
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{
		offset: rand.Float64() * 2 * math.Pi,
		start:  time.Now(),
	}
}

// Read returns the emulated moisture level at the current time.
func (s *SyntheticSource) Read() (float64, int, error) {
	elapsed := time.Since(s.start).Seconds()
	base := 55 + 18*math.Sin(elapsed/1800+s.offset)
	noise := (rand.Float64()*2 - 1) * 2
	percent := math.Max(0, math.Min(100, base+noise))
	raw := int(percent / 100 * adcFullScale)
	return percent, raw, nil
}

// Close is a no-op for the synthetic source.
func (s *SyntheticSource) Close() error {
	return nil
}
