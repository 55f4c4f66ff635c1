package series

import (
	"math"

	"github.com/afroash/plantlab/internal/models"
)

// BucketSeconds is the width of one history bucket.
const BucketSeconds int64 = 60

// Window bounds for history requests, in minutes.
const (
	MinWindowMinutes = 10
	MaxWindowMinutes = 24 * 60
)

// ClampWindowMinutes bounds a requested history window.
func ClampWindowMinutes(minutes int) int {
	if minutes < MinWindowMinutes {
		return MinWindowMinutes
	}
	if minutes > MaxWindowMinutes {
		return MaxWindowMinutes
	}
	return minutes
}

// Round1 rounds to one decimal place, the precision of every value the
// hub reports. Exact .x5 ties round away from zero: 47.25 -> 47.3.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Row is one time bucket of a multi-sensor series: the "ts" key plus one
// column per sensor id, nil where a sensor had no data yet.
type Row map[string]any

// Point is one time bucket of a single-sensor series.
type Point struct {
	TS    int64    `json:"ts"`
	Value *float64 `json:"value"`
}

// LastAtOrBefore returns the percent of the newest sample with
// timestamp <= ts, scanning newest to oldest. The scan order makes the
// result well defined even if the buffer holds out-of-order or duplicate
// timestamps.
func LastAtOrBefore(samples []models.Sample, ts int64) (float64, bool) {
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].Timestamp <= ts {
			return samples[i].Percent, true
		}
	}
	return 0, false
}

// BucketSeries resamples every sensor's snapshot onto bucket boundaries
// over [start, end] inclusive, using last-observation-carried-forward:
// a bucket with no new arrivals repeats the prior known value, a bucket
// before a sensor's first sample is nil.
func BucketSeries(sensors []models.Sensor, snapshots map[string][]models.Sample, start, end int64) []Row {
	rows := make([]Row, 0, (end-start)/BucketSeconds+1)
	for ts := start; ts <= end; ts += BucketSeconds {
		row := Row{"ts": ts}
		for _, s := range sensors {
			if v, ok := LastAtOrBefore(snapshots[s.ID], ts); ok {
				row[s.ID] = Round1(v)
			} else {
				row[s.ID] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// BucketSeriesOne is the single-sensor variant of BucketSeries.
func BucketSeriesOne(samples []models.Sample, start, end int64) []Point {
	points := make([]Point, 0, (end-start)/BucketSeconds+1)
	for ts := start; ts <= end; ts += BucketSeconds {
		p := Point{TS: ts}
		if v, ok := LastAtOrBefore(samples, ts); ok {
			rounded := Round1(v)
			p.Value = &rounded
		}
		points = append(points, p)
	}
	return points
}
