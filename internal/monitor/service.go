// Package monitor ties the config provider, the sample store and the
// series computations into the operations the HTTP and WebSocket layers
// expose: ingest, latest, and the three history variants.
//
// Every read decides between real and simulated data exactly once, via
// the store-wide has-data gate: as soon as any sensor has ever stored a
// real sample, all reads use real data only (sensors without samples
// report offline/empty, never simulated values).
package monitor

import (
	"fmt"
	"time"

	"github.com/afroash/plantlab/internal/config"
	"github.com/afroash/plantlab/internal/models"
	"github.com/afroash/plantlab/internal/series"
	"github.com/afroash/plantlab/internal/store"
	"github.com/rs/zerolog"
)

const maxRangeSeconds int64 = 31 * 24 * 3600

// Service owns the hub's in-memory state. Created once at process
// start; the store is reconciled against the current sensor config on
// every access, so config edits take effect without a restart.
type Service struct {
	provider config.Provider
	store    *store.SampleStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates the service around an existing store and provider.
func NewService(provider config.Provider, st *store.SampleStore, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		store:    st,
		logger:   logger,
		now:      time.Now,
	}
}

// reconcile re-reads the sensor config and aligns the store's tracked
// buffers with it, returning the configured sensors in order.
func (s *Service) reconcile() []models.Sensor {
	sensors := s.provider.CurrentSensors()
	ids := make([]string, len(sensors))
	for i, sn := range sensors {
		ids[i] = sn.ID
	}
	s.store.Reconcile(ids)
	return sensors
}

// ConfigView is the wire shape of the dashboard config.
type ConfigView struct {
	AlarmThreshold int             `json:"alarm_threshold"`
	Sensors        []models.Sensor `json:"sensors"`
}

// Config returns the current dashboard configuration.
func (s *Service) Config() ConfigView {
	return ConfigView{
		AlarmThreshold: s.provider.AlarmThreshold(),
		Sensors:        s.provider.CurrentSensors(),
	}
}

// Sensors returns the currently configured sensors in order.
func (s *Service) Sensors() []models.Sensor {
	return s.provider.CurrentSensors()
}

// IngestResult reports a successful ingest.
type IngestResult struct {
	OK       bool   `json:"ok"`
	SensorID string `json:"sensor_id"`
	StoredTS int64  `json:"stored_ts"`
}

// Ingest validates a reading against the configured sensor set and
// appends it, stamped with server time. Percent must already be
// validated to [0,100] at the transport boundary. Returns a
// *store.UnknownSensorError carrying the known-id set when the id is not
// configured; the store is left unchanged in that case.
func (s *Service) Ingest(sensorID string, percent float64, raw *int) (IngestResult, error) {
	s.reconcile()

	id := models.NormalizeSensorID(sensorID)
	sample := models.Sample{
		Timestamp: s.now().Unix(),
		Percent:   percent,
		Raw:       raw,
	}
	if err := s.store.Append(id, sample); err != nil {
		return IngestResult{}, err
	}

	s.logger.Info().
		Str("sensor_id", id).
		Float64("percent", percent).
		Int64("ts", sample.Timestamp).
		Msg("Reading stored")

	return IngestResult{OK: true, SensorID: id, StoredTS: sample.Timestamp}, nil
}

// LatestValue is one sensor's entry in the latest view. Percent and the
// age fields are pointers so offline/no-data sensors serialize as null.
type LatestValue struct {
	SensorID string   `json:"sensor_id"`
	Label    string   `json:"label"`
	Percent  *float64 `json:"percent"`
	LastSeen *int64   `json:"last_seen"`
	Status   string   `json:"status"`
	AgeS     *int64   `json:"age_s"`
}

// LatestSnapshot is the wire shape of the latest view.
type LatestSnapshot struct {
	TS     int64         `json:"ts"`
	Values []LatestValue `json:"values"`
}

// Latest reports every configured sensor's most recent state, or
// simulated values when no real data has ever arrived.
func (s *Service) Latest() LatestSnapshot {
	sensors := s.reconcile()
	now := s.now().Unix()

	latest, hasData := s.store.LatestAll()
	if hasData {
		values := make([]LatestValue, 0, len(sensors))
		for _, sn := range sensors {
			v := LatestValue{SensorID: sn.ID, Label: sn.Label, Status: series.StatusOffline}
			if last, ok := latest[sn.ID]; ok {
				p := series.Evaluate(&last, now)
				v.Status = p.Status
				v.Percent = p.Percent
				v.LastSeen = p.LastSeen
				v.AgeS = p.AgeSeconds
			}
			values = append(values, v)
		}
		return LatestSnapshot{TS: now, Values: values}
	}

	values := make([]LatestValue, 0, len(sensors))
	for idx, sn := range sensors {
		val := series.SimulatedLatest(idx, float64(now))
		seen := now
		age := int64(0)
		values = append(values, LatestValue{
			SensorID: sn.ID,
			Label:    sn.Label,
			Percent:  &val,
			LastSeen: &seen,
			Status:   series.StatusOnline,
			AgeS:     &age,
		})
	}
	return LatestSnapshot{TS: now, Values: values}
}

// HistorySeries is the wire shape of the multi-sensor history views.
type HistorySeries struct {
	Sensors []models.Sensor `json:"sensors"`
	Series  []series.Row    `json:"series"`
}

// History returns one row per minute bucket over the last minutes
// (clamped to [10, 1440]) for every configured sensor, carrying the last
// observation forward. Falls back to the generator when no real data has
// ever arrived.
func (s *Service) History(minutes int) HistorySeries {
	sensors := s.reconcile()
	minutes = series.ClampWindowMinutes(minutes)
	now := s.now().Unix()

	snapshots, hasData := s.store.SnapshotAll()
	if hasData {
		start := now - int64(minutes)*60
		return HistorySeries{
			Sensors: sensors,
			Series:  series.BucketSeries(sensors, snapshots, start, now),
		}
	}

	rows := make([]series.Row, 0, minutes+1)
	for m := minutes; m >= 0; m-- {
		ts := now - int64(m)*60
		row := series.Row{"ts": ts}
		for idx, sn := range sensors {
			row[sn.ID] = series.SimulatedWindow(idx, ts, m)
		}
		rows = append(rows, row)
	}
	return HistorySeries{Sensors: sensors, Series: rows}
}

// SensorSeries is the wire shape of the single-sensor history view.
type SensorSeries struct {
	Sensor models.Sensor  `json:"sensor"`
	Series []series.Point `json:"series"`
}

// HistorySensor is the single-sensor variant of History. Returns a
// *store.UnknownSensorError when the id is not in the current config.
func (s *Service) HistorySensor(sensorID string, minutes int) (SensorSeries, error) {
	sensors := s.reconcile()

	id := models.NormalizeSensorID(sensorID)
	idx := -1
	for i, sn := range sensors {
		if sn.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return SensorSeries{}, &store.UnknownSensorError{SensorID: id, Known: s.store.TrackedIDs()}
	}

	minutes = series.ClampWindowMinutes(minutes)
	now := s.now().Unix()

	snapshots, hasData := s.store.SnapshotAll()
	if hasData {
		start := now - int64(minutes)*60
		return SensorSeries{
			Sensor: sensors[idx],
			Series: series.BucketSeriesOne(snapshots[id], start, now),
		}, nil
	}

	points := make([]series.Point, 0, minutes+1)
	for m := minutes; m >= 0; m-- {
		ts := now - int64(m)*60
		val := series.SimulatedWindow(idx, ts, m)
		points = append(points, series.Point{TS: ts, Value: &val})
	}
	return SensorSeries{Sensor: sensors[idx], Series: points}, nil
}

// HistoryRange returns a simulated series over inclusive UTC calendar
// dates, one row per minute. This mode never consults the store, even
// when real data exists.
func (s *Service) HistoryRange(start, end string) (HistorySeries, error) {
	sensors := s.reconcile()

	startDay, err := time.ParseInLocation("2006-01-02", start, time.UTC)
	if err != nil {
		return HistorySeries{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, start)
	}
	endDay, err := time.ParseInLocation("2006-01-02", end, time.UTC)
	if err != nil {
		return HistorySeries{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, end)
	}

	startTS := startDay.Unix()
	endTS := endDay.Unix() + 24*3600 - 1
	if endTS < startTS {
		return HistorySeries{}, ErrInvalidRange
	}
	if endTS-startTS > maxRangeSeconds {
		return HistorySeries{}, ErrRangeTooLarge
	}

	rows := make([]series.Row, 0, (endTS-startTS)/60+1)
	for ts := startTS; ts <= endTS; ts += 60 {
		row := series.Row{"ts": ts}
		for idx, sn := range sensors {
			row[sn.ID] = series.SimulatedRange(idx, ts, startTS)
		}
		rows = append(rows, row)
	}
	return HistorySeries{Sensors: sensors, Series: rows}, nil
}

// Stats exposes store statistics for the diagnostics endpoint.
func (s *Service) Stats() store.Stats {
	return s.store.Stats()
}
