package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/afroash/plantlab/internal/models"
)

// DefaultCapacity is the per-sensor buffer size: enough for several days
// of sub-minute postings from a handful of probes.
const DefaultCapacity = 8000

// UnknownSensorError is returned when an operation names a sensor id
// that is not in the currently tracked set. Known carries the tracked
// ids for diagnostics.
type UnknownSensorError struct {
	SensorID string
	Known    []string
}

func (e *UnknownSensorError) Error() string {
	return fmt.Sprintf("unknown sensor %q (known: %s)", e.SensorID, strings.Join(e.Known, ", "))
}

// SampleStore holds one bounded ring buffer of readings per configured
// sensor. A single RWMutex guards reconciliation, appends and reads, so
// a read can never observe a buffer mid-eviction.
type SampleStore struct {
	capacity      int
	mutex         sync.RWMutex
	buffers       map[string]*ring
	totalAppended int64
}

// NewSampleStore creates an empty store. A non-positive capacity falls
// back to DefaultCapacity.
func NewSampleStore(capacity int) *SampleStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SampleStore{
		capacity: capacity,
		buffers:  make(map[string]*ring),
	}
}

// Reconcile aligns the tracked buffer set with the given sensor ids:
// new ids get empty buffers, ids no longer present are dropped together
// with their history. Idempotent; existing buffers are left untouched.
func (ss *SampleStore) Reconcile(ids []string) {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
		if _, ok := ss.buffers[id]; !ok {
			ss.buffers[id] = newRing(ss.capacity)
		}
	}
	for id := range ss.buffers {
		if _, ok := want[id]; !ok {
			delete(ss.buffers, id)
		}
	}
}

// Append records a sample for a tracked sensor, evicting the oldest
// sample once the buffer is at capacity. The caller must have reconciled
// the store against the current config first.
func (ss *SampleStore) Append(sensorID string, s models.Sample) error {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	buf, ok := ss.buffers[sensorID]
	if !ok {
		return &UnknownSensorError{SensorID: sensorID, Known: ss.trackedIDsLocked()}
	}
	buf.push(s)
	ss.totalAppended++
	return nil
}

// HasData reports whether any sensor has ever stored a sample. This is
// the store-wide gate between the real-data and simulated read paths.
func (ss *SampleStore) HasData() bool {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()
	return ss.hasDataLocked()
}

func (ss *SampleStore) hasDataLocked() bool {
	for _, buf := range ss.buffers {
		if buf.len() > 0 {
			return true
		}
	}
	return false
}

// Latest returns the newest sample for a sensor, if it has any.
func (ss *SampleStore) Latest(sensorID string) (models.Sample, bool) {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	buf, ok := ss.buffers[sensorID]
	if !ok {
		return models.Sample{}, false
	}
	return buf.latest()
}

// LatestAll returns the newest sample per sensor that has one, plus the
// has-data gate, under a single lock acquisition so the two cannot
// disagree.
func (ss *SampleStore) LatestAll() (map[string]models.Sample, bool) {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	out := make(map[string]models.Sample, len(ss.buffers))
	for id, buf := range ss.buffers {
		if s, ok := buf.latest(); ok {
			out[id] = s
		}
	}
	return out, len(out) > 0
}

// Snapshot returns a copy of one sensor's buffer, oldest-first. Long
// scans run on the copy so concurrent appends cannot tear a row.
func (ss *SampleStore) Snapshot(sensorID string) []models.Sample {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	buf, ok := ss.buffers[sensorID]
	if !ok {
		return nil
	}
	return buf.snapshot()
}

// SnapshotAll returns copies of every tracked buffer plus the has-data
// gate, taken under one lock acquisition.
func (ss *SampleStore) SnapshotAll() (map[string][]models.Sample, bool) {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	out := make(map[string][]models.Sample, len(ss.buffers))
	for id, buf := range ss.buffers {
		out[id] = buf.snapshot()
	}
	return out, ss.hasDataLocked()
}

// TrackedIDs returns the currently tracked sensor ids, sorted.
func (ss *SampleStore) TrackedIDs() []string {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()
	return ss.trackedIDsLocked()
}

func (ss *SampleStore) trackedIDsLocked() []string {
	ids := make([]string, 0, len(ss.buffers))
	for id := range ss.buffers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of buffered samples for a sensor.
func (ss *SampleStore) Len(sensorID string) int {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	buf, ok := ss.buffers[sensorID]
	if !ok {
		return 0
	}
	return buf.len()
}

// Stats contains statistics about the store
type Stats struct {
	TotalAppended   int64 `json:"total_appended"`
	TrackedSensors  int   `json:"tracked_sensors"`
	BufferedSamples int   `json:"buffered_samples"`
}

// Stats returns statistics about the store
func (ss *SampleStore) Stats() Stats {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	buffered := 0
	for _, buf := range ss.buffers {
		buffered += buf.len()
	}
	return Stats{
		TotalAppended:   ss.totalAppended,
		TrackedSensors:  len(ss.buffers),
		BufferedSamples: buffered,
	}
}
