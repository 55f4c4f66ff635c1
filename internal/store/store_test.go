package store

import (
	"errors"
	"reflect"
	"testing"
)

func TestSampleStore_ReconcileAddsAndRemoves(t *testing.T) {
	ss := NewSampleStore(10)

	ss.Reconcile([]string{"S1", "S2"})
	if got := ss.TrackedIDs(); !reflect.DeepEqual(got, []string{"S1", "S2"}) {
		t.Errorf("TrackedIDs = %v, want [S1 S2]", got)
	}

	// S2 dropped, S3 added
	ss.Reconcile([]string{"S1", "S3"})
	if got := ss.TrackedIDs(); !reflect.DeepEqual(got, []string{"S1", "S3"}) {
		t.Errorf("TrackedIDs = %v, want [S1 S3]", got)
	}
}

func TestSampleStore_ReconcileIsIdempotent(t *testing.T) {
	ss := NewSampleStore(10)
	ss.Reconcile([]string{"S1", "S2"})

	if err := ss.Append("S1", sample(1, 42)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	ss.Reconcile([]string{"S1", "S2"})
	ss.Reconcile([]string{"S1", "S2"})

	if ss.Len("S1") != 1 {
		t.Errorf("Len(S1) = %d after repeated reconcile, want 1", ss.Len("S1"))
	}
	last, ok := ss.Latest("S1")
	if !ok || last.Percent != 42 {
		t.Errorf("Latest(S1) = %+v ok=%v, want percent 42", last, ok)
	}
}

func TestSampleStore_ReconcileDropsRemovedSensorHistory(t *testing.T) {
	ss := NewSampleStore(10)
	ss.Reconcile([]string{"S1"})
	ss.Append("S1", sample(1, 10))

	ss.Reconcile([]string{"S2"})
	ss.Reconcile([]string{"S1", "S2"})

	if ss.Len("S1") != 0 {
		t.Errorf("re-added sensor kept old history: len = %d", ss.Len("S1"))
	}
}

func TestSampleStore_AppendUnknownSensor(t *testing.T) {
	ss := NewSampleStore(10)
	ss.Reconcile([]string{"S1", "S2", "S3", "S4"})

	err := ss.Append("S9", sample(1, 50))
	if err == nil {
		t.Fatal("Append to unknown sensor should fail")
	}

	var unknown *UnknownSensorError
	if !errors.As(err, &unknown) {
		t.Fatalf("error type = %T, want *UnknownSensorError", err)
	}
	if unknown.SensorID != "S9" {
		t.Errorf("SensorID = %q, want S9", unknown.SensorID)
	}
	if want := []string{"S1", "S2", "S3", "S4"}; !reflect.DeepEqual(unknown.Known, want) {
		t.Errorf("Known = %v, want %v", unknown.Known, want)
	}

	// Store must be unchanged
	if ss.HasData() {
		t.Error("failed append must not mark the store as having data")
	}
}

func TestSampleStore_CapacityEviction(t *testing.T) {
	ss := NewSampleStore(10)
	ss.Reconcile([]string{"S1"})

	for i := int64(1); i <= 11; i++ {
		if err := ss.Append("S1", sample(i, float64(i))); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	if ss.Len("S1") != 10 {
		t.Errorf("Len = %d after capacity+1 appends, want 10", ss.Len("S1"))
	}
	snap := ss.Snapshot("S1")
	if snap[0].Timestamp != 2 {
		t.Errorf("oldest surviving ts = %d, want 2 (exactly the first sample evicted)", snap[0].Timestamp)
	}
	if snap[len(snap)-1].Timestamp != 11 {
		t.Errorf("newest ts = %d, want 11", snap[len(snap)-1].Timestamp)
	}
}

func TestSampleStore_HasData(t *testing.T) {
	ss := NewSampleStore(10)
	ss.Reconcile([]string{"S1", "S2"})

	if ss.HasData() {
		t.Error("empty store reports HasData")
	}

	ss.Append("S2", sample(1, 33))

	if !ss.HasData() {
		t.Error("store with one sample reports no data")
	}
}

func TestSampleStore_LatestAll(t *testing.T) {
	ss := NewSampleStore(10)
	ss.Reconcile([]string{"S1", "S2"})

	latest, hasData := ss.LatestAll()
	if hasData || len(latest) != 0 {
		t.Errorf("LatestAll on empty store = %v, %v", latest, hasData)
	}

	ss.Append("S1", sample(1, 10))
	ss.Append("S1", sample(2, 20))

	latest, hasData = ss.LatestAll()
	if !hasData {
		t.Fatal("LatestAll should report data")
	}
	if len(latest) != 1 {
		t.Fatalf("LatestAll returned %d sensors, want 1 (S2 has no samples)", len(latest))
	}
	if latest["S1"].Percent != 20 {
		t.Errorf("LatestAll[S1].Percent = %v, want 20", latest["S1"].Percent)
	}
}

func TestSampleStore_SnapshotAll(t *testing.T) {
	ss := NewSampleStore(10)
	ss.Reconcile([]string{"S1", "S2"})
	ss.Append("S1", sample(1, 10))

	snapshots, hasData := ss.SnapshotAll()
	if !hasData {
		t.Fatal("SnapshotAll should report data")
	}
	if len(snapshots["S1"]) != 1 {
		t.Errorf("snapshots[S1] len = %d, want 1", len(snapshots["S1"]))
	}
	if len(snapshots["S2"]) != 0 {
		t.Errorf("snapshots[S2] len = %d, want 0", len(snapshots["S2"]))
	}

	// Appends after the snapshot must not show up in it
	ss.Append("S1", sample(2, 20))
	if len(snapshots["S1"]) != 1 {
		t.Error("snapshot observed an append made after it was taken")
	}
}

func TestSampleStore_DefaultCapacity(t *testing.T) {
	ss := NewSampleStore(0)
	if ss.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", ss.capacity, DefaultCapacity)
	}
}

func TestSampleStore_Stats(t *testing.T) {
	ss := NewSampleStore(10)
	ss.Reconcile([]string{"S1", "S2"})
	ss.Append("S1", sample(1, 10))
	ss.Append("S1", sample(2, 20))

	stats := ss.Stats()
	if stats.TotalAppended != 2 {
		t.Errorf("TotalAppended = %d, want 2", stats.TotalAppended)
	}
	if stats.TrackedSensors != 2 {
		t.Errorf("TrackedSensors = %d, want 2", stats.TrackedSensors)
	}
	if stats.BufferedSamples != 2 {
		t.Errorf("BufferedSamples = %d, want 2", stats.BufferedSamples)
	}
}
