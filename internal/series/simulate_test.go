package series

import (
	"math"
	"testing"
)

// isOneDecimal reports whether v carries at most one decimal place.
func isOneDecimal(v float64) bool {
	scaled := v * 10
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}

func TestSimulatedLatest_BoundsAndRounding(t *testing.T) {
	for idx := 0; idx < 8; idx++ {
		for ts := int64(0); ts < 7200; ts += 37 {
			v := SimulatedLatest(idx, float64(ts))
			if v < 0 || v > 100 {
				t.Fatalf("SimulatedLatest(%d, %d) = %v, out of [0,100]", idx, ts, v)
			}
			if !isOneDecimal(v) {
				t.Fatalf("SimulatedLatest(%d, %d) = %v, not rounded to one decimal", idx, ts, v)
			}
		}
	}
}

func TestSimulatedWindow_BoundsAndRounding(t *testing.T) {
	for idx := 0; idx < 8; idx++ {
		for m := 0; m <= 1440; m += 97 {
			ts := int64(1700000000) - int64(m)*60
			v := SimulatedWindow(idx, ts, m)
			if v < 0 || v > 100 {
				t.Fatalf("SimulatedWindow(%d, %d, %d) = %v, out of [0,100]", idx, ts, m, v)
			}
			if !isOneDecimal(v) {
				t.Fatalf("SimulatedWindow(%d, %d, %d) = %v, not rounded to one decimal", idx, ts, m, v)
			}
		}
	}
}

func TestSimulatedRange_BoundsAndRounding(t *testing.T) {
	start := int64(1700000000)
	end := start + 31*24*3600

	for idx := 0; idx < 4; idx++ {
		for ts := start; ts <= end; ts += 6007 {
			v := SimulatedRange(idx, ts, start)
			if v < 0 || v > 100 {
				t.Fatalf("SimulatedRange(%d, %d) = %v, out of [0,100]", idx, ts, v)
			}
			if !isOneDecimal(v) {
				t.Fatalf("SimulatedRange(%d, %d) = %v, not rounded to one decimal", idx, ts, v)
			}
		}
	}
}

func TestSimulated_BaseShapeSharedAcrossCalls(t *testing.T) {
	// Jitter differs per call, but values at the same instant must stay
	// within the jitter band of each other: the base shape is stateless.
	const ts = 1700000000
	a := SimulatedWindow(0, ts, 0)
	b := SimulatedWindow(0, ts, 0)
	if math.Abs(a-b) > 2*simHistoryJitter+0.1 {
		t.Errorf("two draws at the same instant differ by %v, beyond the jitter band", math.Abs(a-b))
	}
}

func TestSimulated_SensorsDiverge(t *testing.T) {
	// The per-index phase offset must separate sensors most of the time.
	const ts = 1700000000
	same := 0
	for i := 0; i < 20; i++ {
		if math.Abs(SimulatedWindow(0, ts+int64(i)*60, 0)-SimulatedWindow(2, ts+int64(i)*60, 0)) < 0.5 {
			same++
		}
	}
	if same == 20 {
		t.Error("sensor indexes 0 and 2 produced identical signals across 20 buckets")
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{47.25, 47.3},
		{47.24, 47.2},
		{0, 0},
		{99.99, 100},
		{33.333, 33.3},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
