package telemetry

import (
	"testing"
	"time"
)

func TestHistoryDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)

	a := History("CORE_SW_01", "cpu", 60, 24, now)
	b := History("CORE_SW_01", "cpu", 60, 24, now)

	if len(a) != 24*6 {
		t.Fatalf("samples = %d, want %d", len(a), 24*6)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("series differ at %d: %v vs %v", i, a[i], b[i])
		}
	}

	// Different hosts diverge.
	c := History("CORE_SW_02", "cpu", 60, 24, now)
	same := true
	for i := range a {
		if a[i].Value != c[i].Value {
			same = false
			break
		}
	}
	if same {
		t.Error("series for different hosts are identical")
	}
}

func TestHistoryClampedAndOrdered(t *testing.T) {
	now := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	points := History("FLOOR_SW_02", "cpu", 95, 24, now)

	for i, p := range points {
		if p.Value < 0 || p.Value > 100 {
			t.Errorf("points[%d].Value = %v, outside [0,100]", i, p.Value)
		}
		if i > 0 && !p.Timestamp.After(points[i-1].Timestamp) {
			t.Errorf("timestamps not strictly increasing at %d", i)
		}
	}

	if last := points[len(points)-1].Timestamp; !last.Equal(now.Add(-10 * time.Minute)) {
		t.Errorf("last sample at %v, want %v", last, now.Add(-10*time.Minute))
	}
}

func TestHistoryDefaultHours(t *testing.T) {
	now := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
	points := History("AP_01", "cpu", 40, 0, now)
	if len(points) != 24*6 {
		t.Errorf("samples = %d, want %d (default 24h)", len(points), 24*6)
	}
}

func TestPeak(t *testing.T) {
	now := time.Now()
	points := []Point{
		{Timestamp: now, Value: 10},
		{Timestamp: now.Add(time.Minute), Value: 70.5},
		{Timestamp: now.Add(2 * time.Minute), Value: 33},
	}
	peak := Peak(points)
	if peak.Value != 70.5 {
		t.Errorf("Peak = %v, want 70.5", peak.Value)
	}

	zero := Peak(nil)
	if zero.Value != 0 {
		t.Errorf("Peak(nil) = %v, want zero point", zero.Value)
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{95, "red"},
		{90, "red"},
		{85, "yellow"},
		{80, "yellow"},
		{79.9, "green"},
		{0, "green"},
	}
	for _, tt := range tests {
		if got := Tier(tt.value, 90, 80); got != tt.want {
			t.Errorf("Tier(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
