package telemetry

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// Point is one sample in a synthesized metric history.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// History synthesizes a metric history for a host: 10-minute samples over
// the given number of hours ending at now, jittered around the host's
// current value with an afternoon load spike, clamped to [0,100]. The
// series is deterministic for a given (host, metric, now) so repeated
// requests render the same graph.
func History(hostID, metric string, base float64, hours int, now time.Time) []Point {
	if hours <= 0 {
		hours = 24
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(hostID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(metric))
	rng := rand.New(rand.NewSource(int64(h.Sum64()))) // #nosec G404 -- display data, not crypto

	samples := hours * 6
	points := make([]Point, 0, samples)
	for i := 0; i < samples; i++ {
		ts := now.Add(-time.Duration(10*(samples-i)) * time.Minute)

		spike := 0.0
		if hr := ts.Hour(); hr >= 14 && hr <= 16 {
			spike = 20 + rng.Float64()*20
		}

		value := base + (rng.Float64()*20 - 10) + spike
		value = math.Max(0, math.Min(100, value))
		points = append(points, Point{Timestamp: ts, Value: math.Round(value*10) / 10})
	}
	return points
}

// Peak returns the highest-valued point of a history, or a zero Point for an
// empty series.
func Peak(points []Point) Point {
	var peak Point
	for _, p := range points {
		if p.Value >= peak.Value {
			peak = p
		}
	}
	return peak
}

// Tier buckets a metric value into a display tier: "red" at or above the red
// threshold, "yellow" at or above the yellow threshold, otherwise "green".
func Tier(value, red, yellow float64) string {
	switch {
	case value >= red:
		return "red"
	case value >= yellow:
		return "yellow"
	default:
		return "green"
	}
}
