package hotspots

import "time"

// Sample is a symbol's hotspot score at one indexing run.
type Sample struct {
	NodeID string    `json:"node_id"`
	At     time.Time `json:"at"`
	Score  float64   `json:"score"`
}

// Trend summarizes how a symbol's score moves across samples.
type Trend struct {
	Direction     string  `json:"direction"` // "increasing" | "stable" | "decreasing"
	Velocity      float64 `json:"velocity"`  // score change per day
	Projection30d float64 `json:"projection_30d"`
	DataPoints    int     `json:"data_points"`
}

// trendEpsilon is the per-day velocity below which a trend is stable.
const trendEpsilon = 0.01

// CalculateTrend fits a least-squares line through samples, which must be
// ordered oldest first.
func CalculateTrend(samples []Sample) *Trend {
	if len(samples) < 2 {
		return &Trend{Direction: "stable", DataPoints: len(samples)}
	}

	var sumX, sumY, sumXY, sumX2 float64
	n := float64(len(samples))
	base := samples[0].At
	for _, s := range samples {
		x := s.At.Sub(base).Hours() / 24
		sumX += x
		sumY += s.Score
		sumXY += x * s.Score
		sumX2 += x * x
	}

	var velocity float64
	if d := n*sumX2 - sumX*sumX; d != 0 {
		velocity = (n*sumXY - sumX*sumY) / d
	}

	direction := "stable"
	if velocity > trendEpsilon {
		direction = "increasing"
	} else if velocity < -trendEpsilon {
		direction = "decreasing"
	}

	projection := samples[len(samples)-1].Score + velocity*30
	if projection < 0 {
		projection = 0
	}
	return &Trend{
		Direction:     direction,
		Velocity:      velocity,
		Projection30d: projection,
		DataPoints:    len(samples),
	}
}

// SamplesOf turns a ranking into samples taken at.
func SamplesOf(rows []Row, at time.Time) []Sample {
	out := make([]Sample, len(rows))
	for i, r := range rows {
		out[i] = Sample{NodeID: r.NodeID, At: at, Score: r.Score}
	}
	return out
}
