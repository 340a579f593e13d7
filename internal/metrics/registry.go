package metrics

import "github.com/san-kum/qwave/internal/sim"

// StabilityThreshold is the |ψ| above which a frame counts as blown up.
const StabilityThreshold = 1e3

// Standard returns a fresh set of the metrics every run records.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewProbability(),
		NewDrift(),
		NewPeak(),
		NewStability(StabilityThreshold),
	}
}
