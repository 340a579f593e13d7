// Package metrics implements per-frame observers of the field.
//
// Each metric satisfies sim.Metric and is fed after every frame with the
// current field and the elapsed simulation time. Probability sums exclude
// the sponge layer so that absorption at the edges does not read as drift.
package metrics
