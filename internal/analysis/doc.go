// Package analysis provides post-run tools for characterizing field runs.
//
//   - [PowerSpectrum] / [DominantFrequency]: spectral content of a metric series
//   - [Summarize]: mean, deviation and range of a series
//   - [Probe]: the complex trajectory of one cell, as a per-frame metric
//   - [Divergence]: growth rate of the distance between two nearby runs
//   - [Sweep]: one parameter swept across an ensemble
//
// # Stability
//
// A positive divergence rate with no source means dt is beyond the scheme's
// stable range for the current grid spacing:
//
//	rate, _, err := analysis.Divergence(ctx, factory, p, perturb, 200)
//	if rate > 0 {
//	    // shrink dt or raise dx
//	}
package analysis
