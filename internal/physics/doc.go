// Package physics implements the per-cell math of the field simulation.
//
// Two stages live here:
//
//   - [ExtractPotential]: luminance of the source image to potential
//   - [StepCell] / [StepRows]: one explicit update of the complex field
//
// Both are pure functions over read-only inputs, so any execution substrate
// (a single goroutine, a row-parallel pool, a GPU dispatch) can drive them.
// The update is a first-order explicit scheme in which R advances with I's
// Laplacian and I with R's, both from pre-step values; it is conditionally
// stable and the caller owns the choice of dt.
//
// # Boundaries
//
// A sponge layer of [SpongeWidth] cells scales the updated values by
// (d/SpongeWidth)², reaching zero on the outer ring.
package physics
