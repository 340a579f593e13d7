// Package dynamo provides the core primitives shared by every stage of the
// field simulation pipeline.
//
// The package defines the data that flows between stages:
//
//   - [Params]: the frozen per-frame snapshot of simulation and display knobs
//   - [ParamStore]: the mutable configuration surface that produces snapshots
//   - [Field]: the double-buffered complex field (two [Slot] arenas plus a
//     one-bit "current" index)
//   - [Potential]: the single potential buffer derived from the source image
//
// # Example
//
//	p := dynamo.DefaultParams()
//	f := dynamo.NewField(p.Width, p.Height)
//	f.Seed(dynamo.PacketFromParams(p))
//	src, dst := f.Current(), f.Scratch()
//	// ... write dst from src ...
//	f.Flip()
//
// # Thread Safety
//
// Field and Potential are NOT thread-safe. A frame has exactly one writer
// per slot; callers that step rows in parallel must partition the scratch
// slot by row. ParamStore is safe for concurrent use.
package dynamo
