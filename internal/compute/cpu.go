package compute

import (
	"runtime"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/physics"
)

// rowsPerChunk keeps small grids on one goroutine.
const rowsPerChunk = 8

type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
	}
}

// NewCPUBackendWorkers pins the worker count, mainly for benchmarks.
func NewCPUBackendWorkers(n int) *CPUBackend {
	if n < 1 {
		n = 1
	}
	return &CPUBackend{workers: n}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) Step(src, dst dynamo.Slot, pot *dynamo.Potential, p dynamo.Params) error {
	if err := checkShape(src, dst, pot); err != nil {
		return err
	}

	coeffs := physics.NewCoeffs(p, pot.W, pot.H)
	dynamo.ParallelForWorkers(pot.H, rowsPerChunk, c.workers, func(y0, y1 int) {
		physics.StepRows(src, dst, pot.V, &coeffs, y0, y1)
	})
	return nil
}
