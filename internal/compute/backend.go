package compute

import (
	"fmt"

	"github.com/san-kum/qwave/internal/dynamo"
)

// Backend advances the field by one explicit step. Implementations read
// src and pot only and overwrite every cell of dst.
type Backend interface {
	Name() string
	Available() bool
	Step(src, dst dynamo.Slot, pot *dynamo.Potential, p dynamo.Params) error
	Cleanup()
}

// Names accepted by Select.
const (
	NameCPU    = "cpu"
	NameOpenGL = "opengl"
	NameAuto   = "auto"
)

// Select returns the backend for name. An explicitly requested GPU backend
// that cannot start fails with ErrInitialization; "auto" falls back to the CPU.
func Select(name string) (Backend, error) {
	switch name {
	case NameCPU, "":
		return NewCPUBackend(), nil
	case NameOpenGL:
		gl := NewOpenGLBackend()
		if !gl.Available() {
			return nil, fmt.Errorf("%w: %s", dynamo.ErrInitialization, gl.Name())
		}
		return gl, nil
	case NameAuto:
		return AutoSelectBackend(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", dynamo.ErrInitialization, name)
	}
}

func AutoSelectBackend() Backend {
	gl := NewOpenGLBackend()
	if gl.Available() {
		return gl
	}
	gl.Cleanup()
	return NewCPUBackend()
}

func checkShape(src, dst dynamo.Slot, pot *dynamo.Potential) error {
	n := pot.W * pot.H
	if src.Len() != n || dst.Len() != n || len(src.Im) != n || len(dst.Im) != n {
		return fmt.Errorf("%w: slots %d/%d, potential %dx%d", dynamo.ErrShapeMismatch, src.Len(), dst.Len(), pot.W, pot.H)
	}
	return nil
}
