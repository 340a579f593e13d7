package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for the frame pipeline.
var (
	// ErrInitialization indicates a required compute capability is unavailable.
	// It is fatal: the simulation does not start.
	ErrInitialization = errors.New("dynamo: compute capability unavailable")

	// ErrSourceUnavailable indicates the image provider has no frame yet.
	ErrSourceUnavailable = errors.New("dynamo: source frame unavailable")

	// ErrShapeMismatch indicates a buffer or image does not match the grid.
	ErrShapeMismatch = errors.New("dynamo: shape mismatch between image and grid")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam indicates a configuration key that does not exist.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")
)

// FrameError wraps an error with the frame and stage it occurred in.
type FrameError struct {
	Frame   int
	Stage   string
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d (%s): %v", e.Frame, e.Stage, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}

// IsFatal reports whether err should stop the frame loop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInitialization)
}
