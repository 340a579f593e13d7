package sim

import (
	"image"
	"time"

	"github.com/san-kum/qwave/internal/dynamo"
)

// State is the orchestrator's position in the per-frame pipeline.
type State int32

const (
	Idle State = iota
	ExtractingPotential
	Stepping
	Visualizing
	Compositing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ExtractingPotential:
		return "extracting"
	case Stepping:
		return "stepping"
	case Visualizing:
		return "visualizing"
	case Compositing:
		return "compositing"
	default:
		return "unknown"
	}
}

// Source supplies the current W×H backdrop image. Implementations return
// dynamo.ErrSourceUnavailable while they have no frame.
type Source interface {
	Frame() (image.Image, error)
	Name() string
}

type Metric interface {
	Name() string
	Observe(f *dynamo.Field, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every completed frame.
type Observer interface {
	OnFrame(r *FrameResult)
}

// StageObserver is optionally implemented by observers that also want each
// state transition inside a frame.
type StageObserver interface {
	OnStage(frame int, s State)
}

// FrameResult describes one completed frame. Image is owned by the
// orchestrator and is overwritten by the next frame; copy it to keep it.
type FrameResult struct {
	Index    int
	Time     float64
	Slot     int
	Substeps int
	Image    *image.RGBA
	Warning  error
	Duration time.Duration
}

// Result summarizes a headless run.
type Result struct {
	Frames  int
	Times   []float64
	Series  map[string][]float64
	Metrics map[string]float64
	Final   *image.RGBA
	Warning int
}
