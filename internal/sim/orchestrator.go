package sim

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/physics"
	"github.com/san-kum/qwave/internal/viz"
)

// Orchestrator owns the field, potential and output buffers for a fixed grid
// and runs one frame at a time: extract, step substeps times, visualize,
// composite. It is not safe for concurrent use except State.
type Orchestrator struct {
	w, h    int
	backend compute.Backend
	source  Source

	field *dynamo.Field
	pot   *dynamo.Potential
	vis   *viz.Image
	out   *image.RGBA

	backdrop image.Image

	state atomic.Int32
	t     float64
	index int

	metrics   []Metric
	observers []Observer
}

// New allocates all buffers for a w×h grid. The field starts at zero; call
// Reset to seed it. source may be nil, in which case every frame runs on a
// neutral potential.
func New(w, h int, backend compute.Backend, source Source) (*Orchestrator, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", dynamo.ErrParameterBounds, w, h)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: no compute backend", dynamo.ErrInitialization)
	}
	if !backend.Available() {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrInitialization, backend.Name())
	}

	return &Orchestrator{
		w:         w,
		h:         h,
		backend:   backend,
		source:    source,
		field:     dynamo.NewField(w, h),
		pot:       dynamo.NewPotential(w, h),
		vis:       viz.NewImage(w, h),
		out:       image.NewRGBA(image.Rect(0, 0, w, h)),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (o *Orchestrator) AddMetric(m Metric)     { o.metrics = append(o.metrics, m) }
func (o *Orchestrator) AddObserver(v Observer) { o.observers = append(o.observers, v) }

func (o *Orchestrator) State() State                 { return State(o.state.Load()) }
func (o *Orchestrator) Time() float64                { return o.t }
func (o *Orchestrator) Size() (int, int)             { return o.w, o.h }
func (o *Orchestrator) Field() *dynamo.Field         { return o.field }
func (o *Orchestrator) Potential() *dynamo.Potential { return o.pot }
func (o *Orchestrator) Backend() compute.Backend     { return o.backend }
func (o *Orchestrator) Source() Source               { return o.source }

// SetSource swaps the image provider; it takes effect at the next frame.
func (o *Orchestrator) SetSource(s Source) { o.source = s }

// Metrics returns the current value of every registered metric.
func (o *Orchestrator) Metrics() map[string]float64 {
	out := make(map[string]float64, len(o.metrics))
	for _, m := range o.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Reset reseeds both slots from the wavepacket described by p and rewinds
// elapsed time to zero.
func (o *Orchestrator) Reset(p dynamo.Params) {
	o.field.Seed(dynamo.PacketFromParams(p))
	o.t = 0
	for _, m := range o.metrics {
		m.Reset()
	}
}

// Frame runs one full pipeline iteration with p frozen for its duration.
// Source problems are not errors: they come back in FrameResult.Warning and
// the frame still completes. A returned error is a *dynamo.FrameError;
// parameters failing Validate wrap ErrParameterBounds and leave the field
// untouched.
func (o *Orchestrator) Frame(p dynamo.Params) (*FrameResult, error) {
	start := time.Now()
	p = p.Normalized()
	p.Width, p.Height = o.w, o.h
	p.Time = o.t
	if err := p.Validate(); err != nil {
		return nil, &dynamo.FrameError{Frame: o.index, Stage: Idle.String(), Wrapped: err}
	}
	defer o.enter(Idle)

	res := &FrameResult{
		Index:    o.index,
		Time:     o.t,
		Substeps: p.Substeps,
	}

	o.enter(ExtractingPotential)
	src, warn := o.extract(p)
	res.Warning = warn

	o.enter(Stepping)
	for i := 0; i < p.Substeps; i++ {
		if err := o.backend.Step(o.field.Current(), o.field.Scratch(), o.pot, p); err != nil {
			return nil, &dynamo.FrameError{Frame: o.index, Stage: Stepping.String(), Wrapped: err}
		}
		o.field.Flip()
	}

	o.enter(Visualizing)
	if err := viz.Map(o.field.Current(), o.w, o.h, p, o.vis); err != nil {
		return nil, &dynamo.FrameError{Frame: o.index, Stage: Visualizing.String(), Wrapped: err}
	}

	o.enter(Compositing)
	if err := viz.Composite(o.vis, src, p, o.out); err != nil {
		return nil, &dynamo.FrameError{Frame: o.index, Stage: Compositing.String(), Wrapped: err}
	}

	o.t += p.Dt * float64(p.Substeps)
	o.index++

	res.Slot = o.field.CurrentIndex()
	res.Image = o.out
	res.Duration = time.Since(start)

	for _, m := range o.metrics {
		m.Observe(o.field, o.t)
	}
	for _, obs := range o.observers {
		obs.OnFrame(res)
	}
	return res, nil
}

// extract refreshes the potential from the source and returns the backdrop
// to composite over. On an unavailable source the potential is neutral and
// the backdrop black; on a shape mismatch the previous potential and
// backdrop are kept.
func (o *Orchestrator) extract(p dynamo.Params) (image.Image, error) {
	var img image.Image
	err := dynamo.ErrSourceUnavailable
	if o.source != nil {
		img, err = o.source.Frame()
		if err == nil && img == nil {
			err = dynamo.ErrSourceUnavailable
		}
	}
	if err != nil {
		if !errors.Is(err, dynamo.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", dynamo.ErrSourceUnavailable, err)
		}
		physics.NeutralPotential(o.pot)
		o.backdrop = nil
		return nil, &dynamo.FrameError{Frame: o.index, Stage: ExtractingPotential.String(), Wrapped: err}
	}

	if err := physics.ExtractPotential(img, p.InvertBoundaries, p.BoundaryThreshold, o.pot); err != nil {
		return o.backdrop, &dynamo.FrameError{Frame: o.index, Stage: ExtractingPotential.String(), Wrapped: err}
	}
	o.backdrop = img
	return img, nil
}

func (o *Orchestrator) enter(s State) {
	o.state.Store(int32(s))
	for _, obs := range o.observers {
		if so, ok := obs.(StageObserver); ok {
			so.OnStage(o.index, s)
		}
	}
}
