package sim

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/dynamo"
)

type fakeSource struct {
	img   image.Image
	err   error
	calls int
}

func (f *fakeSource) Frame() (image.Image, error) {
	f.calls++
	return f.img, f.err
}

func (f *fakeSource) Name() string { return "fake" }

func grayImage(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

type stageRecorder struct {
	stages []State
	frames int
}

func (r *stageRecorder) OnFrame(*FrameResult)   { r.frames++ }
func (r *stageRecorder) OnStage(_ int, s State) { r.stages = append(r.stages, s) }

type failingBackend struct {
	compute.CPUBackend
	err error
}

func (b *failingBackend) Step(src, dst dynamo.Slot, pot *dynamo.Potential, p dynamo.Params) error {
	return b.err
}

type unavailableBackend struct{ compute.CPUBackend }

func (unavailableBackend) Available() bool { return false }

func testParams() dynamo.Params {
	p := dynamo.DefaultParams()
	p.Width, p.Height = 32, 24
	p.Substeps = 4
	return p
}

func newTestOrchestrator(t *testing.T, src Source) (*Orchestrator, dynamo.Params) {
	t.Helper()
	p := testParams()
	o, err := New(p.Width, p.Height, compute.NewCPUBackend(), src)
	if err != nil {
		t.Fatal(err)
	}
	o.Reset(p)
	return o, p
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0, 10, compute.NewCPUBackend(), nil); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if _, err := New(10, 10, nil, nil); !errors.Is(err, dynamo.ErrInitialization) {
		t.Errorf("expected ErrInitialization for nil backend, got %v", err)
	}
	if _, err := New(10, 10, &unavailableBackend{}, nil); !errors.Is(err, dynamo.ErrInitialization) {
		t.Errorf("expected ErrInitialization, got %v", err)
	}
}

func TestSlotAlternation(t *testing.T) {
	src := &fakeSource{img: grayImage(32, 24, 200)}
	o, p := newTestOrchestrator(t, src)

	for _, n := range []int{1, 2, 3, 7, 20} {
		o.Reset(p)
		p.Substeps = n
		res, err := o.Frame(p)
		if err != nil {
			t.Fatal(err)
		}
		if want := n % 2; res.Slot != want {
			t.Errorf("substeps=%d: current slot %d, want %d", n, res.Slot, want)
		}
		if res.Substeps != n {
			t.Errorf("substeps=%d: result reports %d", n, res.Substeps)
		}
	}
}

func TestSubstepsClamped(t *testing.T) {
	o, p := newTestOrchestrator(t, nil)
	p.Substeps = 0
	res, err := o.Frame(p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Substeps != dynamo.MinSubsteps || res.Slot != 1 {
		t.Errorf("substeps 0 should run once, got %d (slot %d)", res.Substeps, res.Slot)
	}
}

func TestExtractionOncePerFrame(t *testing.T) {
	src := &fakeSource{img: grayImage(32, 24, 128)}
	o, p := newTestOrchestrator(t, src)
	p.Substeps = 10

	for i := 1; i <= 3; i++ {
		if _, err := o.Frame(p); err != nil {
			t.Fatal(err)
		}
		if src.calls != i {
			t.Fatalf("after %d frames source was read %d times", i, src.calls)
		}
	}
}

func TestStageOrder(t *testing.T) {
	o, p := newTestOrchestrator(t, &fakeSource{img: grayImage(32, 24, 10)})
	rec := &stageRecorder{}
	o.AddObserver(rec)

	if _, err := o.Frame(p); err != nil {
		t.Fatal(err)
	}
	want := []State{ExtractingPotential, Stepping, Visualizing, Compositing, Idle}
	if len(rec.stages) != len(want) {
		t.Fatalf("stages %v, want %v", rec.stages, want)
	}
	for i := range want {
		if rec.stages[i] != want[i] {
			t.Fatalf("stages %v, want %v", rec.stages, want)
		}
	}
	if rec.frames != 1 {
		t.Errorf("observer saw %d frames", rec.frames)
	}
	if o.State() != Idle {
		t.Errorf("state after frame = %s", o.State())
	}
}

func TestElapsedTime(t *testing.T) {
	o, p := newTestOrchestrator(t, nil)
	p.Substeps = 5

	res, err := o.Frame(p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Time != 0 {
		t.Errorf("first frame should start at t=0, got %v", res.Time)
	}
	if want := p.Dt * 5; math.Abs(o.Time()-want) > 1e-12 {
		t.Errorf("time after frame = %v, want %v", o.Time(), want)
	}

	res, _ = o.Frame(p)
	if math.Abs(res.Time-p.Dt*5) > 1e-12 {
		t.Errorf("second frame start = %v", res.Time)
	}

	o.Reset(p)
	if o.Time() != 0 {
		t.Errorf("reset should rewind time, got %v", o.Time())
	}
}

func TestSourceUnavailableIsWarning(t *testing.T) {
	src := &fakeSource{err: dynamo.ErrSourceUnavailable}
	o, p := newTestOrchestrator(t, src)
	for i := range o.Potential().V {
		o.Potential().V[i] = 3
	}

	res, err := o.Frame(p)
	if err != nil {
		t.Fatalf("unavailable source must not fail the frame: %v", err)
	}
	if !errors.Is(res.Warning, dynamo.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable warning, got %v", res.Warning)
	}
	for _, v := range o.Potential().V {
		if v != 0 {
			t.Fatal("potential should be neutral without a source")
		}
	}
	if res.Image == nil || res.Image.Pix[3] != 0xff {
		t.Error("frame should still be composited")
	}

	src.err = errors.New("camera unplugged")
	res, err = o.Frame(p)
	if err != nil || !errors.Is(res.Warning, dynamo.ErrSourceUnavailable) {
		t.Errorf("provider errors should surface as ErrSourceUnavailable, got %v / %v", res, err)
	}
}

func TestShapeMismatchKeepsPotential(t *testing.T) {
	src := &fakeSource{img: grayImage(32, 24, 0)}
	o, p := newTestOrchestrator(t, src)
	p.BoundaryThreshold = 1
	p.InvertBoundaries = false

	if _, err := o.Frame(p); err != nil {
		t.Fatal(err)
	}
	before := append([]float32(nil), o.Potential().V...)
	if before[0] != 1 {
		t.Fatalf("black source should give potential 1, got %v", before[0])
	}

	src.img = grayImage(16, 16, 255)
	res, err := o.Frame(p)
	if err != nil {
		t.Fatal(err)
	}
	var fe *dynamo.FrameError
	if !errors.Is(res.Warning, dynamo.ErrShapeMismatch) || !errors.As(res.Warning, &fe) || fe.Stage != "extracting" {
		t.Errorf("expected extracting-stage ErrShapeMismatch, got %v", res.Warning)
	}
	for i, v := range o.Potential().V {
		if v != before[i] {
			t.Fatal("mismatched frame must reuse the prior potential")
		}
	}
}

func TestBackendErrorIsFrameError(t *testing.T) {
	boom := errors.New("boom")
	p := testParams()
	o, err := New(p.Width, p.Height, &failingBackend{err: boom}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = o.Frame(p)
	var fe *dynamo.FrameError
	if !errors.As(err, &fe) || fe.Stage != "stepping" || !errors.Is(err, boom) {
		t.Errorf("expected stepping FrameError wrapping boom, got %v", err)
	}
	if o.State() != Idle {
		t.Errorf("failed frame should leave orchestrator idle, got %s", o.State())
	}
}

func TestFrameRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *dynamo.Params)
	}{
		{"zero dt", func(p *dynamo.Params) { p.Dt = 0 }},
		{"negative dt", func(p *dynamo.Params) { p.Dt = -0.1 }},
		{"nan dt", func(p *dynamo.Params) { p.Dt = math.NaN() }},
		{"zero dx", func(p *dynamo.Params) { p.Dx = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, p := newTestOrchestrator(t, &fakeSource{img: grayImage(32, 24, 200)})
			before := append([]float32(nil), o.Field().Current().Re...)
			tt.mutate(&p)

			if _, err := o.Frame(p); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Fatalf("expected ErrParameterBounds, got %v", err)
			}
			var fe *dynamo.FrameError
			if _, err := o.Frame(p); !errors.As(err, &fe) {
				t.Errorf("expected *dynamo.FrameError, got %T", err)
			}
			if o.Time() != 0 || o.State() != Idle {
				t.Errorf("rejected frame advanced time %v or left state %v", o.Time(), o.State())
			}
			for i, v := range o.Field().Current().Re {
				if v != before[i] {
					t.Fatal("rejected frame modified the field")
				}
			}

			if _, err := RunHeadless(context.Background(), o, p, 3); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("RunHeadless: expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestResetIdempotent(t *testing.T) {
	o, p := newTestOrchestrator(t, nil)
	if _, err := o.Frame(p); err != nil {
		t.Fatal(err)
	}

	o.Reset(p)
	first := append([]float32(nil), o.Field().Current().Re...)
	firstIm := append([]float32(nil), o.Field().Current().Im...)
	o.Reset(p)
	for i := range first {
		if o.Field().Current().Re[i] != first[i] || o.Field().Current().Im[i] != firstIm[i] {
			t.Fatalf("reset not bit-identical at %d", i)
		}
	}
}

type countMetric struct{ n int }

func (c *countMetric) Name() string                   { return "count" }
func (c *countMetric) Observe(*dynamo.Field, float64) { c.n++ }
func (c *countMetric) Value() float64                 { return float64(c.n) }
func (c *countMetric) Reset()                         { c.n = 0 }

func TestRunHeadless(t *testing.T) {
	o, p := newTestOrchestrator(t, nil)
	o.AddMetric(&countMetric{})

	res, err := RunHeadless(context.Background(), o, p, 6)
	if err != nil {
		t.Fatal(err)
	}
	if res.Frames != 6 || len(res.Times) != 6 || len(res.Series["count"]) != 6 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Metrics["count"] != 6 {
		t.Errorf("metric saw %v frames", res.Metrics["count"])
	}
	if res.Warning != 6 {
		t.Errorf("nil source should warn every frame, got %d", res.Warning)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunHeadless(ctx, o, p, 3); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEnsemble(t *testing.T) {
	a := testParams()
	b := testParams()
	b.Damping = 0.5

	e := NewEnsemble(3, nil, func() []Metric { return []Metric{&countMetric{}} })
	results, err := e.Run(context.Background(), []Variant{{"a", a}, {"b", b}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Frames != 3 || r.Metrics["count"] != 3 {
			t.Errorf("run %d: %+v", i, r)
		}
	}

	_, err = NewEnsemble(1, func() (Source, error) { return nil, dynamo.ErrSourceUnavailable }, nil).
		Run(context.Background(), []Variant{{"a", a}})
	if !errors.Is(err, dynamo.ErrSourceUnavailable) {
		t.Errorf("source factory error should propagate, got %v", err)
	}
}

func TestFramePool(t *testing.T) {
	pool := NewFramePool(4, 2)
	src := grayImage(4, 2, 77)

	c := pool.Clone(src)
	if c.Pix[0] != 77 {
		t.Errorf("clone did not copy pixels")
	}
	c.Pix[0] = 1
	if src.Pix[0] != 77 {
		t.Error("clone shares memory with source")
	}
	pool.Put(c)
	pool.Put(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if got := pool.Get(); got.Rect != image.Rect(0, 0, 4, 2) {
		t.Errorf("pool handed out wrong size %v", got.Rect)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Idle:                "idle",
		ExtractingPotential: "extracting",
		Stepping:            "stepping",
		Visualizing:         "visualizing",
		Compositing:         "compositing",
		State(42):           "unknown",
	} {
		if s.String() != want {
			t.Errorf("%d: %q, want %q", s, s.String(), want)
		}
	}
}
