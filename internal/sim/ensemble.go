package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/dynamo"
)

// Variant is one parameter set of an ensemble.
type Variant struct {
	Name   string
	Params dynamo.Params
}

// Ensemble runs several variants headlessly and concurrently. Each run gets
// its own orchestrator, CPU backend, source and metrics, built by the
// factories, so nothing is shared between goroutines.
type Ensemble struct {
	frames     int
	newSource  func() (Source, error)
	newMetrics func() []Metric
}

func NewEnsemble(frames int, newSource func() (Source, error), newMetrics func() []Metric) *Ensemble {
	return &Ensemble{frames: frames, newSource: newSource, newMetrics: newMetrics}
}

func (e *Ensemble) Run(ctx context.Context, variants []Variant) ([]*Result, error) {
	results := make([]*Result, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, v := range variants {
		g.Go(func() error {
			var src Source
			if e.newSource != nil {
				s, err := e.newSource()
				if err != nil {
					return err
				}
				src = s
			}

			o, err := New(v.Params.Width, v.Params.Height, compute.NewCPUBackendWorkers(1), src)
			if err != nil {
				return err
			}
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					o.AddMetric(m)
				}
			}

			results[i], err = RunHeadless(ctx, o, v.Params, e.frames)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunHeadless resets o and renders frames frames, recording every metric
// after each frame.
func RunHeadless(ctx context.Context, o *Orchestrator, p dynamo.Params, frames int) (*Result, error) {
	o.Reset(p)
	res := &Result{
		Times:   make([]float64, 0, frames),
		Series:  make(map[string][]float64),
		Metrics: make(map[string]float64),
	}

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		fr, err := o.Frame(p)
		if err != nil {
			return res, err
		}
		if fr.Warning != nil {
			res.Warning++
		}
		res.Frames++
		res.Times = append(res.Times, o.Time())
		for name, v := range o.Metrics() {
			res.Series[name] = append(res.Series[name], v)
		}
		res.Final = fr.Image
	}

	res.Metrics = o.Metrics()
	return res, nil
}
