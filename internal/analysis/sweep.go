package analysis

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/sim"
)

type SweepPoint struct {
	Param float64
	Value float64
}

// Sweep runs steps variants of base with name spread evenly over [lo, hi]
// and reports the final value of metric for each.
func Sweep(
	ctx context.Context,
	e *sim.Ensemble,
	base dynamo.Params,
	name string,
	lo, hi float64,
	steps int,
	metric string,
) ([]SweepPoint, error) {
	if steps < 2 {
		steps = 2
	}
	values := floats.Span(make([]float64, steps), lo, hi)

	variants := make([]sim.Variant, steps)
	for i, v := range values {
		p := base
		if err := p.SetParam(name, v); err != nil {
			return nil, err
		}
		variants[i] = sim.Variant{Name: fmt.Sprintf("%s=%g", name, v), Params: p}
	}

	results, err := e.Run(ctx, variants)
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, steps)
	for i, r := range results {
		val, ok := r.Metrics[metric]
		if !ok {
			return nil, fmt.Errorf("analysis: metric %q not recorded", metric)
		}
		points[i] = SweepPoint{Param: values[i], Value: val}
	}
	return points, nil
}
