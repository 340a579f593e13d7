package optim

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/sim"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs every combination of the grid on top of base through the
// ensemble and returns the combination with the lowest final metric.
// Non-finite metric values never win.
func (g *GridSearch) Search(
	ctx context.Context,
	e *sim.Ensemble,
	base dynamo.Params,
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("optim: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	if g.Size() == 0 {
		return nil, 0, fmt.Errorf("optim: empty grid")
	}

	var (
		variants []sim.Variant
		points   []map[string]float64
	)
	var walk func(depth int, current map[string]float64, p dynamo.Params) error
	walk = func(depth int, current map[string]float64, p dynamo.Params) error {
		if depth == len(g.paramNames) {
			point := make(map[string]float64, len(current))
			parts := make([]string, 0, len(current))
			for _, name := range g.paramNames {
				point[name] = current[name]
				parts = append(parts, fmt.Sprintf("%s=%g", name, current[name]))
			}
			points = append(points, point)
			variants = append(variants, sim.Variant{Name: strings.Join(parts, ","), Params: p})
			return nil
		}

		name := g.paramNames[depth]
		for _, val := range g.ranges[depth] {
			next := p
			if err := next.SetParam(name, val); err != nil {
				return err
			}
			current[name] = val
			if err := walk(depth+1, current, next); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, make(map[string]float64), base); err != nil {
		return nil, 0, err
	}

	results, err := e.Run(ctx, variants)
	if err != nil {
		return nil, 0, err
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	for i, r := range results {
		val, ok := r.Metrics[metricName]
		if !ok {
			return nil, 0, fmt.Errorf("optim: metric %q not recorded", metricName)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		if val < best {
			best = val
			bestParams = points[i]
		}
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("optim: no finite %s on the grid", metricName)
	}
	return bestParams, best, nil
}
