package analysis

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/sim"
)

// Divergence runs two orchestrators in lockstep, one on p and one on p after
// perturb, and returns the RMS field distance after every frame together
// with the fitted exponential growth rate of that distance per unit time.
func Divergence(
	ctx context.Context,
	newOrchestrator func() (*sim.Orchestrator, error),
	p dynamo.Params,
	perturb func(p *dynamo.Params),
	frames int,
) (float64, []float64, error) {
	a, err := newOrchestrator()
	if err != nil {
		return 0, nil, err
	}
	b, err := newOrchestrator()
	if err != nil {
		return 0, nil, err
	}

	pp := p
	if perturb != nil {
		perturb(&pp)
	}
	a.Reset(p)
	b.Reset(pp)

	dists := make([]float64, 0, frames)
	times := make([]float64, 0, frames)
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return 0, dists, err
		}
		if _, err := a.Frame(p); err != nil {
			return 0, dists, err
		}
		if _, err := b.Frame(pp); err != nil {
			return 0, dists, err
		}
		dists = append(dists, fieldDistance(a.Field(), b.Field()))
		times = append(times, a.Time())
	}

	return growthRate(times, dists), dists, nil
}

func fieldDistance(a, b *dynamo.Field) float64 {
	sa, sb := a.Current(), b.Current()
	n := min(sa.Len(), sb.Len())
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		dr := float64(sa.Re[i] - sb.Re[i])
		di := float64(sa.Im[i] - sb.Im[i])
		sum += dr*dr + di*di
	}
	return math.Sqrt(sum / float64(n))
}

// growthRate fits ln d = α + β·t over the positive finite samples and
// returns β.
func growthRate(times, dists []float64) float64 {
	xs := make([]float64, 0, len(dists))
	ys := make([]float64, 0, len(dists))
	for i, d := range dists {
		if d <= 0 || math.IsInf(d, 0) || math.IsNaN(d) {
			continue
		}
		xs = append(xs, times[i])
		ys = append(ys, math.Log(d))
	}
	if len(xs) < 2 {
		return 0
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}
