package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/physics"
)

// historyCapacity bounds the samples kept for averages.
const historyCapacity = 600

// Probability tracks the interior total Σ|ψ|². Value is the latest sample.
type Probability struct {
	name    string
	samples []float64
}

func NewProbability() *Probability {
	return &Probability{
		name:    "probability",
		samples: make([]float64, 0, historyCapacity),
	}
}

func (p *Probability) Name() string { return p.name }

func (p *Probability) Observe(f *dynamo.Field, t float64) {
	p.samples = append(p.samples, f.Probability(physics.SpongeWidth))
	if len(p.samples) > historyCapacity {
		p.samples = p.samples[1:]
	}
}

func (p *Probability) Value() float64 {
	if len(p.samples) == 0 {
		return 0
	}
	return p.samples[len(p.samples)-1]
}

// Mean averages the retained samples.
func (p *Probability) Mean() float64 {
	if len(p.samples) == 0 {
		return 0
	}
	return stat.Mean(p.samples, nil)
}

// History returns the retained samples, oldest first.
func (p *Probability) History() []float64 { return p.samples }

func (p *Probability) Reset() {
	p.samples = p.samples[:0]
}

// Drift is the largest relative change of the interior probability against
// the first observed frame.
type Drift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift() *Drift {
	return &Drift{name: "drift"}
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(f *dynamo.Field, t float64) {
	prob := f.Probability(physics.SpongeWidth)
	if d.samples == 0 {
		d.initial = prob
	}
	d.samples++

	if d.initial != 0 {
		drift := (prob - d.initial) / d.initial
		if drift < 0 {
			drift = -drift
		}
		if drift > d.maxDrift {
			d.maxDrift = drift
		}
	}
}

func (d *Drift) Value() float64 { return d.maxDrift }

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// Peak is the latest max |ψ| over the grid.
type Peak struct {
	name string
	last float64
}

func NewPeak() *Peak { return &Peak{name: "peak"} }

func (p *Peak) Name() string                       { return p.name }
func (p *Peak) Observe(f *dynamo.Field, t float64) { p.last = f.Peak() }
func (p *Peak) Value() float64                     { return p.last }
func (p *Peak) Reset()                             { p.last = 0 }
