package analysis

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/qwave/internal/compute"
	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/sim"
)

func TestDominantFrequency(t *testing.T) {
	const n, dt, freq = 200, 0.05, 2.0
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}

	got, power := DominantFrequency(data, dt)
	if math.Abs(got-freq) > 1.0/(n*dt) {
		t.Errorf("dominant frequency = %v, want %v", got, freq)
	}
	if power <= 0 {
		t.Errorf("power = %v", power)
	}

	if ps := PowerSpectrum(data); ps[0] > 1e-9 {
		t.Errorf("DC bin should be removed, got %v", ps[0])
	}
	if PowerSpectrum([]float64{1}) != nil {
		t.Error("single sample has no spectrum")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want Summary
	}{
		{"empty", nil, Summary{}},
		{"single", []float64{4}, Summary{N: 1, Mean: 4, Min: 4, Max: 4}},
		{"pair", []float64{1, 3}, Summary{N: 2, Mean: 2, Std: math.Sqrt2, Min: 1, Max: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.data)
			if got.N != tt.want.N || got.Min != tt.want.Min || got.Max != tt.want.Max ||
				math.Abs(got.Mean-tt.want.Mean) > 1e-12 || math.Abs(got.Std-tt.want.Std) > 1e-12 {
				t.Errorf("Summarize = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	f := dynamo.NewField(4, 4)
	p := NewProbe(1, 2)
	vals := []float32{-1, 1, -1, 1}
	for i, v := range vals {
		f.Current().Re[2*4+1] = v
		f.Current().Im[2*4+1] = 0.5
		p.Observe(f, float64(i))
	}

	if len(p.Points) != 4 || p.Points[1] != (Point{X: 1, Y: 0.5}) {
		t.Fatalf("points = %v", p.Points)
	}
	if p.Crossings() != 2 {
		t.Errorf("crossings = %d, want 2", p.Crossings())
	}
	if math.Abs(p.Value()-1.25) > 1e-9 {
		t.Errorf("value = %v, want 1.25", p.Value())
	}
	if p.Name() != "probe(1,2)" {
		t.Errorf("name = %q", p.Name())
	}

	out := PortraitToASCII(p.Points, 20, 8)
	if strings.Count(out, "\n") != 8 || !strings.Contains(out, "•") {
		t.Errorf("unexpected portrait:\n%s", out)
	}

	p.Reset()
	if p.Value() != 0 || len(p.Times) != 0 {
		t.Error("reset must clear the trace")
	}

	outside := NewProbe(9, 9)
	outside.Observe(f, 0)
	if len(outside.Points) != 0 {
		t.Error("probe outside the grid must record nothing")
	}
}

func smallParams() dynamo.Params {
	p := dynamo.DefaultParams()
	p.Width, p.Height = 32, 24
	p.Substeps = 2
	p.SourceEnabled = false
	return p
}

func TestDivergence(t *testing.T) {
	p := smallParams()
	newOrch := func() (*sim.Orchestrator, error) {
		return sim.New(p.Width, p.Height, compute.NewCPUBackendWorkers(1), nil)
	}

	rate, dists, err := Divergence(context.Background(), newOrch, p, nil, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(dists) != 5 {
		t.Fatalf("got %d distances", len(dists))
	}
	for _, d := range dists {
		if d != 0 {
			t.Fatalf("identical runs must not diverge, got %v", d)
		}
	}
	if rate != 0 {
		t.Errorf("rate = %v, want 0", rate)
	}

	_, dists, err = Divergence(context.Background(), newOrch, p, func(q *dynamo.Params) { q.KX += 0.3 }, 5)
	if err != nil {
		t.Fatal(err)
	}
	if dists[0] == 0 {
		t.Error("perturbed runs should differ")
	}
}

func TestGrowthRate(t *testing.T) {
	times := []float64{0, 1, 2, 3}
	dists := make([]float64, len(times))
	for i, tt := range times {
		dists[i] = 0.5 * math.Exp(0.7*tt)
	}
	if got := growthRate(times, dists); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("growth rate = %v, want 0.7", got)
	}
}

type lastMetric struct{ v float64 }

func (m *lastMetric) Name() string                       { return "damping-probe" }
func (m *lastMetric) Observe(f *dynamo.Field, _ float64) { m.v = f.Probability(0) }
func (m *lastMetric) Value() float64                     { return m.v }
func (m *lastMetric) Reset()                             { m.v = 0 }

func TestSweep(t *testing.T) {
	e := sim.NewEnsemble(3, nil, func() []sim.Metric { return []sim.Metric{&lastMetric{}} })

	points, err := Sweep(context.Background(), e, smallParams(), "damping", 0, 0.5, 3, "damping-probe")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 || points[1].Param != 0.25 {
		t.Fatalf("points = %+v", points)
	}
	if !(points[0].Value > points[2].Value) {
		t.Errorf("more damping should leave less probability: %+v", points)
	}

	if _, err := Sweep(context.Background(), e, smallParams(), "bogus", 0, 1, 2, "damping-probe"); err == nil {
		t.Error("unknown parameter must fail")
	}
	if _, err := Sweep(context.Background(), e, smallParams(), "damping", 0, 1, 2, "absent"); err == nil {
		t.Error("unknown metric must fail")
	}
}
