package metrics

import (
	"github.com/san-kum/qwave/internal/dynamo"
)

// Stability is the fraction of frames whose field stayed finite and below
// threshold in magnitude. An unstable dt shows up here first.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f *dynamo.Field, t float64) {
	s.samples++
	if !f.IsValid() || f.Peak() > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
