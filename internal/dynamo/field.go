package dynamo

import (
	"fmt"
	"math"
)

// Slot is one arena of the complex field: separate real and imaginary
// planes, row-major with index y*W+x.
type Slot struct {
	Re []float32
	Im []float32
}

func newSlot(n int) Slot {
	return Slot{Re: make([]float32, n), Im: make([]float32, n)}
}

// Len returns the number of cells in the slot.
func (s Slot) Len() int { return len(s.Re) }

// Field is the double-buffered complex amplitude. Exactly one slot is
// current at any time; the other is scratch for the next step.
type Field struct {
	W, H    int
	slots   [2]Slot
	current int
}

// NewField allocates both slots once; they are reused for the field's lifetime.
func NewField(w, h int) *Field {
	n := w * h
	return &Field{
		W:     w,
		H:     h,
		slots: [2]Slot{newSlot(n), newSlot(n)},
	}
}

func (f *Field) Current() Slot     { return f.slots[f.current] }
func (f *Field) Scratch() Slot     { return f.slots[1-f.current] }
func (f *Field) CurrentIndex() int { return f.current }

// Flip hands "current" to the slot that was just written.
func (f *Field) Flip() { f.current = 1 - f.current }

// Wavepacket describes the Gaussian seed written by Seed.
type Wavepacket struct {
	Width     float64 // standard deviation in cells
	KX, KY    float64 // wave vector
	Amplitude float64
}

// PacketFromParams builds the reset wavepacket from the configured knobs.
func PacketFromParams(p Params) Wavepacket {
	return Wavepacket{Width: p.PacketWidth, KX: p.KX, KY: p.KY, Amplitude: 1}
}

// Seed reinitializes both slots identically with a Gaussian wavepacket
// centered on the grid and makes slot 0 current. Buffers are not reallocated.
func (f *Field) Seed(w Wavepacket) {
	cx, cy := float64(f.W)/2, float64(f.H)/2
	sigma := w.Width
	if sigma <= 0 {
		sigma = 1
	}
	inv2s2 := 1 / (2 * sigma * sigma)

	a, b := f.slots[0], f.slots[1]
	for y := 0; y < f.H; y++ {
		dy := float64(y) - cy
		for x := 0; x < f.W; x++ {
			dx := float64(x) - cx
			env := w.Amplitude * math.Exp(-(dx*dx+dy*dy)*inv2s2)
			phase := w.KX*dx + w.KY*dy
			re := float32(env * math.Cos(phase))
			im := float32(env * math.Sin(phase))
			i := y*f.W + x
			a.Re[i], a.Im[i] = re, im
			b.Re[i], b.Im[i] = re, im
		}
	}
	f.current = 0
}

// Clear zeroes both slots and makes slot 0 current.
func (f *Field) Clear() {
	for s := range f.slots {
		clear(f.slots[s].Re)
		clear(f.slots[s].Im)
	}
	f.current = 0
}

// Probability returns Σ(R²+I²) over the current slot, skipping a ring of
// margin cells along every edge.
func (f *Field) Probability(margin int) float64 {
	s := f.Current()
	sum := 0.0
	for y := margin; y < f.H-margin; y++ {
		row := y * f.W
		for x := margin; x < f.W-margin; x++ {
			re, im := float64(s.Re[row+x]), float64(s.Im[row+x])
			sum += re*re + im*im
		}
	}
	return sum
}

// Peak returns the largest |ψ| in the current slot.
func (f *Field) Peak() float64 {
	s := f.Current()
	peak := 0.0
	for i := range s.Re {
		re, im := float64(s.Re[i]), float64(s.Im[i])
		if m := re*re + im*im; m > peak {
			peak = m
		}
	}
	return math.Sqrt(peak)
}

// IsValid reports whether the current slot is free of NaN and Inf.
func (f *Field) IsValid() bool {
	s := f.Current()
	for i := range s.Re {
		re, im := float64(s.Re[i]), float64(s.Im[i])
		if math.IsNaN(re) || math.IsInf(re, 0) || math.IsNaN(im) || math.IsInf(im, 0) {
			return false
		}
	}
	return true
}

// Potential is the single, never double-buffered potential plane.
type Potential struct {
	W, H int
	V    []float32
}

func NewPotential(w, h int) *Potential {
	return &Potential{W: w, H: h, V: make([]float32, w*h)}
}

// Zero fills the potential with the neutral value.
func (p *Potential) Zero() { clear(p.V) }

// CheckShape verifies that a w×h buffer matches the field grid.
func (f *Field) CheckShape(w, h int) error {
	if w != f.W || h != f.H {
		return fmt.Errorf("%w: got %dx%d, grid is %dx%d", ErrShapeMismatch, w, h, f.W, f.H)
	}
	return nil
}
