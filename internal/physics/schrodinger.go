package physics

import (
	"math"

	"github.com/san-kum/qwave/internal/dynamo"
)

// SpongeWidth is the thickness in cells of the absorbing boundary layer.
const SpongeWidth = 10

// pulseThreshold gates the source to short bursts near the peak of its
// temporal oscillation.
const pulseThreshold = 0.9

// Coeffs holds the per-step constants derived from one Params snapshot.
// Building it once per step keeps the cell loop free of float64 conversions.
type Coeffs struct {
	W, H int

	HalfDt float32
	K      float32
	InvDx2 float32

	Amp    float32
	Offset float32

	Damp float32 // multiplier, 1 when damping is off

	SourceOn bool
	SrcAmp   float32
	SrcInv2S float32 // 1/(2σ²)
	SrcCX    float32
	SrcCY    float32
	SrcKX    float32
	SrcKY    float32
	SrcPhase float32 // f·t·10
}

// NewCoeffs precomputes the update constants for a w×h grid.
func NewCoeffs(p dynamo.Params, w, h int) Coeffs {
	c := Coeffs{
		W:      w,
		H:      h,
		HalfDt: float32(p.Dt / 2),
		K:      float32(p.WaveSpeed / 2),
		InvDx2: float32(1 / (p.Dx * p.Dx)),
		Amp:    float32(p.PotentialAmplitude),
		Offset: float32(p.PotentialOffset),
		Damp:   1,
	}
	if p.Damping > 0.001 {
		c.Damp = float32(1 - p.Damping*0.1)
	}
	if p.SourceEnabled && SourceFiring(p.SourceFrequency, p.Time) {
		sigma := p.SourceSize * 2
		c.SourceOn = sigma > 0
		c.SrcAmp = float32(p.SourceStrength * 0.5)
		if c.SourceOn {
			c.SrcInv2S = float32(1 / (2 * sigma * sigma))
		}
		c.SrcCX = float32(w) / 2
		c.SrcCY = float32(h) / 2
		c.SrcKX = float32(p.KX)
		c.SrcKY = float32(p.KY)
		c.SrcPhase = float32(p.SourceFrequency * p.Time * 10)
	}
	return c
}

// SourceFiring reports whether the pulsed emitter injects at time t.
func SourceFiring(freq, t float64) bool {
	return math.Sin(2*math.Pi*freq*t) > pulseThreshold
}

// SpongeFactor returns the absorbing-layer multiplier for a cell at minDist
// cells from the nearest edge: 0 on the outer ring, 1 from SpongeWidth inward.
func SpongeFactor(minDist int) float32 {
	if minDist >= SpongeWidth {
		return 1
	}
	if minDist <= 0 {
		return 0
	}
	f := float32(minDist) / SpongeWidth
	return f * f
}

// EdgeDistance returns the distance in cells from (x, y) to the nearest edge.
func EdgeDistance(x, y, w, h int) int {
	d := x
	if y < d {
		d = y
	}
	if r := w - 1 - x; r < d {
		d = r
	}
	if b := h - 1 - y; b < d {
		d = b
	}
	return d
}

// StepCell computes the next value of one cell from the read-only slot src.
// R is advanced with I's Laplacian and vice versa, both from the pre-step
// values; border cells take a zero Laplacian.
func StepCell(x, y int, src dynamo.Slot, pot []float32, c *Coeffs) (float32, float32) {
	w := c.W
	i := y*w + x
	r, im := src.Re[i], src.Im[i]

	var lapR, lapI float32
	if x > 0 && x < w-1 && y > 0 && y < c.H-1 {
		lapR = (src.Re[i-1] + src.Re[i+1] + src.Re[i-w] + src.Re[i+w] - 4*r) * c.InvDx2
		lapI = (src.Im[i-1] + src.Im[i+1] + src.Im[i-w] + src.Im[i+w] - 4*im) * c.InvDx2
	}

	v := c.Amp * (pot[i] - c.Offset)

	dR := c.K*lapI - v*im
	dI := -c.K*lapR + v*r
	nr := r + c.HalfDt*dR
	ni := im + c.HalfDt*dI

	if s := SpongeFactor(EdgeDistance(x, y, w, c.H)); s != 1 {
		nr *= s
		ni *= s
	}

	nr *= c.Damp
	ni *= c.Damp

	if c.SourceOn {
		dx := float32(x) - c.SrcCX
		dy := float32(y) - c.SrcCY
		env := c.SrcAmp * float32(math.Exp(float64(-(dx*dx+dy*dy)*c.SrcInv2S)))
		phase := float64(c.SrcKX*dx + c.SrcKY*dy - c.SrcPhase)
		sin, cos := math.Sincos(phase)
		nr += 0.1 * env * float32(cos)
		ni += 0.1 * env * float32(sin)
	}

	return nr, ni
}

// StepRows writes rows [y0, y1) of dst from src. It never touches src.
func StepRows(src, dst dynamo.Slot, pot []float32, c *Coeffs, y0, y1 int) {
	for y := y0; y < y1; y++ {
		row := y * c.W
		for x := 0; x < c.W; x++ {
			dst.Re[row+x], dst.Im[row+x] = StepCell(x, y, src, pot, c)
		}
	}
}

// Step advances the whole grid once on the calling goroutine.
func Step(src, dst dynamo.Slot, pot *dynamo.Potential, p dynamo.Params) {
	c := NewCoeffs(p, pot.W, pot.H)
	StepRows(src, dst, pot.V, &c, 0, pot.H)
}
