package viz

import (
	"fmt"
	"math"

	"github.com/san-kum/qwave/internal/dynamo"
)

// Direct color constants.
const (
	colorScale = 0.05
	imagWeight = 0.8
	glowScale  = 0.0003
	toneGamma  = 0.9
)

// Map converts the field slot into dst according to p.DisplayMode.
func Map(slot dynamo.Slot, w, h int, p dynamo.Params, dst *Image) error {
	if err := dst.checkShape(w, h); err != nil {
		return err
	}
	if slot.Len() != w*h {
		return fmt.Errorf("%w: slot has %d cells, grid %dx%d", dynamo.ErrShapeMismatch, slot.Len(), w, h)
	}

	p = p.Normalized()
	dst.Colored = p.DisplayMode == dynamo.DisplayColor

	dynamo.ParallelFor(h, 16, func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			re, im := float64(slot.Re[i]), float64(slot.Im[i])
			switch p.DisplayMode {
			case dynamo.DisplayReal:
				dst.setScalar(i, float32(re*p.AmplitudeScale))
			case dynamo.DisplayProbability:
				dst.setScalar(i, float32((re*re+im*im)*p.ProbScale))
			case dynamo.DisplayPhase:
				dst.setScalar(i, float32(PhaseValue(re, im, p.AmplitudeScale)))
			case dynamo.DisplayColor:
				r, g, b := DirectColor(re, im, p)
				dst.setRGB(i, float32(r), float32(g), float32(b))
			default:
				dst.setScalar(i, float32(im*p.AmplitudeScale))
			}
		}
	})
	return nil
}

// PhaseValue is the phase-modulated magnitude |ψ|·amp·(cos φ + 0.5 sin φ).
func PhaseValue(re, im, amp float64) float64 {
	mag := math.Sqrt(re*re + im*im)
	phase := math.Atan2(im, re)
	return mag * amp * (math.Cos(phase) + 0.5*math.Sin(phase))
}

// DirectColor encodes the sign and magnitude of both components as RGB:
// positive real is red, negative real is blue, the imaginary part tints both
// and adds green. The result is tone mapped into [0, 1).
func DirectColor(re, im float64, p dynamo.Params) (r, g, b float64) {
	s := p.AmplitudeScale * colorScale
	sr, si := re*s, im*s

	rp := posPow(sr, p.Gamma)
	rn := posPow(-sr, p.Gamma)
	ip := posPow(si, p.Gamma)
	in := posPow(-si, p.Gamma)

	r = rp + imagWeight*ip
	g = imagWeight * (ip + in)
	b = rn + imagWeight*in

	glow := math.Sqrt(re*re+im*im) * p.ProbScale * glowScale
	r, g, b = r+glow, g+glow, b+glow

	return toneMap(r), toneMap(g), toneMap(b)
}

// posPow returns max(v, 0)^gamma.
func posPow(v, gamma float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Pow(v, gamma)
}

func toneMap(c float64) float64 {
	if c <= 0 {
		return 0
	}
	return math.Pow(c/(1+c), toneGamma)
}
