package physics

import (
	"fmt"
	"image"
	"image/color"

	"github.com/san-kum/qwave/internal/dynamo"
)

// Luminance weights for normalized RGB.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// PotentialValue maps a normalized luminance to a potential value.
// Dark pixels become barriers unless invert is set; the square keeps
// mid-tones from contributing as much as the extremes.
func PotentialValue(intensity float64, invert bool, threshold float64) float64 {
	p := 1 - intensity
	if invert {
		p = intensity
	}
	p *= p
	return p * threshold
}

// ExtractPotential overwrites dst from the source image. Luminance is taken
// from straight RGB; alpha never darkens a pixel. A source whose size
// differs from dst fails with ErrShapeMismatch and leaves dst untouched.
func ExtractPotential(src image.Image, invert bool, threshold float64, dst *dynamo.Potential) error {
	b := src.Bounds()
	if b.Dx() != dst.W || b.Dy() != dst.H {
		return fmt.Errorf("%w: source %dx%d, grid %dx%d", dynamo.ErrShapeMismatch, b.Dx(), b.Dy(), dst.W, dst.H)
	}

	switch img := src.(type) {
	case *image.NRGBA:
		extractPix(img.Pix, img.PixOffset(b.Min.X, b.Min.Y), img.Stride, false, invert, threshold, dst)
	case *image.RGBA:
		extractPix(img.Pix, img.PixOffset(b.Min.X, b.Min.Y), img.Stride, true, invert, threshold, dst)
	default:
		for y := 0; y < dst.H; y++ {
			row := y * dst.W
			for x := 0; x < dst.W; x++ {
				c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				lum := (lumaR*float64(c.R) + lumaG*float64(c.G) + lumaB*float64(c.B)) / 0xffff
				dst.V[row+x] = float32(PotentialValue(lum, invert, threshold))
			}
		}
	}
	return nil
}

func luma8(r, g, b uint8) float64 {
	return (lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)) / 0xff
}

// extractPix reads 8-bit RGBA rows. Premultiplied rows are divided back
// by alpha; a fully transparent premultiplied pixel has no color left and
// reads as black.
func extractPix(pix []uint8, start, stride int, premul, invert bool, threshold float64, dst *dynamo.Potential) {
	dynamo.ParallelFor(dst.H, 16, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			off := start + y*stride
			row := y * dst.W
			for x := 0; x < dst.W; x++ {
				i := off + x*4
				r, g, b, a := pix[i], pix[i+1], pix[i+2], pix[i+3]
				if premul && a != 0xff {
					r, g, b = unpremultiply(r, a), unpremultiply(g, a), unpremultiply(b, a)
				}
				dst.V[row+x] = float32(PotentialValue(luma8(r, g, b), invert, threshold))
			}
		}
	})
}

func unpremultiply(v, a uint8) uint8 {
	if a == 0 {
		return 0
	}
	return uint8(min(uint32(v)*0xff/uint32(a), 0xff))
}

// NeutralPotential is substituted when no source frame is available.
func NeutralPotential(dst *dynamo.Potential) {
	dst.Zero()
}
