package viz

import (
	"fmt"
	"image"
	"image/color"

	"github.com/san-kum/qwave/internal/dynamo"
)

// Blend combines a visualization color with a source color per mode.
func Blend(mode int, wave, src, ratio float32) float32 {
	inv := 1 - ratio
	switch mode {
	case dynamo.BlendAdditive:
		return src + wave*inv
	case dynamo.BlendSubtractive:
		return src - wave*inv
	case dynamo.BlendMultiply:
		return mix(src, src*wave, inv)
	case dynamo.BlendScreen:
		return mix(src, 1-(1-src)*(1-wave), inv)
	default:
		return mix(wave, src, ratio)
	}
}

// Composite blends vis over src into dst. A nil src is treated as black.
// The source color is its straight RGB; alpha is ignored.
// dst must be vis-sized; src, when given, must match too.
func Composite(vis *Image, src image.Image, p dynamo.Params, dst *image.RGBA) error {
	b := dst.Bounds()
	if err := vis.checkShape(b.Dx(), b.Dy()); err != nil {
		return err
	}
	if src != nil {
		sb := src.Bounds()
		if sb.Dx() != vis.W || sb.Dy() != vis.H {
			return fmt.Errorf("%w: source %dx%d, grid %dx%d", dynamo.ErrShapeMismatch, sb.Dx(), sb.Dy(), vis.W, vis.H)
		}
	}

	p = p.Normalized()
	ratio := float32(p.MixRatio)
	mode := p.BlendMode
	nrgba, straight := src.(*image.NRGBA)
	rgba, premul := src.(*image.RGBA)

	dynamo.ParallelFor(vis.H, 16, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			out := dst.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < vis.W; x++ {
				i := y*vis.W + x

				var wr, wg, wb float32
				if vis.Colored {
					wr, wg, wb = vis.RGB(i)
				} else {
					wr, wg, wb = Diverging(vis.Scalar(i))
				}

				var sr, sg, sb float32
				switch {
				case straight:
					o := nrgba.PixOffset(nrgba.Rect.Min.X+x, nrgba.Rect.Min.Y+y)
					sr, sg, sb = unit(nrgba.Pix[o]), unit(nrgba.Pix[o+1]), unit(nrgba.Pix[o+2])
				case premul:
					o := rgba.PixOffset(rgba.Rect.Min.X+x, rgba.Rect.Min.Y+y)
					sr, sg, sb = unit(rgba.Pix[o]), unit(rgba.Pix[o+1]), unit(rgba.Pix[o+2])
					if a := rgba.Pix[o+3]; a != 0xff && a != 0 {
						k := float32(0xff) / float32(a)
						sr, sg, sb = min(sr*k, 1), min(sg*k, 1), min(sb*k, 1)
					}
				case src != nil:
					sbn := src.Bounds()
					c := color.NRGBAModel.Convert(src.At(sbn.Min.X+x, sbn.Min.Y+y)).(color.NRGBA)
					sr, sg, sb = unit(c.R), unit(c.G), unit(c.B)
				}

				o := out + x*4
				dst.Pix[o] = to8(Blend(mode, wr, sr, ratio))
				dst.Pix[o+1] = to8(Blend(mode, wg, sg, ratio))
				dst.Pix[o+2] = to8(Blend(mode, wb, sb, ratio))
				dst.Pix[o+3] = 0xff
			}
		}
	})
	return nil
}

func unit(v uint8) float32 { return float32(v) / 0xff }

func to8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
