package source

import (
	"image"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	noiseScale = 0.035
	noiseSpeed = 0.02
	// Values above the ridge fall off into dark walls.
	noiseRidge = 0.55
)

// Noise animates an OpenSimplex field, one time slice per frame. It stands
// in for a live camera: the backdrop, and with it the potential, drifts.
type Noise struct {
	w, h  int
	noise opensimplex.Noise
	t     float64
	img   *image.RGBA
}

func NewNoise(w, h int, seed int64) *Noise {
	return &Noise{
		w:     w,
		h:     h,
		noise: opensimplex.New(seed),
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

func (n *Noise) Name() string { return "noise" }

// Frame renders the next slice into a buffer that is reused between calls.
func (n *Noise) Frame() (image.Image, error) {
	for y := 0; y < n.h; y++ {
		for x := 0; x < n.w; x++ {
			v := (n.noise.Eval3(float64(x)*noiseScale, float64(y)*noiseScale, n.t) + 1) * 0.5
			lum := 1 - 0.3*v
			if v > noiseRidge {
				lum = (1 - 0.3*noiseRidge) * (1 - math.Min(1, (v-noiseRidge)*4))
			}
			c := uint8(lum*255 + 0.5)
			o := n.img.PixOffset(x, y)
			n.img.Pix[o], n.img.Pix[o+1], n.img.Pix[o+2], n.img.Pix[o+3] = c, c, c, 0xff
		}
	}
	n.t += noiseSpeed
	return n.img, nil
}
