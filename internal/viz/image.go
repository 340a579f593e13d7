package viz

import (
	"fmt"

	"github.com/san-kum/qwave/internal/dynamo"
)

// Image is the per-frame visualization buffer: three float channels per
// cell, row-major. Scalar images replicate one value across the channels
// and leave Colored unset so the compositor applies its colormap.
type Image struct {
	W, H    int
	Pix     []float32
	Colored bool
}

func NewImage(w, h int) *Image {
	return &Image{W: w, H: h, Pix: make([]float32, w*h*3)}
}

// Scalar returns channel 0 of cell i.
func (im *Image) Scalar(i int) float32 { return im.Pix[i*3] }

// RGB returns the three channels of cell i.
func (im *Image) RGB(i int) (r, g, b float32) {
	return im.Pix[i*3], im.Pix[i*3+1], im.Pix[i*3+2]
}

func (im *Image) setScalar(i int, v float32) {
	im.Pix[i*3], im.Pix[i*3+1], im.Pix[i*3+2] = v, v, v
}

func (im *Image) setRGB(i int, r, g, b float32) {
	im.Pix[i*3], im.Pix[i*3+1], im.Pix[i*3+2] = r, g, b
}

func (im *Image) checkShape(w, h int) error {
	if im.W != w || im.H != h || len(im.Pix) != w*h*3 {
		return fmt.Errorf("%w: image %dx%d, grid %dx%d", dynamo.ErrShapeMismatch, im.W, im.H, w, h)
	}
	return nil
}
