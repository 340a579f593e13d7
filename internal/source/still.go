package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Still serves one pre-scaled image forever.
type Still struct {
	name string
	img  image.Image
}

// OpenStill decodes the image at path and scales it to cover w×h.
func OpenStill(path string, w, h int) (*Still, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := DecodeStill(filepath.Base(path), f, w, h)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}

// DecodeStill decodes any registered format from r.
func DecodeStill(name string, r io.Reader, w, h int) (*Still, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return NewStill(name, img, w, h), nil
}

func NewStill(name string, img image.Image, w, h int) *Still {
	return &Still{name: name, img: Cover(img, w, h)}
}

func (s *Still) Frame() (image.Image, error) { return s.img, nil }
func (s *Still) Name() string                { return s.name }

// Cover scales src to fill w×h, preserving aspect ratio and cropping the
// overflow equally from both sides. Alpha is dropped: every output pixel is
// opaque and carries the straight RGB of its source.
func Cover(src image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}
	src = flatten(src)

	sw, sh := sb.Dx(), sb.Dy()
	crop := sb
	// Compare aspect ratios as sw/sh against w/h without floats.
	if sw*h > w*sh {
		cw := max(sh*w/h, 1)
		off := (sw - cw) / 2
		crop = image.Rect(sb.Min.X+off, sb.Min.Y, sb.Min.X+off+cw, sb.Max.Y)
	} else if sw*h < w*sh {
		ch := max(sw*h/w, 1)
		off := (sh - ch) / 2
		crop = image.Rect(sb.Min.X, sb.Min.Y+off, sb.Max.X, sb.Min.Y+off+ch)
	}

	if crop.Dx() == w && crop.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, crop.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

// flatten copies the straight RGB of src into an opaque image, so scaling
// never weights a color by its alpha.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	if n, ok := src.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			si, di := n.PixOffset(b.Min.X, y), out.PixOffset(b.Min.X, y)
			for x := 0; x < b.Dx(); x++ {
				copy(out.Pix[di+x*4:di+x*4+3], n.Pix[si+x*4:si+x*4+3])
				out.Pix[di+x*4+3] = 0xff
			}
		}
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, 0xff})
		}
	}
	return out
}
