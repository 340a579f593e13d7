package export

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"
)

// DefaultMaxFrames caps a recording so a forgotten toggle cannot exhaust
// memory.
const DefaultMaxFrames = 600

// GIFRecorder accumulates composited frames as dithered palettized images.
type GIFRecorder struct {
	frames    []*image.Paletted
	delay     int
	maxFrames int
}

// NewGIFRecorder records at the given frame rate; delays are stored in
// hundredths of a second.
func NewGIFRecorder(fps, maxFrames int) *GIFRecorder {
	if fps <= 0 {
		fps = 30
	}
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	delay := 100 / fps
	if delay < 2 {
		delay = 2
	}
	return &GIFRecorder{delay: delay, maxFrames: maxFrames}
}

// Add quantizes img onto the Plan9 palette with Floyd-Steinberg dithering.
// It reports false once the recorder is full.
func (r *GIFRecorder) Add(img image.Image) bool {
	if len(r.frames) >= r.maxFrames {
		return false
	}
	b := img.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Rect, img, b.Min)
	r.frames = append(r.frames, p)
	return true
}

func (r *GIFRecorder) Len() int { return len(r.frames) }
func (r *GIFRecorder) Reset()   { r.frames = r.frames[:0] }

func (r *GIFRecorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("gif: no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}
	return gif.EncodeAll(w, &anim)
}

func (r *GIFRecorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
