package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
)

// Patterns are drawn black on white: black cells become barriers.
var patterns = map[string]func(img *image.RGBA){
	"slit":        func(img *image.RGBA) { drawSlits(img, 1) },
	"double-slit": func(img *image.RGBA) { drawSlits(img, 2) },
	"ring":        drawRing,
	"gray": func(img *image.RGBA) {
		draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: 128}), image.Point{}, draw.Src)
	},
}

// PatternNames lists the generated masks.
func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for k := range patterns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NewPattern renders the named mask at w×h.
func NewPattern(name string, w, h int) (*Still, error) {
	fn, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q (available: %v)", name, PatternNames())
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	fn(img)
	return &Still{name: "pattern:" + name, img: img}, nil
}

// drawSlits puts a vertical wall two thirds across with n gaps.
func drawSlits(img *image.RGBA, n int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	wallX := w * 2 / 3
	thick := max(2, w/64)
	gap := max(2, h/16)
	spacing := max(gap*2, h/6)

	open := make([]bool, h)
	for i := 0; i < n; i++ {
		center := h/2 + (2*i-(n-1))*spacing/2
		for y := center - gap/2; y < center-gap/2+gap; y++ {
			if y >= 0 && y < h {
				open[y] = true
			}
		}
	}

	wall := image.NewUniform(color.Black)
	for y := 0; y < h; y++ {
		if open[y] {
			continue
		}
		draw.Draw(img, image.Rect(wallX, y, wallX+thick, y+1), wall, image.Point{}, draw.Src)
	}
}

func drawRing(img *image.RGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	r := math.Min(cx, cy) * 0.7
	thick := math.Max(1.5, r*0.06)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if math.Abs(d-r) < thick {
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 0xff})
			}
		}
	}
}
