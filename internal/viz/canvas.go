package viz

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a monochrome braille canvas for terminals without truecolor.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a dot at (x, y) in sub-pixel coordinates; the canvas is
// (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// Plot clears the canvas and sets every sub-pixel whose sampled luminance
// in img exceeds threshold.
func (c *Canvas) Plot(img *image.RGBA, threshold float64) {
	c.Clear()
	b := img.Bounds()
	sw, sh := c.Width*2, c.Height*4
	for y := 0; y < sh; y++ {
		iy := b.Min.Y + y*b.Dy()/sh
		for x := 0; x < sw; x++ {
			ix := b.Min.X + x*b.Dx()/sw
			o := img.PixOffset(ix, iy)
			lum := (0.299*float64(img.Pix[o]) + 0.587*float64(img.Pix[o+1]) + 0.114*float64(img.Pix[o+2])) / 0xff
			if lum > threshold {
				c.Set(x, y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// HalfBlock renders img as cols x rows terminal cells, two vertically
// stacked pixels per cell: the upper half block takes the top pixel as
// foreground and the bottom pixel as background.
func HalfBlock(img *image.RGBA, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	ph := rows * 2

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		ty := b.Min.Y + (row*2)*b.Dy()/ph
		by := b.Min.Y + (row*2+1)*b.Dy()/ph
		for col := 0; col < cols; col++ {
			x := b.Min.X + col*b.Dx()/cols
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(pixelHex(img, x, ty))).
				Background(lipgloss.Color(pixelHex(img, x, by)))
			sb.WriteString(style.Render("▀"))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func pixelHex(img *image.RGBA, x, y int) string {
	o := img.PixOffset(x, y)
	c := colorful.Color{
		R: float64(img.Pix[o]) / 0xff,
		G: float64(img.Pix[o+1]) / 0xff,
		B: float64(img.Pix[o+2]) / 0xff,
	}
	return c.Hex()
}
