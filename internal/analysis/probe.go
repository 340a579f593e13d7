package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/qwave/internal/dynamo"
)

type Point struct{ X, Y float64 }

// Probe records ψ at one cell after every frame. It satisfies sim.Metric;
// its value is the latest |ψ|² at the cell.
type Probe struct {
	X, Y   int
	Points []Point
	Times  []float64
}

func NewProbe(x, y int) *Probe {
	return &Probe{X: x, Y: y}
}

func (p *Probe) Name() string { return fmt.Sprintf("probe(%d,%d)", p.X, p.Y) }

func (p *Probe) Observe(f *dynamo.Field, t float64) {
	if p.X < 0 || p.Y < 0 || p.X >= f.W || p.Y >= f.H {
		return
	}
	s := f.Current()
	i := p.Y*f.W + p.X
	p.Points = append(p.Points, Point{X: float64(s.Re[i]), Y: float64(s.Im[i])})
	p.Times = append(p.Times, t)
}

func (p *Probe) Value() float64 {
	if len(p.Points) == 0 {
		return 0
	}
	last := p.Points[len(p.Points)-1]
	return last.X*last.X + last.Y*last.Y
}

func (p *Probe) Reset() {
	p.Points = p.Points[:0]
	p.Times = p.Times[:0]
}

// Crossings counts positive-going zero crossings of Re ψ, each one full turn
// of the local phase.
func (p *Probe) Crossings() int {
	n := 0
	for i := 1; i < len(p.Points); i++ {
		if p.Points[i-1].X < 0 && p.Points[i].X >= 0 {
			n++
		}
	}
	return n
}

// PortraitToASCII plots points in a width×height character grid with axes
// drawn where they cross the visible range.
func PortraitToASCII(points []Point, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, pt := range points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int(-minX / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int(-minY/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if grid[row][col] == ' ' {
				grid[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
