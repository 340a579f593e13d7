package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/viz"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer is a sim.Observer that redraws the composited frame in place
// on a plain terminal, at most frameRate times per second. It is used to
// watch headless renders without taking over the terminal.
type LiveRenderer struct {
	name      string
	frameRate int
	cols      int
	out       io.Writer
	lastFrame time.Time
}

func NewLiveRenderer(name string, frameRate, cols int, out io.Writer) *LiveRenderer {
	return &LiveRenderer{
		name:      name,
		frameRate: frameRate,
		cols:      cols,
		out:       out,
	}
}

func (r *LiveRenderer) OnFrame(res *sim.FrameResult) {
	if r.frameRate > 0 && time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	b := res.Image.Bounds()
	cols := min(r.cols, b.Dx())
	rows := max(cols*b.Dy()/b.Dx()/2, 1)

	var sb strings.Builder
	sb.WriteString(clearScreen)
	fmt.Fprintf(&sb, "  %s  frame=%d  t=%.2f\n", r.name, res.Index, res.Time)
	sb.WriteString(viz.HalfBlock(res.Image, cols, rows))
	if res.Warning != nil {
		fmt.Fprintf(&sb, "  %s\n", warnStyle.Render(res.Warning.Error()))
	}
	io.WriteString(r.out, sb.String())
}

func (r *LiveRenderer) Start() { io.WriteString(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { io.WriteString(r.out, showCursor) }
