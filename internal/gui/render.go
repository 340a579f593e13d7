package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/qwave/internal/dynamo"
)

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawField()
		if a.ShowHUD {
			a.DrawHUD()
		}
	}

	rl.EndDrawing()
}

// fieldRect fits the grid into the area left of the HUD, keeping its
// aspect ratio.
func (a *App) fieldRect() rl.Rectangle {
	availW := float32(windowW - 40)
	if a.ShowHUD {
		availW -= hudW
	}
	availH := float32(windowH - 120)
	scale := min(availW/float32(a.texW), availH/float32(a.texH))
	w, h := float32(a.texW)*scale, float32(a.texH)*scale
	return rl.NewRectangle(20+(availW-w)/2, 70+(availH-h)/2, w, h)
}

func (a *App) drawField() {
	src := rl.NewRectangle(0, 0, float32(a.texW), float32(a.texH))
	rl.DrawTexturePro(a.tex, src, a.fieldRect(), rl.NewVector2(0, 0), 0, rl.White)
}

func (a *App) DrawHUD() {
	o := a.loop.Orchestrator()
	p := a.loop.Params().Snapshot().Normalized()

	a.drawText("qwave", 30, 24, 24, ColSelect)
	if a.Preset != "" {
		a.drawText(fmt.Sprintf(":: %s", a.Preset), 130, 28, 16, ColText)
	}

	status, col := "RUNNING", ColSelect
	switch {
	case a.recorder != nil:
		status, col = fmt.Sprintf("REC %d", a.recorder.Len()), rl.Red
	case a.loop.Paused():
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, windowW-130, 28, 16, col)

	x, y := int32(windowW-hudW), int32(80)
	line := func(label, value string) {
		a.drawText(label, x, y, 16, ColTextDim)
		a.drawText(value, x+130, y, 16, ColAccent)
		y += 22
	}
	line("time", fmt.Sprintf("%.2f", o.Time()))
	line("backend", o.Backend().Name())
	srcName := "none"
	if s := o.Source(); s != nil {
		srcName = s.Name()
	}
	line("source", srcName)
	line("display", dynamo.DisplayModeName(p.DisplayMode))
	line("blend", dynamo.BlendModeName(p.BlendMode))
	line("substeps", fmt.Sprintf("%d", p.Substeps))

	y += 12
	lo := max(0, min(a.ParamSel-7, len(a.ParamKeys)-15))
	for i := lo; i < min(lo+15, len(a.ParamKeys)); i++ {
		k := a.ParamKeys[i]
		v, _ := a.loop.Params().Get(k)
		if i == a.ParamSel {
			a.drawText(fmt.Sprintf("> %-18s %.4g", k, v), x, y, 16, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %-18s %.4g", k, v), x, y, 16, ColText)
		}
		y += 20
	}

	if a.Warning != nil {
		a.drawText(a.Warning.Error(), 30, windowH-95, 14, ColWarn)
	}
	if a.Status != "" {
		a.drawText(a.Status, 30, windowH-75, 14, ColText)
	}

	a.DrawTelemetry()
	a.drawText("[SPACE] PAUSE  [R] RESET  [TAB/↑↓] TUNE  [M] MODE  [B] BLEND  [S] SOURCE  [G] GIF  [ESC] PRESETS  [Q] QUIT", 30, windowH-30, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", rl.GetFPS()), windowW-90, windowH-30, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int32, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := float32(windowW-hudW), float32(windowH-160)
	width, height := float32(hudW-40), float32(50)

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal, maxVal = min(minVal, v), max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := rectX + float32(i)/float32(len(a.Telemetry))*width
		norm := (val - minVal) / (maxVal - minVal)
		points[i] = rl.NewVector2(px, rectY+height-float32(norm)*height)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("Σ|ψ|² %.3f", a.Telemetry[len(a.Telemetry)-1]), int32(rectX), int32(rectY+height+6), 14, ColText)
}

func (a *App) drawMenu() {
	a.drawText("qwave", 50, 50, 40, ColSelect)
	a.drawText("Select preset", 50, 100, 16, ColTextDim)

	y := int32(160)
	for i, name := range a.Presets {
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %s", name), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %s", name), 50, y, 20, ColText)
		}
		y += 28
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: LOAD  ESC: BACK  Q: QUIT", 760, windowH-40, 14, ColTextDim)
}
