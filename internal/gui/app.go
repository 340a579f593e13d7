package gui

import (
	"fmt"
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	log "github.com/sirupsen/logrus"

	"github.com/san-kum/qwave/internal/config"
	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/export"
	"github.com/san-kum/qwave/internal/physics"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/source"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColWarn    = rl.NewColor(255, 180, 0, 255)
)

const (
	windowW = 1280
	windowH = 720
	hudW    = 320
)

// Options configures a window session. Build runs after the window (and
// so the GL context) exists, which lets it select the OpenGL backend.
type Options struct {
	Title   string
	Preset  string
	GIFPath string
	Build   func() (*sim.Loop, *source.Switch, error)
}

type App struct {
	loop *sim.Loop
	sw   *source.Switch

	tex    rl.Texture2D
	pixels []color.RGBA
	texW   int
	texH   int

	InMenu   bool
	Presets  []string
	Selected int
	Preset   string

	ParamKeys []string
	ParamSel  int

	Telemetry  []float64
	MaxHistory int
	ShowHUD    bool
	Status     string
	Warning    error
	Font       rl.Font

	recorder *export.GIFRecorder
	gifPath  string
}

func initWindow(title string) {
	rl.InitWindow(windowW, windowH, title)
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func NewApp(loop *sim.Loop, sw *source.Switch, opts Options) *App {
	w, h := loop.Orchestrator().Size()
	app := &App{
		loop:       loop,
		sw:         sw,
		pixels:     make([]color.RGBA, w*h),
		texW:       w,
		texH:       h,
		Presets:    config.ListPresets(),
		Preset:     opts.Preset,
		ParamKeys:  dynamo.ParamKeys(),
		Telemetry:  make([]float64, 0, 200),
		MaxHistory: 200,
		ShowHUD:    true,
		Font:       loadFont(),
		gifPath:    opts.GIFPath,
	}
	if app.gifPath == "" {
		app.gifPath = "qwave.gif"
	}

	img := rl.GenImageColor(w, h, rl.Black)
	app.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(app.tex, rl.FilterBilinear)
	return app
}

// Run opens the window, builds the session inside the GL context, and
// blocks until the window is closed.
func Run(opts Options) error {
	if opts.Title == "" {
		opts.Title = "qwave"
	}
	initWindow(opts.Title)
	defer rl.CloseWindow()

	loop, sw, err := opts.Build()
	if err != nil {
		return err
	}
	defer loop.Orchestrator().Backend().Cleanup()

	app := NewApp(loop, sw, opts)
	defer rl.UnloadTexture(app.tex)
	return app.RunLoop()
}

func (a *App) RunLoop() error {
	for !rl.WindowShouldClose() {
		if quit, err := a.Update(); err != nil || quit {
			a.finishRecording()
			return err
		}
		a.Draw()
	}
	a.finishRecording()
	return nil
}

// Update handles input and runs one frame; it reports true when the user
// asked to quit.
func (a *App) Update() (bool, error) {
	if rl.IsKeyPressed(rl.KeyQ) {
		return true, nil
	}
	if a.InMenu {
		a.menuKeys()
		return false, nil
	}
	a.simKeys()

	res, err := a.loop.Tick()
	if err != nil {
		a.Status = err.Error()
		if dynamo.IsFatal(err) {
			return true, err
		}
		return false, nil
	}
	if res == nil {
		return false, nil
	}

	a.Warning = res.Warning
	a.upload(res)

	a.Telemetry = append(a.Telemetry, a.loop.Orchestrator().Field().Probability(physics.SpongeWidth))
	if len(a.Telemetry) > a.MaxHistory {
		a.Telemetry = a.Telemetry[1:]
	}
	if a.recorder != nil && !a.recorder.Add(res.Image) {
		a.finishRecording()
	}
	return false, nil
}

func (a *App) upload(res *sim.FrameResult) {
	pix := res.Image.Pix
	for i := range a.pixels {
		o := i * 4
		a.pixels[i] = color.RGBA{R: pix[o], G: pix[o+1], B: pix[o+2], A: 255}
	}
	rl.UpdateTexture(a.tex, a.pixels)
}

func (a *App) menuKeys() {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected = min(a.Selected+1, len(a.Presets)-1)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected = max(a.Selected-1, 0)
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		if err := a.applyPreset(a.Presets[a.Selected]); err != nil {
			a.Status = err.Error()
		}
		a.InMenu = false
		a.loop.Resume()
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu = false
		a.loop.Resume()
	}
}

func (a *App) applyPreset(name string) error {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("unknown preset %q", name)
	}
	prov, err := cfg.Apply(a.loop.Params(), a.texW, a.texH)
	if err != nil {
		return err
	}
	if a.sw != nil {
		a.sw.SetProvider(source.Primary, prov)
		a.sw.SetMode(source.Primary)
	}
	a.loop.RequestReset()
	a.Telemetry = a.Telemetry[:0]
	a.Preset = name
	log.WithFields(log.Fields{"preset": name, "source": cfg.Source}).Info("preset applied")
	return nil
}

func (a *App) simKeys() {
	store := a.loop.Params()

	switch {
	case rl.IsKeyPressed(rl.KeyEscape):
		a.InMenu = true
		a.loop.Pause()
	case rl.IsKeyPressed(rl.KeySpace):
		if a.loop.Paused() {
			a.loop.Resume()
		} else {
			a.loop.Pause()
		}
	case rl.IsKeyPressed(rl.KeyR):
		a.loop.RequestReset()
		a.Telemetry = a.Telemetry[:0]
	case rl.IsKeyPressed(rl.KeyTab):
		if rl.IsKeyDown(rl.KeyLeftShift) {
			a.ParamSel = (a.ParamSel + len(a.ParamKeys) - 1) % len(a.ParamKeys)
		} else {
			a.ParamSel = (a.ParamSel + 1) % len(a.ParamKeys)
		}
	case rl.IsKeyPressed(rl.KeyUp), rl.IsKeyPressed(rl.KeyK):
		a.adjust(1)
	case rl.IsKeyPressed(rl.KeyDown), rl.IsKeyPressed(rl.KeyJ):
		a.adjust(-1)
	case rl.IsKeyPressed(rl.KeyM):
		store.Update(func(p *dynamo.Params) { p.DisplayMode = (p.DisplayMode + 1) % dynamo.NumDisplayModes })
	case rl.IsKeyPressed(rl.KeyB):
		store.Update(func(p *dynamo.Params) { p.BlendMode = (p.BlendMode + 1) % dynamo.NumBlendModes })
	case rl.IsKeyPressed(rl.KeyS):
		if a.sw != nil {
			a.sw.Toggle()
		}
	case rl.IsKeyPressed(rl.KeyG):
		if a.recorder == nil {
			a.recorder = export.NewGIFRecorder(int(rl.GetFPS()), export.DefaultMaxFrames)
			a.Status = "recording"
		} else {
			a.finishRecording()
		}
	case rl.IsKeyPressed(rl.KeyH):
		a.ShowHUD = !a.ShowHUD
	}
}

func (a *App) adjust(dir int) {
	key := a.ParamKeys[a.ParamSel]
	store := a.loop.Params()
	v, _ := store.Get(key)

	switch key {
	case "sourceEnabled", "invertBoundaries":
		v = 1 - v
	case "substeps", "displayMode", "blendMode":
		v += float64(dir)
	default:
		switch {
		case math.Abs(v) < 1e-6:
			v = 0.01 * float64(dir)
		case dir > 0:
			v *= 1.05
		default:
			v *= 0.95
		}
	}
	if err := store.Set(key, v); err != nil {
		a.Status = err.Error()
	}
}

func (a *App) finishRecording() {
	rec := a.recorder
	if rec == nil {
		return
	}
	a.recorder = nil
	if rec.Len() == 0 {
		return
	}
	if err := rec.Save(a.gifPath); err != nil {
		a.Status = err.Error()
		log.WithError(err).Error("gif save failed")
		return
	}
	a.Status = fmt.Sprintf("saved %s", a.gifPath)
	log.WithFields(log.Fields{"path": a.gifPath, "frames": rec.Len()}).Info("gif saved")
}
