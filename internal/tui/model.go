package tui

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	log "github.com/sirupsen/logrus"

	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/export"
	"github.com/san-kum/qwave/internal/physics"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/source"
	"github.com/san-kum/qwave/internal/viz"
)

const (
	historyCapacity = 300
	statsWidth      = 44
	defaultCols     = 96
)

// Session is everything the terminal views drive. Switch may be nil when
// there is only one source.
type Session struct {
	Loop    *sim.Loop
	Switch  *source.Switch
	Preset  string
	GIFPath string
}

type TickMsg time.Time

// Model is the live view. Every TickMsg is one display refresh: it runs
// one frame through the loop (unless paused) and renders the composite.
type Model struct {
	s    Session
	keys []string

	selected int
	cols     int
	rows     int
	braille  bool
	showHelp bool

	frame    *image.RGBA
	index    int
	history  []float64
	warning  error
	status   string
	err      error
	fps      float64
	lastTick time.Time

	recorder *export.GIFRecorder
}

func NewModel(s Session) Model {
	if s.GIFPath == "" {
		s.GIFPath = "qwave.gif"
	}
	m := Model{
		s:       s,
		keys:    dynamo.ParamKeys(),
		history: make([]float64, 0, historyCapacity),
	}
	m.resize(defaultCols + statsWidth + 4)
	return m
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.s.Loop.Interval(), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Err is the fatal error that ended the view, if any.
func (m Model) Err() error { return m.err }

func (m *Model) resize(termWidth int) {
	w, h := m.s.Loop.Orchestrator().Size()
	m.cols = min(w, max(termWidth-statsWidth-6, 20))
	m.rows = max(m.cols*h/w/2, 1)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		now := time.Time(msg)
		if !m.lastTick.IsZero() {
			if dt := now.Sub(m.lastTick).Seconds(); dt > 0 {
				m.fps = 1 / dt
			}
		}
		m.lastTick = now

		if err := m.step(); err != nil && dynamo.IsFatal(err) {
			m.err = err
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() error {
	res, err := m.s.Loop.Tick()
	if err != nil {
		m.status = err.Error()
		return err
	}
	if res == nil {
		return nil
	}

	m.frame = res.Image
	m.index = res.Index
	m.warning = res.Warning

	prob := m.s.Loop.Orchestrator().Field().Probability(physics.SpongeWidth)
	m.history = append(m.history, prob)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}

	if m.recorder != nil && !m.recorder.Add(res.Image) {
		m.stopRecording()
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	store := m.s.Loop.Params()
	switch msg.String() {
	case "q", "ctrl+c":
		if m.recorder != nil {
			m.stopRecording()
		}
		return m, tea.Quit
	case " ":
		if m.s.Loop.Paused() {
			m.s.Loop.Resume()
		} else {
			m.s.Loop.Pause()
		}
	case "r":
		m.s.Loop.RequestReset()
		m.history = m.history[:0]
	case "tab":
		m.selected = (m.selected + 1) % len(m.keys)
	case "shift+tab":
		m.selected = (m.selected + len(m.keys) - 1) % len(m.keys)
	case "up", "k":
		m.adjust(1)
	case "down", "j":
		m.adjust(-1)
	case "m":
		store.Update(func(p *dynamo.Params) {
			p.DisplayMode = (p.DisplayMode + 1) % dynamo.NumDisplayModes
		})
	case "b":
		store.Update(func(p *dynamo.Params) {
			p.BlendMode = (p.BlendMode + 1) % dynamo.NumBlendModes
		})
	case "s":
		if m.s.Switch != nil {
			mode := m.s.Switch.Toggle()
			m.status = fmt.Sprintf("source %d: %s", mode, m.s.Switch.Name())
		}
	case "g":
		if m.recorder == nil {
			fps := int(time.Second / m.s.Loop.Interval())
			m.recorder = export.NewGIFRecorder(fps, export.DefaultMaxFrames)
			m.status = "recording"
		} else {
			m.stopRecording()
		}
	case "v":
		m.braille = !m.braille
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// discrete knobs step by one; continuous knobs scale by 5%.
var discrete = map[string]bool{
	"substeps":         true,
	"displayMode":      true,
	"blendMode":        true,
	"sourceEnabled":    true,
	"invertBoundaries": true,
}

func (m *Model) adjust(dir int) {
	key := m.keys[m.selected]
	store := m.s.Loop.Params()
	v, _ := store.Get(key)

	switch {
	case key == "sourceEnabled" || key == "invertBoundaries":
		v = 1 - v
	case discrete[key]:
		v += float64(dir)
	case math.Abs(v) < 1e-6:
		v = 0.01 * float64(dir)
	case dir > 0:
		v *= 1.05
	default:
		v *= 0.95
	}

	if err := store.Set(key, v); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) stopRecording() {
	rec := m.recorder
	m.recorder = nil
	if rec.Len() == 0 {
		m.status = "recording discarded"
		return
	}
	if err := rec.Save(m.s.GIFPath); err != nil {
		m.status = err.Error()
		log.WithError(err).Error("gif save failed")
		return
	}
	m.status = fmt.Sprintf("saved %d frames to %s", rec.Len(), m.s.GIFPath)
	log.WithFields(log.Fields{"path": m.s.GIFPath, "frames": rec.Len()}).Info("gif saved")
}

func (m Model) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top, frameStyle.Render(m.viewFrame()), m.viewStats())
	if m.showHelp {
		return helpText + "\n" + body
	}
	return body
}

func (m Model) viewFrame() string {
	if m.frame == nil {
		return strings.Repeat("\n", m.rows)
	}
	if m.braille {
		c := viz.NewCanvas(m.cols, m.rows/2+1)
		c.Plot(m.frame, 0.35)
		return c.String()
	}
	return viz.HalfBlock(m.frame, m.cols, m.rows)
}

func (m Model) viewStats() string {
	o := m.s.Loop.Orchestrator()
	p := m.s.Loop.Params().Snapshot().Normalized()

	var s strings.Builder
	title := "QWAVE"
	if m.s.Preset != "" {
		title += " · " + m.s.Preset
	}
	s.WriteString(gradientText(title, "#00ffff", "#ff00ff") + "\n")

	switch {
	case m.recorder != nil:
		s.WriteString(statusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Len())))
	case m.s.Loop.Paused():
		s.WriteString(statusPaused.Render("PAUSED"))
	default:
		s.WriteString(statusRunning.Render("RUNNING"))
	}
	s.WriteString("\n\n")

	row := func(label, value string) {
		s.WriteString(metricLabel.Render(label) + metricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2f", o.Time()))
	row("Frame", fmt.Sprintf("%d", m.index))
	row("FPS", fmt.Sprintf("%.1f", m.fps))
	row("Backend", o.Backend().Name())
	srcName := "none"
	if src := o.Source(); src != nil {
		srcName = src.Name()
	}
	row("Source", srcName)
	row("Display", dynamo.DisplayModeName(p.DisplayMode))
	row("Blend", dynamo.BlendModeName(p.BlendMode))
	s.WriteString(metricLabel.Render("Substeps") + progressBar(float64(p.Substeps)/20, 14) + "\n")

	if n := len(m.history); n > 0 {
		row("Σ|ψ|²", fmt.Sprintf("%.3f", m.history[n-1]))
	}
	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(statsWidth-12), asciigraph.Caption("Σ|ψ|²"))
		s.WriteString(graphStyle.Render(chart) + "\n")
		s.WriteString(sparkline(m.history, statsWidth-6) + "\n")
	}

	if m.warning != nil {
		s.WriteString(warnStyle.Render("⚠ "+m.warning.Error()) + "\n")
	}
	if m.status != "" {
		s.WriteString(subtle.Render(m.status) + "\n")
	}

	s.WriteString("\n" + separator(statsWidth-6) + "\n")
	store := m.s.Loop.Params()
	lo := max(0, min(m.selected-4, len(m.keys)-9))
	for i := lo; i < min(lo+9, len(m.keys)); i++ {
		k := m.keys[i]
		v, _ := store.Get(k)
		line := fmt.Sprintf("%-18s %10.4g", k, v)
		if i == m.selected {
			s.WriteString(activeParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + subtle.Render(line) + "\n")
		}
	}

	s.WriteString("\n" + keyHint.Render("space pause  r reset  tab/↑↓ tune\nm mode  b blend  s source  g gif  ? help"))
	return panelStyle.Width(statsWidth).Render(s.String())
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reseed the wavepacket    ║
║  Tab      - Next parameter           ║
║  Up/K     - Increase parameter       ║
║  Down/J   - Decrease parameter       ║
║  M        - Cycle display mode       ║
║  B        - Cycle blend mode         ║
║  S        - Toggle source            ║
║  G        - Toggle GIF recording     ║
║  V        - Braille view             ║
║  Esc      - Preset menu              ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run shows the live view until the user quits.
func Run(s Session) error {
	p := tea.NewProgram(NewModel(s), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
