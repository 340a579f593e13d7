package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/san-kum/qwave/internal/config"
	"github.com/san-kum/qwave/internal/dynamo"
	"github.com/san-kum/qwave/internal/source"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

type screen int

const (
	screenMenu screen = iota
	screenLive
)

// App wraps the live view with a preset picker. Choosing a preset loads its
// parameters into the running session and swaps the primary source.
type App struct {
	screen  screen
	cursor  int
	presets []string
	live    Model
}

func NewApp(s Session) App {
	return App{
		screen:  screenMenu,
		presets: config.ListPresets(),
		live:    NewModel(s),
	}
}

func (a App) Init() tea.Cmd {
	a.live.s.Loop.Pause()
	return a.live.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch a.screen {
		case screenMenu:
			return a.menuKey(key)
		case screenLive:
			if key.String() == "esc" {
				a.live.s.Loop.Pause()
				a.screen = screenMenu
				return a, tea.ClearScreen
			}
		}
	}

	next, cmd := a.live.Update(msg)
	a.live = next.(Model)
	return a, cmd
}

func (a App) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		if err := a.apply(a.presets[a.cursor]); err != nil {
			a.live.status = err.Error()
		}
		a.live.s.Loop.Resume()
		a.screen = screenLive
		return a, tea.ClearScreen
	case "c":
		a.live.s.Loop.Resume()
		a.screen = screenLive
		return a, tea.ClearScreen
	}
	return a, nil
}

// apply loads a preset onto the running session. The grid is fixed once
// allocated, so the preset's size is ignored.
func (a *App) apply(name string) error {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("unknown preset %q", name)
	}
	s := a.live.s
	w, h := s.Loop.Orchestrator().Size()

	prov, err := cfg.Apply(s.Loop.Params(), w, h)
	if err != nil {
		return err
	}
	if s.Switch != nil {
		s.Switch.SetProvider(source.Primary, prov)
		s.Switch.SetMode(source.Primary)
	}
	s.Loop.RequestReset()
	a.live.history = a.live.history[:0]
	a.live.s.Preset = name
	log.WithFields(log.Fields{"preset": name, "source": cfg.Source}).Info("preset applied")
	return nil
}

func (a App) View() string {
	if a.screen == screenLive {
		return a.live.View()
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + gradientText("q w a v e", "#00ffff", "#ff00ff") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	for i, name := range a.presets {
		desc := describe(config.Presets[name])
		if i == a.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-14s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-14s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter load   c continue   q quit") + "\n")
	return b.String()
}

func describe(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	p := cfg.Params
	return fmt.Sprintf("%-20s %s, %dx%d", cfg.Source, dynamo.DisplayModeName(p.DisplayMode), p.Width, p.Height)
}

// RunInteractive starts on the preset menu.
func RunInteractive(s Session) error {
	p := tea.NewProgram(NewApp(s), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if a, ok := final.(App); ok {
		return a.live.Err()
	}
	return nil
}
