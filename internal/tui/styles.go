package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	frameStyle = lipgloss.NewStyle().Padding(0, 1)

	statusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	statusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	statusRecording = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444")).
			Blink(true)

	metricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(12)

	metricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	activeParam = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff00ff")).
			Background(lipgloss.Color("#1a001a"))

	keyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))

	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))

	subtle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))

	sparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	sparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	sparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// gradientText colors each rune along a Lab blend between two hex colors.
func gradientText(text, from, to string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	start, err1 := colorful.Hex(from)
	end, err2 := colorful.Hex(to)
	if err1 != nil || err2 != nil {
		return text
	}

	var sb strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := start.BlendLab(end, t).Clamped()
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return sb.String()
}

// progressBar renders a fraction in [0, 1] as a colored bar.
func progressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	filled = max(0, min(width, filled))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case frac > 0.8:
		return sparkHigh.Render(bar)
	case frac > 0.4:
		return sparkMid.Render(bar)
	}
	return sparkLow.Render(bar)
}

// sparkline renders the last width values on an eighth-block scale.
func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		c := string(chars[max(0, min(len(chars)-1, int(norm*float64(len(chars)-1))))])
		switch {
		case norm > 0.7:
			sb.WriteString(sparkHigh.Render(c))
		case norm > 0.3:
			sb.WriteString(sparkMid.Render(c))
		default:
			sb.WriteString(sparkLow.Render(c))
		}
	}
	return sb.String()
}

func separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return subtle.Render(left + " ◆ " + right)
}
