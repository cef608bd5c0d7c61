package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors used by the text styles.
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#101F38", Dark: "#8BC34A"}
	colorError   = lipgloss.Color("#E53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6A737D", Dark: "#8B949E"}
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Key     lipgloss.Style
}

// newStyles builds styles bound to a lipgloss renderer. A plain renderer
// produces styles that render text unchanged.
func newStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(colorPrimary).Underline(true),
		Header2: lr.NewStyle().Bold(true).Foreground(colorPrimary),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(colorMuted),
		Error:   lr.NewStyle().Foreground(colorError).Bold(true),
		Warning: lr.NewStyle().Foreground(colorWarning),
		Info:    lr.NewStyle().Foreground(colorInfo),
		Success: lr.NewStyle().Foreground(colorSuccess),
		Key:     lr.NewStyle().Foreground(colorMuted).Bold(true),
	}
}

// colorProfile picks the color profile for a writer. Non-terminals and
// NO_COLOR get plain ASCII.
func colorProfile(isTTY bool) termenv.Profile {
	if !isTTY || termenv.EnvNoColor() {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
