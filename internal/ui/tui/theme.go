// Package tui is the terminal chrome: window title, tab strip, address bar
// and the close confirmation. The bubbletea program goroutine is the UI
// loop: it drains mainloop tasks between key presses.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette holds the base colors of a theme.
type Palette struct {
	Background     string
	Surface        string
	SurfaceVariant string
	Text           string
	Muted          string
	Accent         string
	Border         string
}

// DefaultDarkPalette returns the built-in dark colors.
func DefaultDarkPalette() Palette {
	return Palette{
		Background:     "#0a0a0b",
		Surface:        "#1a1a1b",
		SurfaceVariant: "#2d2d2d",
		Text:           "#ffffff",
		Muted:          "#909090",
		Accent:         "#4ade80",
		Border:         "#333333",
	}
}

// Theme holds the colors and pre-built styles of the chrome.
type Theme struct {
	Background     lipgloss.Color
	Surface        lipgloss.Color
	SurfaceVariant lipgloss.Color
	Text           lipgloss.Color
	Muted          lipgloss.Color
	Accent         lipgloss.Color
	Border         lipgloss.Color
	Error          lipgloss.Color
	Warning        lipgloss.Color

	Title        lipgloss.Style
	Subtle       lipgloss.Style
	Highlight    lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style

	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	TabBar      lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Page   lipgloss.Style
	Status lipgloss.Style
	Box    lipgloss.Style
}

// NewTheme creates a Theme from the default dark palette.
func NewTheme() *Theme {
	return NewThemeFromPalette(DefaultDarkPalette())
}

// NewThemeFromPalette creates a Theme from p.
func NewThemeFromPalette(p Palette) *Theme {
	t := &Theme{
		Background:     lipgloss.Color(p.Background),
		Surface:        lipgloss.Color(p.Surface),
		SurfaceVariant: lipgloss.Color(p.SurfaceVariant),
		Text:           lipgloss.Color(p.Text),
		Muted:          lipgloss.Color(p.Muted),
		Accent:         lipgloss.Color(p.Accent),
		Border:         lipgloss.Color(p.Border),
		Error:          lipgloss.Color("#ef4444"),
		Warning:        lipgloss.Color("#f59e0b"),
	}
	t.buildStyles()
	return t
}

func (t *Theme) buildStyles() {
	t.Title = lipgloss.NewStyle().
		Foreground(t.Text).
		Bold(true)

	t.Subtle = lipgloss.NewStyle().
		Foreground(t.Muted)

	t.Highlight = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(t.Error)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(t.Warning)

	t.ActiveTab = lipgloss.NewStyle().
		Foreground(t.Background).
		Background(t.Accent).
		Padding(0, 2).
		Bold(true)

	t.InactiveTab = lipgloss.NewStyle().
		Foreground(t.Muted).
		Background(t.Surface).
		Padding(0, 2)

	t.TabBar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(t.Border)

	t.Input = lipgloss.NewStyle().
		Foreground(t.Text).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	t.InputFocused = t.Input.
		BorderForeground(t.Accent)

	t.Page = lipgloss.NewStyle().
		Foreground(t.Text).
		Padding(1, 2)

	t.Status = lipgloss.NewStyle().
		Foreground(t.Accent).
		Italic(true)

	t.Box = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent).
		Padding(1, 3)
}

// InputBox wraps a rendered text input in a border.
func (t *Theme) InputBox(input string, focused bool) string {
	if focused {
		return t.InputFocused.Render(input)
	}
	return t.Input.Render(input)
}
