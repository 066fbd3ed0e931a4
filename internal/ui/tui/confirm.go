package tui

import (
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/application/port"
)

// ConfirmModel is a yes/no confirmation dialog.
type ConfirmModel struct {
	Message   string
	Yes       bool // Current selection
	Confirmed bool // User pressed enter
	Canceled  bool // User pressed escape
	theme     *Theme
}

// ConfirmKeyMap defines keybindings for the confirm dialog.
type ConfirmKeyMap struct {
	Yes     key.Binding
	No      key.Binding
	Left    key.Binding
	Right   key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeyMap returns the default keybindings.
func DefaultConfirmKeyMap() ConfirmKeyMap {
	return ConfirmKeyMap{
		Yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		No:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "no")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "yes")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// NewConfirm creates a dialog that defaults to "No".
func NewConfirm(theme *Theme, message string) ConfirmModel {
	return ConfirmModel{Message: message, theme: theme}
}

// Update handles selection keys.
func (m ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd) {
	keys := DefaultConfirmKeyMap()

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Yes), key.Matches(msg, keys.Right):
			m.Yes = true
		case key.Matches(msg, keys.No), key.Matches(msg, keys.Left):
			m.Yes = false
		case key.Matches(msg, keys.Confirm):
			m.Confirmed = true
		case key.Matches(msg, keys.Cancel):
			m.Canceled = true
		}
	}
	return m, nil
}

// View renders the dialog box.
func (m ConfirmModel) View() string {
	t := m.theme

	yesStyle, noStyle := t.InactiveTab, t.ActiveTab
	if m.Yes {
		yesStyle, noStyle = t.ActiveTab, t.InactiveTab
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		noStyle.Render(" No "), "  ", yesStyle.Render(" Yes "))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		t.Title.Render(m.Message),
		"",
		buttons,
		"",
		t.Subtle.Render("y/n or ←/→ to select • enter to confirm • esc to cancel"),
	)
	return t.Box.Render(content)
}

// Done reports whether the user decided.
func (m ConfirmModel) Done() bool {
	return m.Confirmed || m.Canceled
}

// Result reports whether the user confirmed "Yes".
func (m ConfirmModel) Result() bool {
	return m.Confirmed && m.Yes
}

type confirmRequest struct {
	model  ConfirmModel
	answer func(bool)
}

// Dialog implements port.Dialog on top of ConfirmModel. Questions queue up
// and are shown one at a time; answers run on the UI loop.
type Dialog struct {
	theme *Theme

	mu      sync.Mutex
	pending []*confirmRequest
}

var _ port.Dialog = (*Dialog)(nil)

// NewDialog creates an empty dialog queue.
func NewDialog(theme *Theme) *Dialog {
	return &Dialog{theme: theme}
}

// Confirm implements port.Dialog.
func (d *Dialog) Confirm(question string, answer func(yes bool)) {
	d.mu.Lock()
	d.pending = append(d.pending, &confirmRequest{model: NewConfirm(d.theme, question), answer: answer})
	d.mu.Unlock()
}

// Active reports whether a question is on screen.
func (d *Dialog) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending) > 0
}

// Update routes a message to the current question and answers it once the
// user decides. Must run on the UI loop.
func (d *Dialog) Update(msg tea.Msg) {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	current := d.pending[0]
	current.model, _ = current.model.Update(msg)
	if !current.model.Done() {
		d.mu.Unlock()
		return
	}
	d.pending = d.pending[1:]
	d.mu.Unlock()

	if current.answer != nil {
		current.answer(current.model.Result())
	}
}

// View renders the current question, or "" when none is pending.
func (d *Dialog) View() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return ""
	}
	return d.pending[0].model.View()
}

// AutoDialog answers every question immediately. It serves headless runs.
type AutoDialog struct {
	Answer bool
	Logger *zerolog.Logger
}

// Confirm implements port.Dialog.
func (d AutoDialog) Confirm(question string, answer func(yes bool)) {
	if d.Logger != nil {
		d.Logger.Info().Str("question", question).Bool("answer", d.Answer).Msg("auto-answered confirmation")
	}
	answer(d.Answer)
}
