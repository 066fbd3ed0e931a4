package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/logging"
	"github.com/bnema/voce/internal/ui/controller"
	"github.com/bnema/voce/internal/ui/mainloop"
)

const maxLabelWidth = 24

// Browser is the window set the chrome displays.
type Browser interface {
	CreateWindow(ctx context.Context, url string) (*controller.WindowController, *entity.Tab, error)
	Windows() []*controller.WindowController
	Done() <-chan struct{}
}

type (
	loopReadyMsg  struct{}
	loopClosedMsg struct{}
	appDoneMsg    struct{}
)

// Options configures the chrome model.
type Options struct {
	Loop    *mainloop.Loop
	Dialog  *Dialog
	Speaker *StatusSpeaker
	Theme   *Theme
}

// Model is the bubbletea model of the browser chrome. It shows one window
// at a time; F6 cycles through the open windows.
type Model struct {
	ctx     context.Context
	loop    *mainloop.Loop
	browser Browser
	dialog  *Dialog
	speaker *StatusSpeaker
	theme   *Theme
	keys    KeyMap
	help    help.Model
	address textinput.Model
	logger  *zerolog.Logger

	focus    *controller.WindowController
	width    int
	height   int
	lastErr  error
	quitting bool
}

// New creates the model. Attach must be called before the program starts.
func New(ctx context.Context, opts Options) *Model {
	theme := opts.Theme
	if theme == nil {
		theme = NewTheme()
	}
	dialog := opts.Dialog
	if dialog == nil {
		dialog = NewDialog(theme)
	}
	speaker := opts.Speaker
	if speaker == nil {
		speaker = NewStatusSpeaker("")
	}

	address := textinput.New()
	address.Placeholder = "Enter URL or search query..."
	address.Prompt = "→ "
	address.CharLimit = 2048
	address.PlaceholderStyle = lipgloss.NewStyle().Foreground(theme.Muted)
	address.TextStyle = lipgloss.NewStyle().Foreground(theme.Text)
	address.PromptStyle = lipgloss.NewStyle().Foreground(theme.Accent)
	address.Cursor.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	return &Model{
		ctx:     ctx,
		loop:    opts.Loop,
		dialog:  dialog,
		speaker: speaker,
		theme:   theme,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		address: address,
		logger:  logging.FromContext(logging.WithComponent(ctx, "tui")),
	}
}

// Attach sets the window set to display.
func (m *Model) Attach(b Browser) {
	m.browser = b
}

// FocusWindow shows w. It is the application's window-opened hook and runs
// on the UI loop.
func (m *Model) FocusWindow(w *controller.WindowController) {
	m.focus = w
	m.syncAddress()
}

// Focused returns the window on screen.
func (m *Model) Focused() *controller.WindowController {
	m.ensureFocus()
	return m.focus
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForLoop(), m.waitForDone())
}

func (m *Model) waitForLoop() tea.Cmd {
	if m.loop == nil {
		return nil
	}
	loop := m.loop
	return func() tea.Msg {
		select {
		case <-loop.Ready():
			return loopReadyMsg{}
		case <-loop.Done():
			return loopClosedMsg{}
		}
	}
}

func (m *Model) waitForDone() tea.Cmd {
	if m.browser == nil {
		return nil
	}
	done := m.browser.Done()
	return func() tea.Msg {
		<-done
		return appDoneMsg{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case loopReadyMsg:
		m.drain()
		cmds = append(cmds, m.waitForLoop())
	case loopClosedMsg, appDoneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.address.Width = max(10, msg.Width-8)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		// Key handlers post work; run it before rendering.
		m.drain()
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) drain() {
	if m.loop != nil {
		m.loop.Drain()
	}
	m.ensureFocus()
	if !m.address.Focused() {
		m.syncAddress()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.dialog.Active() {
		m.dialog.Update(msg)
		return nil
	}
	if m.address.Focused() {
		return m.handleAddressKey(msg)
	}

	w := m.Focused()
	if w == nil {
		return nil
	}
	ctx := m.ctx
	var err error

	switch {
	case key.Matches(msg, m.keys.FocusAddress):
		m.address.SetValue(w.AddressText())
		m.address.CursorEnd()
		return m.address.Focus()
	case key.Matches(msg, m.keys.Blur):
		err = w.Stop(ctx)
	case key.Matches(msg, m.keys.Back):
		err = w.GoBack(ctx)
	case key.Matches(msg, m.keys.Forward):
		err = w.GoForward(ctx)
	case key.Matches(msg, m.keys.Reload):
		err = w.Reload(ctx)
	case key.Matches(msg, m.keys.Home):
		err = w.GoHome(ctx)
	case key.Matches(msg, m.keys.NewTab):
		_, err = w.AddTab(ctx, controller.TabOptions{})
		if err == nil {
			m.address.SetValue("")
			return m.address.Focus()
		}
	case key.Matches(msg, m.keys.CloseTab):
		err = w.CloseCurrentTab(ctx)
	case key.Matches(msg, m.keys.NextTab):
		w.NextTab()
	case key.Matches(msg, m.keys.PrevTab):
		w.PreviousTab()
	case key.Matches(msg, m.keys.NewWindow):
		err = w.OpenWindow(ctx)
	case key.Matches(msg, m.keys.NextWindow):
		m.cycleWindow()
	case key.Matches(msg, m.keys.CloseWindow):
		w.RequestClose()
	case key.Matches(msg, m.keys.Inspect):
		if tab, cerr := w.Tabs().Current(); cerr == nil {
			err = w.OpenDevTools(ctx, tab.ID)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.setErr(err)
	return nil
}

func (m *Model) handleAddressKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		input := m.address.Value()
		m.address.Blur()
		if w := m.Focused(); w != nil {
			m.setErr(w.Navigate(m.ctx, input))
		}
		return nil
	case key.Matches(msg, m.keys.Blur):
		m.address.Blur()
		m.syncAddress()
		return nil
	}
	var cmd tea.Cmd
	m.address, cmd = m.address.Update(msg)
	return cmd
}

func (m *Model) setErr(err error) {
	m.lastErr = err
	if err != nil {
		m.logger.Warn().Err(err).Msg("browser action failed")
	}
}

func (m *Model) ensureFocus() {
	if m.focus != nil && !m.focus.Closed() {
		return
	}
	m.focus = nil
	if m.browser == nil {
		return
	}
	if windows := m.browser.Windows(); len(windows) > 0 {
		m.focus = windows[len(windows)-1]
	}
}

func (m *Model) cycleWindow() {
	if m.browser == nil {
		return
	}
	windows := m.browser.Windows()
	if len(windows) < 2 {
		return
	}
	next := 0
	for i, w := range windows {
		if w == m.focus {
			next = (i + 1) % len(windows)
			break
		}
	}
	m.FocusWindow(windows[next])
}

func (m *Model) syncAddress() {
	if m.focus == nil {
		m.address.SetValue("")
		return
	}
	m.address.SetValue(m.focus.AddressText())
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	w := m.Focused()
	if w == nil {
		return m.theme.Subtle.Render("Starting...")
	}

	sections := []string{
		m.renderTitle(w),
		m.renderTabs(w),
		m.theme.InputBox(m.address.View(), m.address.Focused()),
	}
	if m.dialog.Active() {
		sections = append(sections, m.dialog.View())
	} else {
		sections = append(sections, m.renderPage(w))
	}
	sections = append(sections, m.renderStatus(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle(w *controller.WindowController) string {
	title := m.theme.Title.Render(w.WindowTitle())
	if m.browser == nil {
		return title
	}
	windows := m.browser.Windows()
	if len(windows) < 2 {
		return title
	}
	index := 0
	for i, open := range windows {
		if open == w {
			index = i + 1
			break
		}
	}
	return title + m.theme.Subtle.Render(fmt.Sprintf("  [window %d/%d]", index, len(windows)))
}

func (m *Model) renderTabs(w *controller.WindowController) string {
	current := w.Tabs().CurrentID()
	tabs := w.Tabs().Tabs()
	rendered := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		label := truncate(tab.Label, maxLabelWidth)
		if tab.LoadState == entity.LoadLoading {
			label = "… " + label
		}
		style := m.theme.InactiveTab
		if tab.ID == current {
			style = m.theme.ActiveTab
		}
		rendered = append(rendered, style.Render(label))
	}
	return m.theme.TabBar.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
}

func (m *Model) renderPage(w *controller.WindowController) string {
	tab, err := w.Tabs().Current()
	if err != nil {
		return m.theme.ErrorStyle.Render(err.Error())
	}
	lines := []string{m.theme.Highlight.Render(tab.DisplayTitle())}
	if tab.URL != "" {
		lines = append(lines, m.theme.Subtle.Render(tab.URL))
	}
	state := tab.LoadState.String()
	if tab.LoadState == entity.LoadFailed {
		state = m.theme.ErrorStyle.Render(state)
	}
	lines = append(lines, m.theme.Subtle.Render("state: ")+state)
	if tab.Inspects != "" {
		lines = append(lines, m.theme.Subtle.Render("inspecting "+string(tab.Inspects)))
	}
	return m.theme.Page.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatus() string {
	if m.lastErr != nil {
		return m.theme.WarningStyle.Render(m.lastErr.Error())
	}
	return m.theme.Status.Render(m.speaker.Message())
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
