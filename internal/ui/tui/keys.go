package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the browser keybindings.
type KeyMap struct {
	FocusAddress key.Binding
	Submit       key.Binding
	Blur         key.Binding
	Back         key.Binding
	Forward      key.Binding
	Reload       key.Binding
	Home         key.Binding
	NewTab       key.Binding
	CloseTab     key.Binding
	NextTab      key.Binding
	PrevTab      key.Binding
	NewWindow    key.Binding
	NextWindow   key.Binding
	CloseWindow  key.Binding
	Inspect      key.Binding
	Help         key.Binding
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusAddress, k.NewTab, k.CloseTab, k.NextTab, k.CloseWindow, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FocusAddress, k.Submit, k.Blur},
		{k.Back, k.Forward, k.Reload, k.Home},
		{k.NewTab, k.CloseTab, k.NextTab, k.PrevTab},
		{k.NewWindow, k.NextWindow, k.CloseWindow},
		{k.Inspect, k.Help},
	}
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		FocusAddress: key.NewBinding(key.WithKeys("ctrl+l", "/"), key.WithHelp("ctrl+l", "address")),
		Submit:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go")),
		Blur:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel/stop")),
		Back:         key.NewBinding(key.WithKeys("alt+left", "h"), key.WithHelp("alt+←", "back")),
		Forward:      key.NewBinding(key.WithKeys("alt+right", "l"), key.WithHelp("alt+→", "forward")),
		Reload:       key.NewBinding(key.WithKeys("ctrl+r", "r"), key.WithHelp("ctrl+r", "reload")),
		Home:         key.NewBinding(key.WithKeys("alt+home", "g"), key.WithHelp("alt+home", "home")),
		NewTab:       key.NewBinding(key.WithKeys("ctrl+t", "t"), key.WithHelp("ctrl+t", "new tab")),
		CloseTab:     key.NewBinding(key.WithKeys("ctrl+w", "x"), key.WithHelp("ctrl+w", "close tab")),
		NextTab:      key.NewBinding(key.WithKeys("ctrl+pgdown", "tab"), key.WithHelp("tab", "next tab")),
		PrevTab:      key.NewBinding(key.WithKeys("ctrl+pgup", "shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		NewWindow:    key.NewBinding(key.WithKeys("ctrl+n", "n"), key.WithHelp("ctrl+n", "new window")),
		NextWindow:   key.NewBinding(key.WithKeys("f6", "w"), key.WithHelp("f6", "next window")),
		CloseWindow:  key.NewBinding(key.WithKeys("ctrl+q", "q"), key.WithHelp("ctrl+q", "close window")),
		Inspect:      key.NewBinding(key.WithKeys("f12", "i"), key.WithHelp("f12", "inspect")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}
