package entity

// Command is a discrete instruction produced by the assistant.
// Commands are plain values: once produced they are never mutated.
type Command int

const (
	// CommandNone is the zero value and is never dispatched.
	CommandNone Command = iota
	// CommandOpenTab opens a new blank tab in the window.
	CommandOpenTab
	// CommandCloseCurrentTab closes the active tab.
	CommandCloseCurrentTab
	// CommandOpenWindow opens a new window at the home URL.
	CommandOpenWindow
	// CommandCloseCurrentWindow starts the close sequence of the window.
	CommandCloseCurrentWindow
	// CommandWelcome asks the assistant to greet the user.
	CommandWelcome
)

var commandNames = map[Command]string{
	CommandNone:               "none",
	CommandOpenTab:            "open_tab",
	CommandCloseCurrentTab:    "close_current_tab",
	CommandOpenWindow:         "open_window",
	CommandCloseCurrentWindow: "close_current_window",
	CommandWelcome:            "welcome",
}

// String returns the snake_case name of the command.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether c is a dispatchable command.
func (c Command) Valid() bool {
	return c > CommandNone && c <= CommandWelcome
}

// ParseCommand resolves a snake_case command name.
func ParseCommand(name string) (Command, bool) {
	for cmd, n := range commandNames {
		if n == name && cmd.Valid() {
			return cmd, true
		}
	}
	return CommandNone, false
}
