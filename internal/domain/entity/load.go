package entity

// LoadState is the navigation state of a browsing context.
type LoadState int

const (
	// LoadIdle means nothing has been requested yet (blank context).
	LoadIdle LoadState = iota
	// LoadLoading means a navigation is in flight.
	LoadLoading
	// LoadCompleted means the last navigation finished successfully.
	LoadCompleted
	// LoadFailed means the last navigation failed or was stopped.
	LoadFailed
)

// String returns a human-readable representation of the load state.
func (s LoadState) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadLoading:
		return "loading"
	case LoadCompleted:
		return "completed"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WindowID uniquely identifies a browser window.
type WindowID string
