// Package assistant runs assistant command production off the UI loop and
// hands the resulting commands to their window on the UI loop.
package assistant

import "sync/atomic"

// State is the process-wide assistant initialization flag. It flips exactly
// once, on the first completed page load of any window, and gates the
// welcome greeting and the start of command production.
type State struct {
	initialized atomic.Bool
}

var global = NewState()

// GlobalState returns the process-wide state shared by every window.
func GlobalState() *State {
	return global
}

// NewState returns an uninitialized state. Tests use their own instance.
func NewState() *State {
	return &State{}
}

// MarkInitialized flips the flag. Only the first caller gets true.
func (s *State) MarkInitialized() bool {
	return s.initialized.CompareAndSwap(false, true)
}

// Initialized reports whether the flag has flipped.
func (s *State) Initialized() bool {
	return s.initialized.Load()
}

// Reset clears the flag.
func (s *State) Reset() {
	s.initialized.Store(false)
}
