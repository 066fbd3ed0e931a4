package tui

import (
	"context"
	"sync"

	"github.com/bnema/voce/internal/application/port"
)

// StatusSpeaker shows the assistant's greeting on the status line.
type StatusSpeaker struct {
	greeting string

	mu      sync.Mutex
	message string
}

var _ port.Speaker = (*StatusSpeaker)(nil)

// NewStatusSpeaker creates a speaker that greets with greeting.
func NewStatusSpeaker(greeting string) *StatusSpeaker {
	return &StatusSpeaker{greeting: greeting}
}

// Welcome implements port.Speaker.
func (s *StatusSpeaker) Welcome(_ context.Context) error {
	s.Say(s.greeting)
	return nil
}

// Say replaces the status line.
func (s *StatusSpeaker) Say(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Message returns the current status line.
func (s *StatusSpeaker) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}
