package assistant

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// LogSpeaker renders the greeting as a log entry and, optionally, as a line
// on out. It stands in for speech output.
type LogSpeaker struct {
	greeting string
	out      io.Writer
	log      *zerolog.Logger
}

// NewLogSpeaker creates a speaker. out may be nil.
func NewLogSpeaker(greeting string, out io.Writer, log *zerolog.Logger) *LogSpeaker {
	log = orNop(log)
	return &LogSpeaker{greeting: greeting, out: out, log: log}
}

// Welcome implements port.Speaker.
func (s *LogSpeaker) Welcome(_ context.Context) error {
	s.log.Info().Str("greeting", s.greeting).Msg("assistant welcome")
	if s.out == nil {
		return nil
	}
	if _, err := fmt.Fprintln(s.out, s.greeting); err != nil {
		return fmt.Errorf("write greeting: %w", err)
	}
	return nil
}

func orNop(log *zerolog.Logger) *zerolog.Logger {
	if log != nil {
		return log
	}
	nop := zerolog.Nop()
	return &nop
}
