package assistant

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/domain/intent"
)

// ChanSource produces commands sent on a Go channel. A closed channel
// exhausts the source.
type ChanSource struct {
	commands <-chan entity.Command
}

// NewChanSource wraps ch.
func NewChanSource(ch <-chan entity.Command) *ChanSource {
	return &ChanSource{commands: ch}
}

// Next implements port.CommandSource.
func (s *ChanSource) Next(ctx context.Context) (entity.Command, error) {
	select {
	case <-ctx.Done():
		return entity.CommandNone, ctx.Err()
	case cmd, ok := <-s.commands:
		if !ok {
			return entity.CommandNone, io.EOF
		}
		return cmd, nil
	}
}

// LineSource reads one utterance per line from a reader, such as stdin.
// Lines that match no intent are logged and skipped.
type LineSource struct {
	reader  io.Reader
	matcher *intent.Matcher
	log     *zerolog.Logger

	once      sync.Once
	lines     chan string
	err       error
	reported  bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewLineSource creates a source over r.
func NewLineSource(r io.Reader, matcher *intent.Matcher, log *zerolog.Logger) *LineSource {
	if matcher == nil {
		matcher = intent.NewMatcher()
	}
	log = orNop(log)
	return &LineSource{reader: r, matcher: matcher, log: log, done: make(chan struct{})}
}

// Close releases the reading goroutine once its pending read returns.
// A read blocked on the reader itself is not interrupted.
func (s *LineSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Next implements port.CommandSource. The reading goroutine is started on
// first use and lives until the reader returns EOF or an error, or Close.
// A read error is returned once; later calls return io.EOF.
func (s *LineSource) Next(ctx context.Context) (entity.Command, error) {
	s.once.Do(s.startReader)

	for {
		select {
		case <-ctx.Done():
			return entity.CommandNone, ctx.Err()
		case line, ok := <-s.lines:
			if !ok {
				if s.err != nil && !s.reported {
					s.reported = true
					return entity.CommandNone, fmt.Errorf("read utterances: %w", s.err)
				}
				return entity.CommandNone, io.EOF
			}
			if cmd, ok := parseLine(s.matcher, s.log, line); ok {
				return cmd, nil
			}
		}
	}
}

func (s *LineSource) startReader() {
	s.lines = make(chan string)
	go func() {
		defer close(s.lines)
		scanner := bufio.NewScanner(s.reader)
		for scanner.Scan() {
			select {
			case s.lines <- scanner.Text():
			case <-s.done:
				return
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
			// Closing s.lines publishes err to Next.
			s.err = err
		}
	}()
}

func parseLine(matcher *intent.Matcher, log *zerolog.Logger, line string) (entity.Command, bool) {
	if intent.Normalize(line) == "" {
		return entity.CommandNone, false
	}
	cmd, err := matcher.Parse(line)
	if err != nil {
		log.Info().Err(err).Str("utterance", line).Msg("ignoring utterance")
		return entity.CommandNone, false
	}
	return cmd, true
}
