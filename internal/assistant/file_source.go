package assistant

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/domain/intent"
)

// FileSource follows an intent file: every line appended to it is one
// utterance. Lines present when the source starts are ignored. A truncated
// or recreated file is read again from the start.
//
// Next is meant to be called from a single goroutine (the channel loop).
type FileSource struct {
	path    string
	matcher *intent.Matcher
	log     *zerolog.Logger

	watcher *fsnotify.Watcher
	file    *os.File
	offset  int64
	partial string
	pending []entity.Command
}

// NewFileSource creates a source following path. The file is created on
// first use if missing.
func NewFileSource(path string, matcher *intent.Matcher, log *zerolog.Logger) *FileSource {
	if matcher == nil {
		matcher = intent.NewMatcher()
	}
	log = orNop(log)
	return &FileSource{path: filepath.Clean(path), matcher: matcher, log: log}
}

// Path returns the followed file.
func (s *FileSource) Path() string {
	return s.path
}

// Next implements port.CommandSource.
func (s *FileSource) Next(ctx context.Context) (entity.Command, error) {
	if err := s.init(); err != nil {
		return entity.CommandNone, err
	}

	for {
		if len(s.pending) > 0 {
			cmd := s.pending[0]
			s.pending = s.pending[1:]
			return cmd, nil
		}

		select {
		case <-ctx.Done():
			return entity.CommandNone, ctx.Err()
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return entity.CommandNone, io.EOF
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if err := s.handleEvent(ev); err != nil {
				return entity.CommandNone, err
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return entity.CommandNone, io.EOF
			}
			return entity.CommandNone, fmt.Errorf("watch intent file: %w", err)
		}
	}
}

// Close releases the watcher and the file.
func (s *FileSource) Close() error {
	var firstErr error
	if s.watcher != nil {
		firstErr = s.watcher.Close()
		s.watcher = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}
	return firstErr
}

func (s *FileSource) init() error {
	if s.watcher != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create intent directory: %w", err)
	}
	if err := s.open(true); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create intent watcher: %w", err)
	}
	// Watch the directory so that editors replacing the file are followed.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch intent directory: %w", err)
	}
	s.watcher = watcher
	s.log.Info().Str("path", s.path).Msg("following intent file")
	return nil
}

func (s *FileSource) open(seekEnd bool) error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	f, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open intent file: %w", err)
	}
	s.file = f
	s.offset = 0
	s.partial = ""
	if seekEnd {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat intent file: %w", err)
		}
		s.offset = info.Size()
	}
	return nil
}

func (s *FileSource) handleEvent(ev fsnotify.Event) error {
	switch {
	case ev.Has(fsnotify.Create):
		if err := s.open(false); err != nil {
			return err
		}
		return s.readAppended()
	case ev.Has(fsnotify.Write):
		return s.readAppended()
	}
	return nil
}

func (s *FileSource) readAppended() error {
	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("stat intent file: %w", err)
	}
	size := info.Size()
	if size < s.offset {
		s.offset = 0
		s.partial = ""
	}
	if size == s.offset {
		return nil
	}

	buf := make([]byte, size-s.offset)
	n, err := s.file.ReadAt(buf, s.offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read intent file: %w", err)
	}
	s.offset += int64(n)

	lines := strings.Split(s.partial+string(buf[:n]), "\n")
	s.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if cmd, ok := parseLine(s.matcher, s.log, strings.TrimRight(line, "\r")); ok {
			s.pending = append(s.pending, cmd)
		}
	}
	return nil
}
