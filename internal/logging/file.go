package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileName is the log file written while the terminal is owned by the TUI.
const FileName = "voce.log"

// NewWithFile creates a logger that appends to dir/voce.log instead of
// stderr. The returned cleanup closes the file.
func NewWithFile(cfg Config, dir string) (zerolog.Logger, string, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerolog.Nop(), "", func() {}, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), "", func() {}, fmt.Errorf("failed to open log file: %w", err)
	}

	cfg.Output = file
	if cfg.Format == "console" {
		// No color codes in files.
		cfg.Format = "json"
	}
	return New(cfg), path, func() { _ = file.Close() }, nil
}
