// Package cli holds the command-line application: configuration, logging and
// the browse session that ties the renderer, windows and chrome together.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/domain/build"
	"github.com/bnema/voce/internal/infrastructure/config"
	"github.com/bnema/voce/internal/logging"
	"github.com/bnema/voce/internal/ui/tui"
)

const logTimeFormat = "15:04:05"

// App holds CLI dependencies.
type App struct {
	Config    *config.Config
	Manager   *config.Manager
	Theme     *tui.Theme
	BuildInfo build.Info

	// Context with logger
	ctx        context.Context
	logCleanup func()
}

// NewApp loads the configuration (configFile may be empty) and builds the
// stderr logger. Browse sessions that take over the terminal switch to a
// file logger with LogToFile.
func NewApp(configFile string) (*App, error) {
	mgr, err := config.NewManager(configFile)
	if err != nil {
		return nil, fmt.Errorf("create config manager: %w", err)
	}
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Get()

	app := &App{
		Config:  cfg,
		Manager: mgr,
		Theme:   tui.NewTheme(),
	}
	app.setLogger(logging.New(app.logConfig(nil)))
	return app, nil
}

// logConfig builds the logger at trace and filters with the global level,
// so a config reload can lower or raise verbosity.
func (a *App) logConfig(out io.Writer) logging.Config {
	zerolog.SetGlobalLevel(logging.ParseLevel(a.Config.Logging.Level))
	return logging.Config{
		Level:      zerolog.TraceLevel,
		Format:     a.Config.Logging.Format,
		TimeFormat: logTimeFormat,
		Output:     out,
	}
}

func (a *App) setLogger(logger zerolog.Logger) {
	a.ctx = logging.WithContext(context.Background(), logger)
}

// LogToFile redirects logging to the state directory and returns the file path.
func (a *App) LogToFile() (string, error) {
	dir, err := config.GetStateDir()
	if err != nil {
		return "", err
	}
	logger, path, cleanup, err := logging.NewWithFile(a.logConfig(nil), dir)
	if err != nil {
		return "", err
	}
	a.closeLog()
	a.logCleanup = cleanup
	a.setLogger(logger)
	return path, nil
}

// WatchConfig reloads the config file on change and applies the new log level.
func (a *App) WatchConfig() {
	log := logging.FromContext(a.ctx)
	a.Manager.OnConfigChange(func(cfg *config.Config) {
		zerolog.SetGlobalLevel(logging.ParseLevel(cfg.Logging.Level))
		log.Info().Str("level", cfg.Logging.Level).Msg("config reloaded")
	})
	a.Manager.Watch(log)
}

// Close releases all resources.
func (a *App) Close() error {
	a.closeLog()
	return nil
}

func (a *App) closeLog() {
	if a.logCleanup != nil {
		a.logCleanup()
		a.logCleanup = nil
	}
}

// Ctx returns the application context with logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}
