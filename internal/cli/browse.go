package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/voce/internal/app/browser"
	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/assistant"
	"github.com/bnema/voce/internal/domain/intent"
	"github.com/bnema/voce/internal/infrastructure/config"
	"github.com/bnema/voce/internal/infrastructure/renderer/cdp"
	"github.com/bnema/voce/internal/infrastructure/renderer/memory"
	"github.com/bnema/voce/internal/logging"
	"github.com/bnema/voce/internal/ui/controller"
	"github.com/bnema/voce/internal/ui/mainloop"
	"github.com/bnema/voce/internal/ui/tui"
)

const shutdownTimeout = 5 * time.Second

// BrowseOptions are the per-invocation overrides of the browse command.
type BrowseOptions struct {
	// URL opens in the first window; empty means the home page.
	URL string
	// Engine overrides renderer.engine when set.
	Engine string
	// Headless overrides renderer.headless when set.
	Headless *bool
	// NoTUI runs without the terminal chrome: confirmations are accepted
	// and the greeting is printed to Out.
	NoTUI bool
	// IntentFile overrides assistant.intent_file when set.
	IntentFile string
	// Stdin reads utterances from In (NoTUI only).
	Stdin bool
	// Watch reloads the config file on change.
	Watch bool

	In    io.Reader
	Out   io.Writer
	State *assistant.State
}

// Browse runs a browser session until the last window closes or ctx ends.
func (a *App) Browse(ctx context.Context, opts BrowseOptions) error {
	cfg := *a.Config
	if err := applyBrowseOverrides(&cfg, opts); err != nil {
		return err
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if !opts.NoTUI {
		path, err := a.LogToFile()
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() { fmt.Fprintf(opts.Out, "logs: %s\n", path) }()
	}
	if opts.Watch {
		a.WatchConfig()
	}

	ctx = logging.WithContext(ctx, *logging.FromContext(a.ctx))
	ctx = logging.WithComponent(ctx, "browse")
	log := logging.FromContext(ctx)

	renderer, err := newRenderer(ctx, cfg.Renderer)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := renderer.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close renderer")
		}
	}()

	source, closeSource, err := newCommandSource(cfg.Assistant, opts, log)
	if err != nil {
		return err
	}
	defer closeSource()

	loop := mainloop.New()
	session := &browseSession{
		ctx:      ctx,
		cfg:      &cfg,
		loop:     loop,
		renderer: renderer,
		source:   source,
		state:    opts.State,
		url:      opts.URL,
		log:      log,
	}
	if opts.NoTUI {
		return session.runHeadless(opts.Out)
	}
	return session.runTUI(a.Theme)
}

func applyBrowseOverrides(cfg *config.Config, opts BrowseOptions) error {
	if opts.Engine != "" {
		cfg.Renderer.Engine = config.RendererEngine(opts.Engine)
	}
	switch cfg.Renderer.Engine {
	case config.RendererCDP, config.RendererMemory:
	default:
		return fmt.Errorf("unknown renderer engine %q (want cdp or memory)", cfg.Renderer.Engine)
	}
	if opts.Headless != nil {
		cfg.Renderer.Headless = *opts.Headless
	}
	if opts.IntentFile != "" {
		cfg.Assistant.IntentFile = opts.IntentFile
		cfg.Assistant.Enabled = true
	}
	if opts.Stdin {
		if !opts.NoTUI {
			return errors.New("--stdin requires --no-tui: the terminal belongs to the chrome")
		}
		cfg.Assistant.Stdin = true
		cfg.Assistant.Enabled = true
	}
	return nil
}

func newRenderer(ctx context.Context, cfg config.RendererConfig) (port.Renderer, error) {
	if cfg.Engine == config.RendererMemory {
		return memory.New(), nil
	}
	r, err := cdp.New(ctx, cdp.OptionsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("start renderer: %w", err)
	}
	return r, nil
}

// newCommandSource picks the assistant input. The intent file wins over
// stdin; a nil source leaves the assistant idle.
func newCommandSource(cfg config.AssistantConfig, opts BrowseOptions, log *zerolog.Logger) (port.CommandSource, func(), error) {
	nop := func() {}
	if !cfg.Enabled {
		return nil, nop, nil
	}
	matcher := intent.NewMatcher()
	matcher.MaxDistanceRatio = cfg.FuzzyRatio

	switch {
	case cfg.IntentFile != "":
		src := assistant.NewFileSource(cfg.IntentFile, matcher, log)
		log.Info().Str("path", src.Path()).Msg("following intent file")
		return src, func() { _ = src.Close() }, nil
	case cfg.Stdin && opts.NoTUI:
		src := assistant.NewLineSource(opts.In, matcher, log)
		return src, func() { _ = src.Close() }, nil
	}
	log.Debug().Msg("assistant enabled without an input")
	return nil, nop, nil
}

type browseSession struct {
	ctx      context.Context
	cfg      *config.Config
	loop     *mainloop.Loop
	renderer port.Renderer
	source   port.CommandSource
	state    *assistant.State
	url      string
	log      *zerolog.Logger
}

func (s *browseSession) newApplication(dialog port.Dialog, speaker port.Speaker, onOpen func(*controller.WindowController)) (*browser.Application, error) {
	return browser.New(s.ctx, browser.Options{
		Config:         s.cfg,
		Renderer:       s.renderer,
		Dialog:         dialog,
		Speaker:        speaker,
		Source:         s.source,
		State:          s.state,
		Post:           func(fn func()) { s.loop.Post(fn) },
		OnWindowOpened: onOpen,
	})
}

// openFirstWindow posts the first window. On failure the loop is closed,
// which ends the session with the returned error.
func (s *browseSession) openFirstWindow(app *browser.Application) *error {
	var openErr error
	s.loop.Post(func() {
		if _, _, err := app.CreateWindow(s.ctx, s.url); err != nil {
			openErr = fmt.Errorf("open window: %w", err)
			s.loop.Close()
		}
	})
	return &openErr
}

func (s *browseSession) runHeadless(out io.Writer) error {
	dialog := tui.AutoDialog{Answer: true, Logger: s.log}
	speaker := assistant.NewLogSpeaker(s.cfg.Assistant.Greeting, out, s.log)
	app, err := s.newApplication(dialog, speaker, nil)
	if err != nil {
		return err
	}
	openErr := s.openFirstWindow(app)

	g, gctx := errgroup.WithContext(s.ctx)
	g.Go(func() error {
		return s.loop.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-app.Done():
		case <-gctx.Done():
		case <-s.loop.Done():
		}
		s.loop.Close()
		return nil
	})
	err = g.Wait()
	return s.finish(app, err, *openErr)
}

func (s *browseSession) runTUI(theme *tui.Theme) error {
	dialog := tui.NewDialog(theme)
	speaker := tui.NewStatusSpeaker(s.cfg.Assistant.Greeting)
	model := tui.New(s.ctx, tui.Options{
		Loop:    s.loop,
		Dialog:  dialog,
		Speaker: speaker,
		Theme:   theme,
	})
	app, err := s.newApplication(dialog, speaker, model.FocusWindow)
	if err != nil {
		return err
	}
	model.Attach(app)
	openErr := s.openFirstWindow(app)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(s.ctx))
	_, err = program.Run()
	s.loop.Close()
	if errors.Is(err, tea.ErrProgramKilled) && s.ctx.Err() != nil {
		err = nil
	}
	return s.finish(app, err, *openErr)
}

func (s *browseSession) finish(app *browser.Application, runErr, openErr error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), shutdownTimeout)
	defer cancel()
	shutdownErr := app.Shutdown(ctx)
	if shutdownErr != nil {
		s.log.Warn().Err(shutdownErr).Msg("assistant channels did not stop in time")
	}
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(openErr, runErr, shutdownErr)
}
