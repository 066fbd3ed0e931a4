// Package browser is the application root: it creates windows, tracks the
// open ones and tears the assistant down on exit.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/assistant"
	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/infrastructure/config"
	"github.com/bnema/voce/internal/logging"
	"github.com/bnema/voce/internal/ui/controller"
)

// Options wires an Application. Renderer and Post are required.
type Options struct {
	Config   *config.Config
	Renderer port.Renderer
	Dialog   port.Dialog
	Speaker  port.Speaker
	Source   port.CommandSource
	State    *assistant.State
	// Post enqueues onto the UI loop.
	Post func(func())
	// OnWindowOpened is called on the UI loop for every new window.
	OnWindowOpened func(w *controller.WindowController)
}

// Application is the window factory. It holds non-owning references to
// the open windows; each window owns its tabs and assistant channel.
type Application struct {
	opts   Options
	ctx    context.Context
	logger *zerolog.Logger

	mu       sync.Mutex
	windows  []*controller.WindowController
	channels []*assistant.Channel
	done     chan struct{}
	doneOnce sync.Once
}

var _ controller.Host = (*Application)(nil)

// New creates an application without windows.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.Renderer == nil {
		return nil, errors.New("browser: renderer is required")
	}
	if opts.Post == nil {
		return nil, errors.New("browser: post function is required")
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.State == nil {
		opts.State = assistant.GlobalState()
	}
	ctx = logging.WithComponent(ctx, "browser")
	return &Application{
		opts:   opts,
		ctx:    ctx,
		logger: logging.FromContext(ctx),
		done:   make(chan struct{}),
	}, nil
}

// CreateWindow opens a window whose first tab loads url, or the home page
// when url is empty. Must run on the UI loop.
func (a *Application) CreateWindow(ctx context.Context, url string) (*controller.WindowController, *entity.Tab, error) {
	if url == "" {
		url = a.opts.Config.HomeURL
	}
	return a.openWindow(ctx, controller.TabOptions{URL: url})
}

// AdoptWindow opens a window around a surface the renderer already created
// for a page's window.open request. Must run on the UI loop.
func (a *Application) AdoptWindow(ctx context.Context, nav port.NavigationContext) (*controller.WindowController, *entity.Tab, error) {
	if nav == nil {
		return nil, nil, errors.New("adopt window: nil surface")
	}
	return a.openWindow(ctx, controller.TabOptions{Context: nav})
}

func (a *Application) openWindow(ctx context.Context, tab controller.TabOptions) (*controller.WindowController, *entity.Tab, error) {
	select {
	case <-a.done:
		return nil, nil, errors.New("open window: application finished")
	default:
	}

	w, err := controller.NewWindowController(a.ctx, controller.WindowOptions{
		Config:   a.opts.Config,
		Renderer: a.opts.Renderer,
		Host:     a,
		Dialog:   a.opts.Dialog,
		Speaker:  a.opts.Speaker,
		Source:   a.opts.Source,
		State:    a.opts.State,
		Post:     a.opts.Post,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open window: %w", err)
	}

	// Registered before the first load so the window is listed when it completes.
	a.mu.Lock()
	a.windows = append(a.windows, w)
	a.channels = append(a.channels, w.Channel())
	count := len(a.windows)
	a.mu.Unlock()

	initial, err := w.AddTab(ctx, tab)
	if err != nil {
		w.Channel().Stop()
		a.unregister(w)
		return nil, nil, fmt.Errorf("open window: %w", err)
	}

	a.logger.Info().
		Str("window_id", string(w.ID())).
		Str("url", initial.URL).
		Int("windows", count).
		Msg("window opened")
	if a.opts.OnWindowOpened != nil {
		a.opts.OnWindowOpened(w)
	}
	return w, initial, nil
}

// WindowClosed implements controller.Host.
func (a *Application) WindowClosed(w *controller.WindowController) {
	remaining := a.unregister(w)
	a.logger.Info().
		Str("window_id", string(w.ID())).
		Int("windows", remaining).
		Msg("window closed")
	if remaining == 0 {
		a.finish()
	}
}

// unregister drops w and returns how many windows are left.
func (a *Application) unregister(w *controller.WindowController) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, open := range a.windows {
		if open == w {
			a.windows = append(a.windows[:i], a.windows[i+1:]...)
			break
		}
	}
	return len(a.windows)
}

// Windows returns the open windows in creation order.
func (a *Application) Windows() []*controller.WindowController {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*controller.WindowController, len(a.windows))
	copy(out, a.windows)
	return out
}

// Done is closed when the last window closes or Shutdown is called.
func (a *Application) Done() <-chan struct{} {
	return a.done
}

// Shutdown stops the assistant channel of every window ever opened,
// including closed ones, and waits for their loops to exit. It shows no UI
// and must not run on the UI loop.
func (a *Application) Shutdown(ctx context.Context) error {
	a.finish()

	a.mu.Lock()
	channels := make([]*assistant.Channel, len(a.channels))
	copy(channels, a.channels)
	a.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, channel := range channels {
		channel.Stop()
		g.Go(func() error {
			return channel.Wait(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Debug().Msg("assistant channels joined")
	return nil
}

func (a *Application) finish() {
	a.doneOnce.Do(func() { close(a.done) })
}
