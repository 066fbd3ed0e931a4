package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/assistant"
	"github.com/bnema/voce/internal/domain/entity"
	domainurl "github.com/bnema/voce/internal/domain/url"
	"github.com/bnema/voce/internal/infrastructure/config"
	"github.com/bnema/voce/internal/logging"
	"github.com/bnema/voce/internal/ui/mainloop"
)

// CloseQuestion is asked before a window closes.
const CloseQuestion = "Are you sure you want to close this window?"

// Host creates and tracks windows. The browser application implements it.
type Host interface {
	// CreateWindow opens a window whose first tab loads url (home when empty).
	CreateWindow(ctx context.Context, url string) (*WindowController, *entity.Tab, error)
	// AdoptWindow opens a window whose first tab is an existing surface.
	AdoptWindow(ctx context.Context, nav port.NavigationContext) (*WindowController, *entity.Tab, error)
	// WindowClosed is called once, after the window released its tabs.
	WindowClosed(w *WindowController)
}

// WindowOptions wires a WindowController.
type WindowOptions struct {
	ID       entity.WindowID
	Config   *config.Config
	Renderer port.Renderer
	Host     Host
	Dialog   port.Dialog
	Speaker  port.Speaker
	Source   port.CommandSource
	State    *assistant.State
	// Post enqueues onto the UI loop. Required.
	Post func(func())
}

// WindowController owns one window: its tabs, its assistant channel and the
// chrome state (address text, window title). All methods must run on the
// UI loop; renderer events are marshaled there via Post.
type WindowController struct {
	id       entity.WindowID
	ctx      context.Context
	cfg      *config.Config
	renderer port.Renderer
	host     Host
	dialog   port.Dialog
	speaker  port.Speaker
	state    *assistant.State
	post     func(func())

	tabs      *TabManager
	channel   *assistant.Channel
	coalescer *mainloop.Coalescer
	logger    *zerolog.Logger

	addressText string
	windowTitle string
	confirming  bool
	closed      bool
}

// NewWindowController creates a window without tabs. Callers open the
// initial tab with AddTab before showing it.
func NewWindowController(ctx context.Context, opts WindowOptions) (*WindowController, error) {
	if opts.Post == nil {
		return nil, errors.New("new window: post function is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("new window: renderer is required")
	}
	if opts.ID == "" {
		opts.ID = entity.WindowID(uuid.NewString())
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.State == nil {
		opts.State = assistant.GlobalState()
	}

	ctx = logging.WithWindowID(logging.WithComponent(ctx, "window"), string(opts.ID))
	w := &WindowController{
		id:       opts.ID,
		ctx:      ctx,
		cfg:      opts.Config,
		renderer: opts.Renderer,
		host:     opts.Host,
		dialog:   opts.Dialog,
		speaker:  opts.Speaker,
		state:    opts.State,
		post:     opts.Post,
		logger:   logging.FromContext(ctx),
	}
	w.coalescer = mainloop.NewCoalescer(opts.Post)
	w.tabs = NewTabManager(ctx, opts.Renderer, w.onNavEvent)

	var channelOpts []assistant.Option
	if opts.Config.Assistant.RetryBackoff > 0 {
		channelOpts = append(channelOpts, assistant.WithBackoff(opts.Config.Assistant.RetryBackoff))
	}
	w.channel = assistant.NewChannel(ctx, opts.Source, opts.Post, channelOpts...)
	w.channel.SetHandler(w.HandleCommand)
	w.windowTitle = w.composeTitle(nil)
	return w, nil
}

// ID returns the window ID.
func (w *WindowController) ID() entity.WindowID { return w.id }

// Tabs returns the window's tab manager.
func (w *WindowController) Tabs() *TabManager { return w.tabs }

// Channel returns the window's assistant channel.
func (w *WindowController) Channel() *assistant.Channel { return w.channel }

// AddressText returns the address bar text.
func (w *WindowController) AddressText() string { return w.addressText }

// WindowTitle returns "<page title> - <app name>".
func (w *WindowController) WindowTitle() string { return w.windowTitle }

// Closed reports whether the window went through its close sequence.
func (w *WindowController) Closed() bool { return w.closed }

// Confirming reports whether a close confirmation is pending.
func (w *WindowController) Confirming() bool { return w.confirming }

// AddTab opens a tab and makes it current.
func (w *WindowController) AddTab(ctx context.Context, opts TabOptions) (*entity.Tab, error) {
	if w.closed {
		return nil, errors.New("add tab: window closed")
	}
	tab, err := w.tabs.AddTab(ctx, opts)
	if err != nil {
		return nil, err
	}
	if nav, ok := w.tabs.Context(tab.ID); ok {
		nav.SetSurfaceHandler(w.surfaceHandler(tab.ID))
	}
	w.syncChrome()
	return tab, nil
}

// Activate makes id current and resynchronizes the chrome from it.
func (w *WindowController) Activate(id entity.TabID) error {
	if err := w.tabs.Activate(id); err != nil {
		return err
	}
	w.syncChrome()
	return nil
}

// NextTab activates the tab after the current one.
func (w *WindowController) NextTab() {
	if _, err := w.tabs.ActivateNext(); err == nil {
		w.syncChrome()
	}
}

// PreviousTab activates the tab before the current one.
func (w *WindowController) PreviousTab() {
	if _, err := w.tabs.ActivatePrevious(); err == nil {
		w.syncChrome()
	}
}

// CloseTab closes tab id. Closing the last tab starts the window close
// sequence instead.
func (w *WindowController) CloseTab(ctx context.Context, id entity.TabID) error {
	if w.closed {
		return nil
	}
	shouldClose, err := w.tabs.RemoveTab(ctx, id)
	if err != nil {
		return err
	}
	if shouldClose {
		w.RequestClose()
		return nil
	}
	w.coalescer.CancelPrefix(string(id) + ":")
	w.syncChrome()
	return nil
}

// CloseCurrentTab closes the current tab.
func (w *WindowController) CloseCurrentTab(ctx context.Context) error {
	tab, err := w.tabs.Current()
	if err != nil {
		return err
	}
	return w.CloseTab(ctx, tab.ID)
}

// Navigate resolves address bar input and loads it in the current tab.
// Input that is not clearly a URL becomes a search query.
func (w *WindowController) Navigate(ctx context.Context, input string) error {
	nav, err := w.tabs.CurrentContext()
	if err != nil {
		return err
	}
	res := domainurl.Resolve(input, w.cfg.SearchEngineBase)
	logging.FromContext(logging.WithURL(w.ctx, res.URL)).Debug().
		Str("input", input).
		Bool("search", res.IsSearch).
		Msg("navigating")
	w.addressText = res.URL
	if err := nav.Navigate(ctx, res.URL); err != nil {
		return fmt.Errorf("navigate %s: %w", res.URL, err)
	}
	return nil
}

// GoBack navigates the current tab back.
func (w *WindowController) GoBack(ctx context.Context) error {
	return w.withCurrent(func(nav port.NavigationContext) error { return nav.Back(ctx) })
}

// GoForward navigates the current tab forward.
func (w *WindowController) GoForward(ctx context.Context) error {
	return w.withCurrent(func(nav port.NavigationContext) error { return nav.Forward(ctx) })
}

// Stop stops loading the current tab.
func (w *WindowController) Stop(ctx context.Context) error {
	return w.withCurrent(func(nav port.NavigationContext) error { return nav.Stop(ctx) })
}

// Reload reloads the current tab and puts its URL back in the address bar.
func (w *WindowController) Reload(ctx context.Context) error {
	return w.withCurrent(func(nav port.NavigationContext) error {
		if err := nav.Reload(ctx); err != nil {
			return err
		}
		w.addressText = nav.URL()
		return nil
	})
}

// GoHome loads the home page in the current tab.
func (w *WindowController) GoHome(ctx context.Context) error {
	return w.withCurrent(func(nav port.NavigationContext) error {
		if err := nav.Navigate(ctx, w.cfg.HomeURL); err != nil {
			return err
		}
		w.addressText = w.cfg.HomeURL
		return nil
	})
}

func (w *WindowController) withCurrent(fn func(nav port.NavigationContext) error) error {
	nav, err := w.tabs.CurrentContext()
	if err != nil {
		return err
	}
	return fn(nav)
}

// HandleCommand executes an assistant command. It is the channel's handler
// and runs on the UI loop.
func (w *WindowController) HandleCommand(cmd entity.Command) {
	if w.closed {
		return
	}
	log := w.logger.With().Str("command", cmd.String()).Logger()
	log.Info().Msg("assistant command")

	var err error
	switch cmd {
	case entity.CommandOpenTab:
		_, err = w.AddTab(w.ctx, TabOptions{})
	case entity.CommandCloseCurrentTab:
		err = w.CloseCurrentTab(w.ctx)
	case entity.CommandOpenWindow:
		err = w.OpenWindow(w.ctx)
	case entity.CommandCloseCurrentWindow:
		w.RequestClose()
	case entity.CommandWelcome:
		if w.speaker != nil {
			err = w.speaker.Welcome(w.ctx)
		}
	default:
		log.Warn().Msg("ignoring unknown command")
	}
	if err != nil {
		log.Error().Err(err).Msg("assistant command failed")
	}
}

// OpenWindow opens a new window at the home page.
func (w *WindowController) OpenWindow(ctx context.Context) error {
	if w.host == nil {
		return errors.New("open window: no host")
	}
	_, _, err := w.host.CreateWindow(ctx, "")
	return err
}

// RequestClose asks for confirmation and closes the window on yes. Requests
// made while a confirmation is pending are ignored.
func (w *WindowController) RequestClose() {
	if w.closed || w.confirming {
		return
	}
	if w.dialog == nil || !w.cfg.Window.ConfirmClose {
		w.close()
		return
	}

	w.confirming = true
	w.dialog.Confirm(CloseQuestion, func(yes bool) {
		w.confirming = false
		if !yes {
			w.logger.Debug().Msg("window close declined")
			return
		}
		w.close()
	})
}

func (w *WindowController) close() {
	if w.closed {
		return
	}
	w.tabs.CloseAll()
	w.channel.Stop()
	w.coalescer.Destroy()
	w.closed = true
	w.logger.Info().Msg("window closed")
	if w.host != nil {
		w.host.WindowClosed(w)
	}
}

// OpenDevTools opens an inspector for tab id in a new tab labelled with the
// inspected page's title. Closing the inspector leaves the target open.
func (w *WindowController) OpenDevTools(ctx context.Context, id entity.TabID) error {
	target, ok := w.tabs.Context(id)
	if !ok {
		return fmt.Errorf("open devtools for %s: %w", id, ErrTabNotFound)
	}
	nav, err := w.renderer.NewContext(ctx)
	if err != nil {
		return fmt.Errorf("open devtools: %w", err)
	}
	tab, err := w.AddTab(ctx, TabOptions{
		Label:    w.tabs.Find(id).DisplayTitle(),
		Context:  nav,
		Inspects: id,
	})
	if err != nil {
		_ = nav.Close()
		return fmt.Errorf("open devtools: %w", err)
	}
	if err := nav.AttachInspector(ctx, target); err != nil {
		_ = w.CloseTab(ctx, tab.ID)
		return fmt.Errorf("open devtools: %w", err)
	}
	return nil
}

// surfaceHandler answers page requests for new tabs and windows. It may be
// called off the UI loop: the surface is created right away and adopted on
// the loop, so the renderer can populate it immediately.
func (w *WindowController) surfaceHandler(opener entity.TabID) port.SurfaceHandler {
	return func(req port.SurfaceRequest) port.NavigationContext {
		if req.Kind == port.SurfaceWindow && w.host == nil {
			return nil
		}
		nav, err := w.renderer.NewContext(w.ctx)
		if err != nil {
			w.logger.Error().Err(err).Str("opener", string(opener)).Msg("failed to create surface")
			return nil
		}
		w.post(func() { w.adoptSurface(req, nav) })
		return nav
	}
}

func (w *WindowController) adoptSurface(req port.SurfaceRequest, nav port.NavigationContext) {
	var err error
	switch {
	case req.Kind == port.SurfaceWindow:
		_, _, err = w.host.AdoptWindow(w.ctx, nav)
	case w.closed:
		err = errors.New("window closed")
	default:
		_, err = w.AddTab(w.ctx, TabOptions{Context: nav})
	}
	if err != nil {
		w.logger.Warn().Err(err).Str("kind", req.Kind.String()).Msg("dropping requested surface")
		_ = nav.Close()
	}
}

// onNavEvent runs on the renderer's goroutine.
func (w *WindowController) onNavEvent(id entity.TabID, ev port.NavEvent) {
	switch ev.Kind {
	case port.NavURLChanged, port.NavTitleChanged, port.NavIconChanged:
		w.coalescer.Post(string(id)+":"+ev.Kind.String(), func() { w.applyNavEvent(id, ev) })
	default:
		w.post(func() { w.applyNavEvent(id, ev) })
	}
}

func (w *WindowController) applyNavEvent(id entity.TabID, ev port.NavEvent) {
	if w.closed {
		return
	}
	tab := w.tabs.Find(id)
	if tab == nil {
		logging.FromContext(logging.WithTabID(w.ctx, string(id))).Debug().
			Str("event", ev.Kind.String()).
			Msg("dropping event for removed tab")
		return
	}
	current := w.tabs.CurrentID() == id

	switch ev.Kind {
	case port.NavURLChanged:
		tab.URL = ev.URL
		if current {
			w.addressText = ev.URL
		}
	case port.NavTitleChanged:
		tab.Title = ev.Title
		if tab.Inspects == "" {
			tab.Label = tab.DisplayTitle()
		}
		if current {
			w.windowTitle = w.composeTitle(tab)
		}
	case port.NavIconChanged:
		tab.Icon = ev.Icon
	case port.NavLoadStarted:
		tab.LoadState = entity.LoadLoading
	case port.NavLoadFinished:
		if ev.OK {
			tab.LoadState = entity.LoadCompleted
			w.initAssistant()
		} else {
			tab.LoadState = entity.LoadFailed
		}
	case port.NavDevToolsRequested:
		if err := w.OpenDevTools(w.ctx, id); err != nil {
			w.logger.Error().Err(err).Msg("failed to open devtools")
		}
	}
}

// initAssistant greets and starts command production on the first
// completed load of the process.
func (w *WindowController) initAssistant() {
	if !w.state.MarkInitialized() {
		return
	}
	w.logger.Info().Msg("first page loaded, starting assistant")
	w.channel.EmitWelcome()
	w.channel.Start(w.ctx)
}

func (w *WindowController) syncChrome() {
	tab := w.tabs.tabs.ActiveTab()
	if tab == nil {
		return
	}
	w.addressText = tab.URL
	w.windowTitle = w.composeTitle(tab)
}

func (w *WindowController) composeTitle(tab *entity.Tab) string {
	return tab.DisplayTitle() + " - " + w.cfg.AppName
}
