// Package cdp drives Chrome or Chromium over the DevTools protocol. Every
// navigation context is one browser target (a tab); popups opened by pages
// are handed to the surface handler and the browser's own popup target is
// closed, so each surface stays owned by exactly one window.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/infrastructure/config"
	"github.com/bnema/voce/internal/logging"
)

// ErrClosed is returned when using a closed renderer or context.
var ErrClosed = errors.New("cdp renderer: closed")

const defaultActionTimeout = 30 * time.Second

// Options configures the browser process.
type Options struct {
	Headless      bool
	ExecPath      string
	DebugPort     int
	UserDataDir   string
	ActionTimeout time.Duration
}

// OptionsFromConfig maps the renderer section of the configuration.
func OptionsFromConfig(cfg config.RendererConfig) Options {
	return Options{
		Headless:      cfg.Headless,
		ExecPath:      cfg.ExecPath,
		DebugPort:     cfg.DebugPort,
		UserDataDir:   cfg.UserDataDir,
		ActionTimeout: cfg.ActionTimeout,
	}
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-gpu", o.Headless),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.DebugPort > 0 {
		opts = append(opts, chromedp.Flag("remote-debugging-port", o.DebugPort))
	}
	if o.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(o.UserDataDir))
	}
	return opts
}

// Renderer owns one browser process.
type Renderer struct {
	opts   Options
	logger *zerolog.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu       sync.Mutex
	contexts map[target.ID]*Context
	seq      int
	closed   bool
}

// New launches the browser and waits until it accepts commands.
func New(ctx context.Context, opts Options) (*Renderer, error) {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}
	logger := logging.FromContext(logging.WithComponent(ctx, "cdp"))

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Error().Msgf(format, args...)
		}),
	)

	r := &Renderer{
		opts:          opts,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		contexts:      make(map[target.ID]*Context),
	}

	startCtx, cancel := context.WithTimeout(browserCtx, opts.ActionTimeout)
	defer cancel()
	err := chromedp.Run(startCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.SetDiscoverTargets(true).Do(cdp.WithExecutor(ctx, chromedp.FromContext(ctx).Browser))
	}))
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	chromedp.ListenBrowser(browserCtx, r.onBrowserEvent)
	logger.Info().Bool("headless", opts.Headless).Int("debug_port", opts.DebugPort).Msg("browser started")
	return r, nil
}

// NewContext implements port.Renderer. It opens a blank browser tab.
func (r *Renderer) NewContext(ctx context.Context) (port.NavigationContext, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	runCtx, cancel := context.WithTimeout(tabCtx, r.opts.ActionTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = chromedp.Cancel(tabCtx)
		return nil, fmt.Errorf("open tab: %w", err)
	}

	c := newContext(r, seq, tabCtx, tabCancel)
	r.mu.Lock()
	r.contexts[c.targetID] = c
	r.mu.Unlock()

	chromedp.ListenTarget(tabCtx, c.onTargetEvent)
	r.logger.Debug().Str("target", c.targetID.String()).Msg("tab opened")
	return c, nil
}

// Close implements port.Renderer. It closes every tab and the browser.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	open := make([]*Context, 0, len(r.contexts))
	for _, c := range r.contexts {
		open = append(open, c)
	}
	r.mu.Unlock()

	for _, c := range open {
		_ = c.Close()
	}

	ctx, cancel := context.WithTimeout(r.browserCtx, r.opts.ActionTimeout)
	defer cancel()
	err := chromedp.Cancel(ctx)
	r.browserCancel()
	r.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	r.logger.Info().Msg("browser closed")
	return nil
}

func (r *Renderer) lookup(id target.ID) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contexts[id]
	return c, ok
}

func (r *Renderer) forget(id target.ID) {
	r.mu.Lock()
	delete(r.contexts, id)
	r.mu.Unlock()
}

// inspectorURL is the DevTools front-end served by the browser itself.
func (r *Renderer) inspectorURL(id target.ID) (string, error) {
	if r.opts.DebugPort <= 0 {
		return "", errors.New("inspector requires a fixed remote debugging port")
	}
	return fmt.Sprintf("http://127.0.0.1:%d/devtools/inspector.html?ws=127.0.0.1:%d/devtools/page/%s",
		r.opts.DebugPort, r.opts.DebugPort, id), nil
}

// onBrowserEvent runs on chromedp's event goroutine and must not issue
// commands synchronously.
func (r *Renderer) onBrowserEvent(ev any) {
	switch ev := ev.(type) {
	case *target.EventTargetInfoChanged:
		if ev.TargetInfo == nil {
			return
		}
		if c, ok := r.lookup(ev.TargetInfo.TargetID); ok {
			c.setTitle(ev.TargetInfo.Title)
		}
	case *target.EventTargetCreated:
		info := ev.TargetInfo
		if info == nil || info.Type != "page" || info.OpenerID == "" {
			return
		}
		if _, ours := r.lookup(info.OpenerID); !ours {
			return
		}
		// The page's request was already answered through the surface
		// handler; the browser-created popup is redundant.
		go r.closeTarget(info.TargetID)
	}
}

func (r *Renderer) closeTarget(id target.ID) {
	popupCtx, cancel := chromedp.NewContext(r.browserCtx, chromedp.WithTargetID(id))
	defer cancel()
	runCtx, stop := context.WithTimeout(popupCtx, r.opts.ActionTimeout)
	defer stop()
	if err := chromedp.Run(runCtx, closePage()); err != nil {
		r.logger.Debug().Err(err).Str("target", id.String()).Msg("failed to close popup target")
	}
}
