package cdp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/domain/entity"
)

const iconScript = `(() => {
	const link = document.querySelector("link[rel~='icon']");
	return link ? link.href : "";
})()`

// Context is one browser tab.
type Context struct {
	r        *Renderer
	id       port.SurfaceID
	targetID target.ID
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	url      string
	title    string
	icon     string
	state    entity.LoadState
	subs     map[int]func(port.NavEvent)
	nextSub  int
	surfaces port.SurfaceHandler
	closed   bool
}

var _ port.NavigationContext = (*Context)(nil)

func newContext(r *Renderer, seq int, ctx context.Context, cancel context.CancelFunc) *Context {
	targetID := chromedp.FromContext(ctx).Target.TargetID
	return &Context{
		r:        r,
		id:       port.SurfaceID(fmt.Sprintf("cdp-%d-%s", seq, targetID)),
		targetID: targetID,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[int]func(port.NavEvent)),
	}
}

// ID implements port.NavigationContext.
func (c *Context) ID() port.SurfaceID { return c.id }

// TargetID returns the browser target behind this tab.
func (c *Context) TargetID() target.ID { return c.targetID }

// Navigate implements port.NavigationContext. The load runs in the
// background; progress is reported through events.
func (c *Context) Navigate(_ context.Context, rawURL string) error {
	return c.async("navigate", chromedp.Navigate(rawURL))
}

// Back implements port.NavigationContext.
func (c *Context) Back(_ context.Context) error {
	return c.async("back", chromedp.NavigateBack())
}

// Forward implements port.NavigationContext.
func (c *Context) Forward(_ context.Context) error {
	return c.async("forward", chromedp.NavigateForward())
}

// Reload implements port.NavigationContext.
func (c *Context) Reload(_ context.Context) error {
	return c.async("reload", chromedp.Reload())
}

// Stop implements port.NavigationContext.
func (c *Context) Stop(_ context.Context) error {
	return c.async("stop", chromedp.Stop())
}

// URL implements port.NavigationContext.
func (c *Context) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// Title implements port.NavigationContext.
func (c *Context) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// Icon implements port.NavigationContext.
func (c *Context) Icon() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.icon
}

// LoadState implements port.NavigationContext.
func (c *Context) LoadState() entity.LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe implements port.NavigationContext.
func (c *Context) Subscribe(fn func(port.NavEvent)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || fn == nil {
		return func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// SetSurfaceHandler implements port.NavigationContext.
func (c *Context) SetSurfaceHandler(h port.SurfaceHandler) {
	c.mu.Lock()
	c.surfaces = h
	c.mu.Unlock()
}

// AttachInspector implements port.NavigationContext by loading the
// browser's DevTools front-end for target.
func (c *Context) AttachInspector(ctx context.Context, inspected port.NavigationContext) error {
	other, ok := inspected.(*Context)
	if !ok || other == nil {
		return errors.New("attach inspector: target is not a browser tab")
	}
	if other == c {
		return errors.New("attach inspector: surface cannot inspect itself")
	}
	inspector, err := c.r.inspectorURL(other.targetID)
	if err != nil {
		return fmt.Errorf("attach inspector: %w", err)
	}
	return c.Navigate(ctx, inspector)
}

// Close implements port.NavigationContext.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.subs = make(map[int]func(port.NavEvent))
	c.surfaces = nil
	c.mu.Unlock()

	c.r.forget(c.targetID)
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close tab: %w", err)
	}
	return nil
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// async runs action against the tab without blocking the caller.
func (c *Context) async(name string, action chromedp.Action) error {
	if c.isClosed() {
		return ErrClosed
	}
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.r.opts.ActionTimeout)
		defer cancel()
		err := chromedp.Run(ctx, action)
		if err == nil || c.isClosed() || c.ctx.Err() != nil {
			return
		}
		c.r.logger.Debug().Err(err).Str("target", c.targetID.String()).Str("action", name).Msg("tab action failed")
		if name == "navigate" || name == "reload" {
			c.finish(false)
		}
	}()
	return nil
}

// onTargetEvent runs on chromedp's event goroutine and must not issue
// commands synchronously.
func (c *Context) onTargetEvent(ev any) {
	switch ev := ev.(type) {
	case *page.EventFrameNavigated:
		if ev.Frame == nil || ev.Frame.ParentID != "" {
			return
		}
		c.setURL(ev.Frame.URL + ev.Frame.URLFragment)
	case *page.EventNavigatedWithinDocument:
		if c.isMainFrame(ev.FrameID) {
			c.setURL(ev.URL)
		}
	case *page.EventFrameStartedLoading:
		if !c.isMainFrame(ev.FrameID) {
			return
		}
		c.mu.Lock()
		c.state = entity.LoadLoading
		current := c.url
		c.mu.Unlock()
		c.emit(port.NavEvent{Kind: port.NavLoadStarted, URL: current})
	case *page.EventLoadEventFired:
		go c.refreshPage()
	case *page.EventWindowOpen:
		go c.openSurface(ev)
	}
}

func (c *Context) isMainFrame(id cdp.FrameID) bool {
	return string(id) == string(c.targetID)
}

// refreshPage reads the title and icon after a load, then reports it.
func (c *Context) refreshPage() {
	ctx, cancel := context.WithTimeout(c.ctx, c.r.opts.ActionTimeout)
	defer cancel()

	var title, icon string
	err := chromedp.Run(ctx,
		chromedp.Title(&title),
		chromedp.Evaluate(iconScript, &icon),
	)
	if err != nil {
		c.r.logger.Debug().Err(err).Str("target", c.targetID.String()).Msg("failed to read page details")
	}
	if title != "" {
		c.setTitle(title)
	}
	if icon == "" {
		icon = faviconFor(c.URL())
	}
	c.setIcon(icon)
	c.finish(true)
}

// openSurface answers a page's request for a new tab or window. The
// handler supplies the surface; this tab populates it.
func (c *Context) openSurface(ev *page.EventWindowOpen) {
	c.mu.Lock()
	handler := c.surfaces
	c.mu.Unlock()
	if handler == nil || c.isClosed() {
		return
	}

	kind := port.SurfaceTab
	if len(ev.WindowFeatures) > 0 {
		kind = port.SurfaceWindow
	}
	surface := handler(port.SurfaceRequest{Kind: kind, TargetURL: ev.URL, IsUserGesture: ev.UserGesture})
	if surface == nil || ev.URL == "" {
		return
	}
	if err := surface.Navigate(c.ctx, ev.URL); err != nil {
		c.r.logger.Warn().Err(err).Str("url", ev.URL).Msg("failed to populate requested surface")
	}
}

func (c *Context) setURL(u string) {
	c.mu.Lock()
	if c.url == u {
		c.mu.Unlock()
		return
	}
	c.url = u
	c.mu.Unlock()
	c.emit(port.NavEvent{Kind: port.NavURLChanged, URL: u})
}

func (c *Context) setTitle(title string) {
	c.mu.Lock()
	if c.title == title {
		c.mu.Unlock()
		return
	}
	c.title = title
	c.mu.Unlock()
	c.emit(port.NavEvent{Kind: port.NavTitleChanged, Title: title})
}

func (c *Context) setIcon(icon string) {
	c.mu.Lock()
	if c.icon == icon {
		c.mu.Unlock()
		return
	}
	c.icon = icon
	c.mu.Unlock()
	c.emit(port.NavEvent{Kind: port.NavIconChanged, Icon: icon})
}

func (c *Context) finish(ok bool) {
	c.mu.Lock()
	if ok {
		c.state = entity.LoadCompleted
	} else {
		c.state = entity.LoadFailed
	}
	current := c.url
	c.mu.Unlock()
	c.emit(port.NavEvent{Kind: port.NavLoadFinished, URL: current, OK: ok})
}

func (c *Context) emit(ev port.NavEvent) {
	ev.Source = c.id

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	subs := make([]func(port.NavEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func faviconFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

func closePage() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return page.Close().Do(ctx)
	})
}
