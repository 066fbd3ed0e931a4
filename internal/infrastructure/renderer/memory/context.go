package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/domain/entity"
)

// Context is one in-memory surface. Events are emitted synchronously on the
// goroutine that triggered them, outside the context's lock.
type Context struct {
	renderer *Renderer
	id       port.SurfaceID

	mu        sync.Mutex
	history   []string
	index     int
	title     string
	icon      string
	state     entity.LoadState
	subs      map[int]func(port.NavEvent)
	nextSub   int
	surfaces  port.SurfaceHandler
	inspected port.NavigationContext
	closed    bool
}

var _ port.NavigationContext = (*Context)(nil)

// ID implements port.NavigationContext.
func (c *Context) ID() port.SurfaceID { return c.id }

func (c *Context) seq() int {
	n, _ := strconv.Atoi(strings.TrimPrefix(string(c.id), "mem-"))
	return n
}

// Navigate implements port.NavigationContext.
func (c *Context) Navigate(_ context.Context, rawURL string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.history = append(c.history[:c.index+1], rawURL)
	c.index = len(c.history) - 1
	c.mu.Unlock()

	c.load(rawURL)
	return nil
}

// Back implements port.NavigationContext.
func (c *Context) Back(_ context.Context) error {
	return c.step(-1)
}

// Forward implements port.NavigationContext.
func (c *Context) Forward(_ context.Context) error {
	return c.step(1)
}

// Reload implements port.NavigationContext.
func (c *Context) Reload(_ context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	current := c.currentLocked()
	c.mu.Unlock()

	if current != "" {
		c.load(current)
	}
	return nil
}

// Stop implements port.NavigationContext.
func (c *Context) Stop(_ context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != entity.LoadLoading {
		c.mu.Unlock()
		return nil
	}
	c.state = entity.LoadFailed
	current := c.currentLocked()
	c.mu.Unlock()

	c.emit(port.NavEvent{Kind: port.NavLoadFinished, URL: current, OK: false})
	return nil
}

// URL implements port.NavigationContext.
func (c *Context) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
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

// CanGoBack reports whether Back would move.
func (c *Context) CanGoBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index > 0
}

// CanGoForward reports whether Forward would move.
func (c *Context) CanGoForward() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index >= 0 && c.index < len(c.history)-1
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

// Subscribers returns the number of live subscriptions.
func (c *Context) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// SetSurfaceHandler implements port.NavigationContext.
func (c *Context) SetSurfaceHandler(h port.SurfaceHandler) {
	c.mu.Lock()
	c.surfaces = h
	c.mu.Unlock()
}

// AttachInspector implements port.NavigationContext.
func (c *Context) AttachInspector(ctx context.Context, target port.NavigationContext) error {
	if target == nil {
		return fmt.Errorf("attach inspector: nil target")
	}
	if target.ID() == c.id {
		return fmt.Errorf("attach inspector: surface cannot inspect itself")
	}
	c.mu.Lock()
	c.inspected = target
	c.mu.Unlock()
	return c.Navigate(ctx, "devtools://devtools/inspector?target="+string(target.ID()))
}

// Inspected returns the surface this one inspects, if any.
func (c *Context) Inspected() port.NavigationContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inspected
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

	c.renderer.forget(c.id)
	return nil
}

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Complete finishes a pending navigation when the renderer uses manual loads.
func (c *Context) Complete(ok bool) {
	c.mu.Lock()
	if c.closed || c.state != entity.LoadLoading {
		c.mu.Unlock()
		return
	}
	current := c.currentLocked()
	c.mu.Unlock()

	c.finish(current, ok)
}

// SetTitle simulates the page changing document.title.
func (c *Context) SetTitle(title string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.title = title
	c.mu.Unlock()

	c.emit(port.NavEvent{Kind: port.NavTitleChanged, Title: title})
}

// RequestSurface simulates the page opening a new tab or window
// (target=_blank, window.open). The handler's context is navigated to
// targetURL. Returns nil when the request was blocked.
func (c *Context) RequestSurface(ctx context.Context, kind port.SurfaceKind, targetURL string) port.NavigationContext {
	c.mu.Lock()
	handler := c.surfaces
	closed := c.closed
	c.mu.Unlock()
	if closed || handler == nil {
		return nil
	}

	surface := handler(port.SurfaceRequest{Kind: kind, TargetURL: targetURL, IsUserGesture: true})
	if surface == nil {
		return nil
	}
	if targetURL != "" {
		_ = surface.Navigate(ctx, targetURL)
	}
	return surface
}

// RequestDevTools simulates the "Inspect" context-menu action.
func (c *Context) RequestDevTools() {
	c.emit(port.NavEvent{Kind: port.NavDevToolsRequested})
}

func (c *Context) step(delta int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	next := c.index + delta
	if next < 0 || next >= len(c.history) {
		c.mu.Unlock()
		return nil
	}
	c.index = next
	current := c.history[next]
	c.mu.Unlock()

	c.load(current)
	return nil
}

func (c *Context) load(rawURL string) {
	c.mu.Lock()
	c.state = entity.LoadLoading
	manual := c.renderer.manualLoads
	c.mu.Unlock()

	c.emit(port.NavEvent{Kind: port.NavURLChanged, URL: rawURL})
	c.emit(port.NavEvent{Kind: port.NavLoadStarted, URL: rawURL})
	if !manual {
		_, _, ok := c.renderer.page(rawURL)
		c.finish(rawURL, ok)
	}
}

func (c *Context) finish(rawURL string, ok bool) {
	title, icon, _ := c.renderer.page(rawURL)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.title = title
	c.icon = icon
	if ok {
		c.state = entity.LoadCompleted
	} else {
		c.state = entity.LoadFailed
	}
	c.mu.Unlock()

	c.emit(port.NavEvent{Kind: port.NavTitleChanged, Title: title})
	c.emit(port.NavEvent{Kind: port.NavIconChanged, Icon: icon})
	c.emit(port.NavEvent{Kind: port.NavLoadFinished, URL: rawURL, OK: ok})
}

func (c *Context) currentLocked() string {
	if c.index < 0 || c.index >= len(c.history) {
		return ""
	}
	return c.history[c.index]
}

func (c *Context) emit(ev port.NavEvent) {
	ev.Source = c.id

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	subs := make([]func(port.NavEvent), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		subs = append(subs, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
