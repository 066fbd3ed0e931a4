// Package memory is an in-process rendering engine. It keeps real history
// and load-state semantics but renders nothing and never touches the
// network; titles and icons are derived from URLs. It backs the headless
// "memory" engine and the controller tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/bnema/voce/internal/application/port"
)

// ErrClosed is returned when using a closed renderer or context.
var ErrClosed = errors.New("memory renderer: closed")

// Renderer creates in-memory navigation contexts.
type Renderer struct {
	mu          sync.Mutex
	nextID      int
	contexts    map[port.SurfaceID]*Context
	titles      map[string]string
	failing     map[string]bool
	manualLoads bool
	closed      bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithManualLoads keeps navigations in the loading state until Complete is
// called on the context.
func WithManualLoads() Option {
	return func(r *Renderer) { r.manualLoads = true }
}

// WithTitle makes pages at rawURL report title.
func WithTitle(rawURL, title string) Option {
	return func(r *Renderer) { r.titles[rawURL] = title }
}

// WithFailingHost makes every load of host fail.
func WithFailingHost(host string) Option {
	return func(r *Renderer) { r.failing[host] = true }
}

// New creates a renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		contexts: make(map[port.SurfaceID]*Context),
		titles:   make(map[string]string),
		failing:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewContext implements port.Renderer.
func (r *Renderer) NewContext(_ context.Context) (port.NavigationContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	r.nextID++
	c := &Context{
		renderer: r,
		id:       port.SurfaceID(fmt.Sprintf("mem-%d", r.nextID)),
		index:    -1,
		subs:     make(map[int]func(port.NavEvent)),
	}
	r.contexts[c.id] = c
	return c, nil
}

// Close implements port.Renderer.
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
	return nil
}

// Contexts returns the open contexts ordered by creation.
func (r *Renderer) Contexts() []*Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Context, 0, len(r.contexts))
	for _, c := range r.contexts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq() < out[j].seq() })
	return out
}

// Lookup returns the open context with id.
func (r *Renderer) Lookup(id port.SurfaceID) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contexts[id]
	return c, ok
}

func (r *Renderer) forget(id port.SurfaceID) {
	r.mu.Lock()
	delete(r.contexts, id)
	r.mu.Unlock()
}

func (r *Renderer) page(rawURL string) (title, icon string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, "", false
	}
	title = r.titles[rawURL]
	if title == "" {
		title = u.Host
	}
	if title == "" {
		title = rawURL
	}
	if u.Host != "" {
		icon = u.Scheme + "://" + u.Host + "/favicon.ico"
	}
	return title, icon, !r.failing[u.Host]
}
