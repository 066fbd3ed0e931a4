// Package port defines application-layer interfaces for external capabilities.
// Ports abstract the rendering engine, the assistant and modal UI so the
// controllers stay independent of specific implementations.
package port

import (
	"context"

	"github.com/bnema/voce/internal/domain/entity"
)

// SurfaceID uniquely identifies a renderable surface within a renderer.
type SurfaceID string

// NavEventKind identifies a change notification from a NavigationContext.
type NavEventKind int

const (
	// NavURLChanged is emitted when the committed URL changes.
	NavURLChanged NavEventKind = iota
	// NavTitleChanged is emitted when the page title changes.
	NavTitleChanged
	// NavIconChanged is emitted when the page icon changes.
	NavIconChanged
	// NavLoadStarted is emitted when a navigation begins.
	NavLoadStarted
	// NavLoadFinished is emitted when a navigation ends, successfully or not.
	NavLoadFinished
	// NavDevToolsRequested is emitted when the surface's "Inspect" action fires.
	NavDevToolsRequested
)

// String returns a human-readable representation of the event kind.
func (k NavEventKind) String() string {
	switch k {
	case NavURLChanged:
		return "url_changed"
	case NavTitleChanged:
		return "title_changed"
	case NavIconChanged:
		return "icon_changed"
	case NavLoadStarted:
		return "load_started"
	case NavLoadFinished:
		return "load_finished"
	case NavDevToolsRequested:
		return "devtools_requested"
	default:
		return "unknown"
	}
}

// NavEvent is a change notification. Source identifies the emitting surface.
type NavEvent struct {
	Kind   NavEventKind
	Source SurfaceID
	URL    string
	Title  string
	Icon   string
	OK     bool // NavLoadFinished only: true when the load succeeded
}

// SurfaceKind is the class of surface a page asks for (window.open, target=_blank).
type SurfaceKind int

const (
	// SurfaceTab asks for a new tab in the same window.
	SurfaceTab SurfaceKind = iota
	// SurfaceWindow asks for a new top-level window.
	SurfaceWindow
)

// String returns a human-readable representation of the surface kind.
func (k SurfaceKind) String() string {
	if k == SurfaceWindow {
		return "window"
	}
	return "tab"
}

// SurfaceRequest describes a renderer-initiated request for a new surface.
type SurfaceRequest struct {
	Kind          SurfaceKind
	TargetURL     string
	IsUserGesture bool
}

// SurfaceHandler answers a SurfaceRequest with a context the renderer will
// populate (navigate to TargetURL). Returning nil blocks the request.
type SurfaceHandler func(req SurfaceRequest) NavigationContext

// NavigationContext is one renderable surface of the rendering engine.
// Implementations may emit events from any goroutine; subscribers are
// responsible for marshaling them onto their own execution context.
type NavigationContext interface {
	// ID returns the unique identifier for this surface.
	ID() SurfaceID

	// Navigate loads the given URL. It must not block on the page load.
	Navigate(ctx context.Context, url string) error
	// Back navigates back in history. No-op when there is no history.
	Back(ctx context.Context) error
	// Forward navigates forward in history. No-op when there is no history.
	Forward(ctx context.Context) error
	// Reload reloads the current page.
	Reload(ctx context.Context) error
	// Stop stops the current page load.
	Stop(ctx context.Context) error

	// URL returns the current URL.
	URL() string
	// Title returns the current page title.
	Title() string
	// Icon returns a reference to the current page icon, if any.
	Icon() string
	// LoadState returns the navigation state.
	LoadState() entity.LoadState

	// Subscribe registers fn for change notifications and returns a function
	// that removes the subscription. After it returns no further events are
	// delivered to fn.
	Subscribe(fn func(NavEvent)) (unsubscribe func())
	// SetSurfaceHandler installs the handler for new-surface requests.
	SetSurfaceHandler(h SurfaceHandler)
	// AttachInspector turns this surface into the dev-tools front-end of target.
	AttachInspector(ctx context.Context, target NavigationContext) error

	// Close releases the surface. Closing twice is a no-op.
	Close() error
}

// Renderer creates navigation contexts.
type Renderer interface {
	// NewContext creates a blank surface.
	NewContext(ctx context.Context) (NavigationContext, error)
	// Close shuts the renderer down and releases every surface.
	Close() error
}
