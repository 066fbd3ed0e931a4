// Package controller provides controllers that bridge domain state, the
// rendering engine and the chrome. Everything here runs on the UI loop.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/logging"
)

var (
	// ErrNoTabs means a window was asked for its current tab while holding none.
	ErrNoTabs = errors.New("window has no tabs")
	// ErrTabNotFound is returned for a tab ID the manager does not hold.
	ErrTabNotFound = errors.New("tab not found")
)

// EventSink receives navigation events tagged with the tab they came from.
// It is called on whatever goroutine the renderer emits on.
type EventSink func(id entity.TabID, ev port.NavEvent)

// TabOptions describes a tab to open.
type TabOptions struct {
	// URL is loaded immediately when set; otherwise the tab stays blank.
	URL string
	// Label is the initial tab strip text. Defaults to entity.DefaultTabLabel.
	Label string
	// Context adopts an existing surface instead of creating one.
	Context port.NavigationContext
	// Inspects marks the tab as the dev-tools front-end of another tab.
	Inspects entity.TabID
}

type binding struct {
	nav         port.NavigationContext
	unsubscribe func()
}

// TabManager holds the ordered tabs of one window together with the
// navigation contexts it owns.
type TabManager struct {
	ctx      context.Context
	renderer port.Renderer
	sink     EventSink
	tabs     *entity.TabList
	bindings map[entity.TabID]*binding
	logger   *zerolog.Logger
}

// NewTabManager creates an empty manager. sink may be nil.
func NewTabManager(ctx context.Context, renderer port.Renderer, sink EventSink) *TabManager {
	ctx = logging.WithComponent(ctx, "tabs")
	return &TabManager{
		ctx:      ctx,
		renderer: renderer,
		sink:     sink,
		tabs:     entity.NewTabList(),
		bindings: make(map[entity.TabID]*binding),
		logger:   logging.FromContext(ctx),
	}
}

// AddTab opens a tab, appends it and makes it current.
func (m *TabManager) AddTab(ctx context.Context, opts TabOptions) (*entity.Tab, error) {
	nav := opts.Context
	if nav == nil {
		if m.renderer == nil {
			return nil, errors.New("add tab: no renderer")
		}
		created, err := m.renderer.NewContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("add tab: %w", err)
		}
		nav = created
	}

	id := entity.TabID(uuid.NewString())
	tab := entity.NewTab(id, opts.Label)
	tab.Inspects = opts.Inspects
	if opts.Context != nil {
		// Adopted surfaces may already have committed a page.
		tab.URL = nav.URL()
		tab.Title = nav.Title()
		tab.Icon = nav.Icon()
		tab.LoadState = nav.LoadState()
		if opts.Label == "" && tab.Title != "" {
			tab.Label = tab.Title
		}
	}
	if opts.URL != "" {
		tab.URL = opts.URL
	}

	b := &binding{nav: nav, unsubscribe: func() {}}
	if m.sink != nil {
		sink := m.sink
		b.unsubscribe = nav.Subscribe(func(ev port.NavEvent) { sink(id, ev) })
	}

	previous := m.tabs.ActiveTabID
	m.tabs.Add(tab)
	m.tabs.ActiveTabID = id
	m.bindings[id] = b

	if opts.URL != "" {
		if err := nav.Navigate(ctx, opts.URL); err != nil {
			m.detach(id)
			m.tabs.Remove(id)
			if previous != "" {
				m.tabs.ActiveTabID = previous
			}
			return nil, fmt.Errorf("add tab: navigate %s: %w", opts.URL, err)
		}
	}

	logging.FromContext(logging.WithURL(logging.WithTabID(m.ctx, string(id)), opts.URL)).Debug().
		Bool("adopted", opts.Context != nil).
		Int("count", m.tabs.Count()).
		Msg("tab added")
	return tab, nil
}

// RemoveTab closes a tab. When it is the only tab nothing is removed and
// shouldCloseWindow is true: the caller starts the window close sequence.
func (m *TabManager) RemoveTab(_ context.Context, id entity.TabID) (shouldCloseWindow bool, err error) {
	if m.tabs.Find(id) == nil {
		return false, fmt.Errorf("remove tab %s: %w", id, ErrTabNotFound)
	}
	if m.tabs.Count() < 2 {
		return true, nil
	}

	m.detach(id)
	m.tabs.Remove(id)
	m.tabLogger(id).Debug().
		Str("active", string(m.tabs.ActiveTabID)).
		Int("count", m.tabs.Count()).
		Msg("tab removed")
	return false, nil
}

// Activate makes id the current tab.
func (m *TabManager) Activate(id entity.TabID) error {
	if m.tabs.Find(id) == nil {
		return fmt.Errorf("activate tab %s: %w", id, ErrTabNotFound)
	}
	m.tabs.ActiveTabID = id
	return nil
}

// ActivateNext cycles forward through the tabs, wrapping around.
func (m *TabManager) ActivateNext() (*entity.Tab, error) {
	return m.cycle(1)
}

// ActivatePrevious cycles backward through the tabs, wrapping around.
func (m *TabManager) ActivatePrevious() (*entity.Tab, error) {
	return m.cycle(-1)
}

func (m *TabManager) cycle(direction int) (*entity.Tab, error) {
	id := m.tabs.Neighbor(direction)
	if id == "" {
		return nil, m.noTabs()
	}
	m.tabs.ActiveTabID = id
	return m.tabs.Find(id), nil
}

// Current returns the current tab.
func (m *TabManager) Current() (*entity.Tab, error) {
	tab := m.tabs.ActiveTab()
	if tab == nil {
		return nil, m.noTabs()
	}
	return tab, nil
}

// CurrentContext returns the navigation context of the current tab.
func (m *TabManager) CurrentContext() (port.NavigationContext, error) {
	tab, err := m.Current()
	if err != nil {
		return nil, err
	}
	nav, ok := m.Context(tab.ID)
	if !ok {
		return nil, fmt.Errorf("current tab %s: %w", tab.ID, ErrTabNotFound)
	}
	return nav, nil
}

// CurrentID returns the current tab ID, or "" when there is none.
func (m *TabManager) CurrentID() entity.TabID {
	return m.tabs.ActiveTabID
}

// Context returns the navigation context owned by tab id.
func (m *TabManager) Context(id entity.TabID) (port.NavigationContext, bool) {
	b, ok := m.bindings[id]
	if !ok {
		return nil, false
	}
	return b.nav, true
}

// Find returns the tab with id, or nil.
func (m *TabManager) Find(id entity.TabID) *entity.Tab {
	return m.tabs.Find(id)
}

// IndexOf returns the current position of id, or -1.
func (m *TabManager) IndexOf(id entity.TabID) int {
	return m.tabs.IndexOf(id)
}

// Count returns the number of tabs.
func (m *TabManager) Count() int {
	return m.tabs.Count()
}

// Tabs returns the tabs in strip order. The slice is a snapshot; the tabs
// themselves are live.
func (m *TabManager) Tabs() []*entity.Tab {
	out := make([]*entity.Tab, len(m.tabs.Tabs))
	copy(out, m.tabs.Tabs)
	return out
}

// CloseAll releases every tab. Used when the window closes.
func (m *TabManager) CloseAll() {
	for _, tab := range m.Tabs() {
		m.detach(tab.ID)
	}
	m.tabs = entity.NewTabList()
	m.logger.Debug().Msg("all tabs closed")
}

func (m *TabManager) detach(id entity.TabID) {
	b, ok := m.bindings[id]
	if !ok {
		return
	}
	delete(m.bindings, id)
	b.unsubscribe()
	if err := b.nav.Close(); err != nil {
		m.tabLogger(id).Warn().Err(err).Msg("failed to close navigation context")
	}
}

func (m *TabManager) tabLogger(id entity.TabID) *zerolog.Logger {
	return logging.FromContext(logging.WithTabID(m.ctx, string(id)))
}

func (m *TabManager) noTabs() error {
	m.logger.Error().Err(ErrNoTabs).Msg("no current tab")
	return ErrNoTabs
}
