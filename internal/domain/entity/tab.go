// Package entity holds the browser's domain model: tabs, windows, load states
// and assistant commands. It has no dependencies on the UI or the renderer.
package entity

import (
	"strings"
	"time"
)

// TabID uniquely identifies a tab. It stays valid across structural changes of
// the tab list, unlike a position.
type TabID string

// DefaultTabLabel is shown for tabs that have no title yet.
const DefaultTabLabel = "New Tab"

// Tab is the display state of one browsing context in a window's tab strip.
type Tab struct {
	ID        TabID
	Label     string    // Tab strip text (page title once known)
	Icon      string    // Icon reference (favicon URL)
	URL       string    // Last URL reported by the context
	Title     string    // Last title reported by the context
	LoadState LoadState // Last load state reported by the context
	Position  int       // Position in the tab strip (0-indexed), recomputed on change
	Inspects  TabID     // Non-empty for dev-tools tabs: the inspected tab
	CreatedAt time.Time
}

// NewTab creates a tab with the given label, or DefaultTabLabel when empty.
func NewTab(id TabID, label string) *Tab {
	if label == "" {
		label = DefaultTabLabel
	}
	return &Tab{
		ID:        id,
		Label:     label,
		CreatedAt: time.Now(),
	}
}

// DisplayTitle returns the title used for the window title bar.
// Blank titles fall back to DefaultTabLabel.
func (t *Tab) DisplayTitle() string {
	if t == nil {
		return DefaultTabLabel
	}
	if strings.TrimSpace(t.Title) == "" {
		return DefaultTabLabel
	}
	return t.Title
}

// TabList manages an ordered collection of tabs.
type TabList struct {
	Tabs        []*Tab
	ActiveTabID TabID
}

// NewTabList creates an empty tab list.
func NewTabList() *TabList {
	return &TabList{
		Tabs: make([]*Tab, 0),
	}
}

// Add appends a tab to the list.
func (tl *TabList) Add(tab *Tab) {
	tab.Position = len(tl.Tabs)
	tl.Tabs = append(tl.Tabs, tab)
	if tl.ActiveTabID == "" {
		tl.ActiveTabID = tab.ID
	}
}

// Remove removes a tab by ID and reindexes positions.
// When the active tab is removed, the tab that takes its position becomes
// active, or the new last tab when it was at the end.
func (tl *TabList) Remove(id TabID) bool {
	for i, tab := range tl.Tabs {
		if tab.ID != id {
			continue
		}
		tl.Tabs = append(tl.Tabs[:i], tl.Tabs[i+1:]...)
		for j := i; j < len(tl.Tabs); j++ {
			tl.Tabs[j].Position = j
		}
		if tl.ActiveTabID == id {
			switch {
			case len(tl.Tabs) == 0:
				tl.ActiveTabID = ""
			case i < len(tl.Tabs):
				tl.ActiveTabID = tl.Tabs[i].ID
			default:
				tl.ActiveTabID = tl.Tabs[len(tl.Tabs)-1].ID
			}
		}
		return true
	}
	return false
}

// Find returns a tab by ID.
func (tl *TabList) Find(id TabID) *Tab {
	for _, tab := range tl.Tabs {
		if tab.ID == id {
			return tab
		}
	}
	return nil
}

// IndexOf returns the current position of a tab, or -1.
func (tl *TabList) IndexOf(id TabID) int {
	for i, tab := range tl.Tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

// ActiveTab returns the currently active tab.
func (tl *TabList) ActiveTab() *Tab {
	return tl.Find(tl.ActiveTabID)
}

// Count returns the number of tabs.
func (tl *TabList) Count() int {
	return len(tl.Tabs)
}

// Neighbor returns the tab ID at offset direction from the active tab,
// wrapping around. Returns "" for an empty list.
func (tl *TabList) Neighbor(direction int) TabID {
	n := len(tl.Tabs)
	if n == 0 {
		return ""
	}
	pos := tl.IndexOf(tl.ActiveTabID)
	if pos < 0 {
		return tl.Tabs[0].ID
	}
	next := ((pos+direction)%n + n) % n
	return tl.Tabs[next].ID
}
