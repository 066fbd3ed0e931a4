package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/infrastructure/renderer/memory"
	"github.com/bnema/voce/internal/logging"
)

type sinkRecorder struct {
	events []entity.TabID
}

func (s *sinkRecorder) record(id entity.TabID, _ port.NavEvent) {
	s.events = append(s.events, id)
}

func ids(tabs []*entity.Tab) []entity.TabID {
	out := make([]entity.TabID, 0, len(tabs))
	for _, tab := range tabs {
		out = append(out, tab.ID)
	}
	return out
}

func TestTabManager_AddTabActivatesAndNavigates(t *testing.T) {
	ctx := context.Background()
	sink := &sinkRecorder{}
	m := NewTabManager(ctx, memory.New(), sink.record)

	first, err := m.AddTab(ctx, TabOptions{URL: "https://a.test/"})
	require.NoError(t, err)
	second, err := m.AddTab(ctx, TabOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Count())
	assert.Equal(t, second.ID, m.CurrentID())
	assert.Equal(t, entity.DefaultTabLabel, second.Label)
	assert.Equal(t, "https://a.test/", first.URL)
	assert.Equal(t, 1, m.IndexOf(second.ID))

	nav, ok := m.Context(first.ID)
	require.True(t, ok)
	assert.Equal(t, "https://a.test/", nav.URL())
	assert.NotEmpty(t, sink.events)
	for _, id := range sink.events {
		assert.Equal(t, first.ID, id)
	}

	blank, ok := m.Context(second.ID)
	require.True(t, ok)
	assert.Empty(t, blank.URL())
}

func TestTabManager_AdoptCopiesSurfaceState(t *testing.T) {
	ctx := context.Background()
	r := memory.New(memory.WithTitle("https://popup.test/", "Popup"))
	nav, err := r.NewContext(ctx)
	require.NoError(t, err)
	require.NoError(t, nav.Navigate(ctx, "https://popup.test/"))

	m := NewTabManager(ctx, r, nil)
	tab, err := m.AddTab(ctx, TabOptions{Context: nav})
	require.NoError(t, err)

	assert.Equal(t, "https://popup.test/", tab.URL)
	assert.Equal(t, "Popup", tab.Label)
	assert.Equal(t, entity.LoadCompleted, tab.LoadState)
	got, _ := m.Context(tab.ID)
	assert.Same(t, nav, got)
}

func TestTabManager_AddTabNavigateFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	m := NewTabManager(ctx, r, nil)
	first, err := m.AddTab(ctx, TabOptions{})
	require.NoError(t, err)

	closed, err := r.NewContext(ctx)
	require.NoError(t, err)
	require.NoError(t, closed.Close())

	_, err = m.AddTab(ctx, TabOptions{URL: "https://a.test/", Context: closed})
	require.ErrorIs(t, err, memory.ErrClosed)
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, first.ID, m.CurrentID())
}

func TestTabManager_RemoveTab(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	m := NewTabManager(ctx, r, func(entity.TabID, port.NavEvent) {})

	var tabs []*entity.Tab
	for i := 0; i < 3; i++ {
		tab, err := m.AddTab(ctx, TabOptions{})
		require.NoError(t, err)
		tabs = append(tabs, tab)
	}
	require.NoError(t, m.Activate(tabs[1].ID))
	middle, _ := m.Context(tabs[1].ID)

	shouldClose, err := m.RemoveTab(ctx, tabs[1].ID)
	require.NoError(t, err)
	assert.False(t, shouldClose)

	// The tab that took the removed position becomes current.
	assert.Equal(t, tabs[2].ID, m.CurrentID())
	assert.Equal(t, []entity.TabID{tabs[0].ID, tabs[2].ID}, ids(m.Tabs()))
	assert.Equal(t, 1, m.Find(tabs[2].ID).Position)
	assert.True(t, middle.(*memory.Context).Closed())
	assert.Zero(t, middle.(*memory.Context).Subscribers())

	// Removing the last position falls back to the previous tab.
	shouldClose, err = m.RemoveTab(ctx, tabs[2].ID)
	require.NoError(t, err)
	assert.False(t, shouldClose)
	assert.Equal(t, tabs[0].ID, m.CurrentID())

	// The sole tab is never removed.
	shouldClose, err = m.RemoveTab(ctx, tabs[0].ID)
	require.NoError(t, err)
	assert.True(t, shouldClose)
	assert.Equal(t, 1, m.Count())
	_, ok := m.Context(tabs[0].ID)
	assert.True(t, ok)
}

func TestTabManager_RemoveBackgroundTabKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	m := NewTabManager(ctx, memory.New(), nil)
	a, _ := m.AddTab(ctx, TabOptions{})
	b, _ := m.AddTab(ctx, TabOptions{})

	shouldClose, err := m.RemoveTab(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, shouldClose)
	assert.Equal(t, b.ID, m.CurrentID())
}

func TestTabManager_UnknownTab(t *testing.T) {
	ctx := context.Background()
	m := NewTabManager(ctx, memory.New(), nil)

	_, err := m.RemoveTab(ctx, "missing")
	assert.ErrorIs(t, err, ErrTabNotFound)
	assert.ErrorIs(t, m.Activate("missing"), ErrTabNotFound)
}

func TestTabManager_EmptyHasNoCurrent(t *testing.T) {
	m := NewTabManager(context.Background(), memory.New(), nil)

	_, err := m.Current()
	assert.ErrorIs(t, err, ErrNoTabs)
	_, err = m.CurrentContext()
	assert.ErrorIs(t, err, ErrNoTabs)
	_, err = m.ActivateNext()
	assert.ErrorIs(t, err, ErrNoTabs)
}

func TestTabManager_Cycle(t *testing.T) {
	ctx := context.Background()
	m := NewTabManager(ctx, memory.New(), nil)
	a, _ := m.AddTab(ctx, TabOptions{})
	b, _ := m.AddTab(ctx, TabOptions{})
	c, _ := m.AddTab(ctx, TabOptions{})

	next, err := m.ActivateNext()
	require.NoError(t, err)
	assert.Equal(t, a.ID, next.ID)

	prev, err := m.ActivatePrevious()
	require.NoError(t, err)
	assert.Equal(t, c.ID, prev.ID)

	prev, err = m.ActivatePrevious()
	require.NoError(t, err)
	assert.Equal(t, b.ID, prev.ID)
}

func TestTabManager_CloseAll(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	m := NewTabManager(ctx, r, nil)
	_, _ = m.AddTab(ctx, TabOptions{})
	_, _ = m.AddTab(ctx, TabOptions{})

	m.CloseAll()

	assert.Zero(t, m.Count())
	assert.Empty(t, r.Contexts())
}

func TestTabManager_LogsCarryTabFields(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: zerolog.DebugLevel, Format: "json", Output: &buf})
	ctx := logging.WithContext(context.Background(), logger)
	m := NewTabManager(ctx, memory.New(), nil)

	first, err := m.AddTab(ctx, TabOptions{URL: "https://a.test/"})
	require.NoError(t, err)
	_, err = m.AddTab(ctx, TabOptions{})
	require.NoError(t, err)
	_, err = m.RemoveTab(ctx, first.ID)
	require.NoError(t, err)

	entries := map[string]map[string]any{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["tab_id"] == string(first.ID) {
			entries[entry["message"].(string)] = entry
		}
	}

	require.Contains(t, entries, "tab added")
	assert.Equal(t, "https://a.test/", entries["tab added"]["url"])
	assert.Equal(t, "tabs", entries["tab added"]["component"])
	assert.Contains(t, entries, "tab removed")
}
