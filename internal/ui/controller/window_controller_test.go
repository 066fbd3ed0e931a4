package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/application/port/mocks"
	"github.com/bnema/voce/internal/assistant"
	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/infrastructure/config"
	"github.com/bnema/voce/internal/infrastructure/renderer/memory"
	"github.com/bnema/voce/internal/ui/mainloop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeHost struct {
	created []string
	adopted []port.NavigationContext
	closed  []*WindowController
}

func (h *fakeHost) CreateWindow(_ context.Context, url string) (*WindowController, *entity.Tab, error) {
	h.created = append(h.created, url)
	return nil, nil, nil
}

func (h *fakeHost) AdoptWindow(_ context.Context, nav port.NavigationContext) (*WindowController, *entity.Tab, error) {
	h.adopted = append(h.adopted, nav)
	return nil, nil, nil
}

func (h *fakeHost) WindowClosed(w *WindowController) {
	h.closed = append(h.closed, w)
}

type windowFixture struct {
	ctx      context.Context
	loop     *mainloop.Loop
	renderer *memory.Renderer
	host     *fakeHost
	dialog   *mocks.MockDialog
	speaker  *mocks.MockSpeaker
	state    *assistant.State
	window   *WindowController
}

type fixtureOption func(*WindowOptions)

func withSource(source port.CommandSource) fixtureOption {
	return func(o *WindowOptions) { o.Source = source }
}

func newWindowFixture(t *testing.T, renderer *memory.Renderer, opts ...fixtureOption) *windowFixture {
	t.Helper()
	f := &windowFixture{
		ctx:      context.Background(),
		loop:     mainloop.New(),
		renderer: renderer,
		host:     &fakeHost{},
		dialog:   mocks.NewMockDialog(t),
		speaker:  mocks.NewMockSpeaker(t),
		state:    assistant.NewState(),
	}
	f.window = f.newWindow(t, opts...)
	return f
}

func (f *windowFixture) newWindow(t *testing.T, opts ...fixtureOption) *WindowController {
	t.Helper()
	wo := WindowOptions{
		Config:   config.DefaultConfig(),
		Renderer: f.renderer,
		Host:     f.host,
		Dialog:   f.dialog,
		Speaker:  f.speaker,
		State:    f.state,
		Post:     func(fn func()) { f.loop.Post(fn) },
	}
	for _, opt := range opts {
		opt(&wo)
	}
	w, err := NewWindowController(f.ctx, wo)
	require.NoError(t, err)
	t.Cleanup(func() {
		w.Channel().Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, w.Channel().Wait(ctx))
	})
	return w
}

func (f *windowFixture) addTab(t *testing.T, url string) *entity.Tab {
	t.Helper()
	tab, err := f.window.AddTab(f.ctx, TabOptions{URL: url})
	require.NoError(t, err)
	f.loop.Drain()
	return tab
}

func (f *windowFixture) nav(t *testing.T, id entity.TabID) *memory.Context {
	t.Helper()
	nav, ok := f.window.Tabs().Context(id)
	require.True(t, ok)
	return nav.(*memory.Context)
}

func (f *windowFixture) expectWelcome() {
	f.speaker.EXPECT().Welcome(mock.Anything).Return(nil).Maybe()
}

func (f *windowFixture) answerClose(yes bool) *mocks.MockDialog_Confirm_Call {
	return f.dialog.EXPECT().Confirm(CloseQuestion, mock.Anything).
		Run(func(_ string, answer func(bool)) { answer(yes) })
}

func TestWindow_NavigateResolvesAddressInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "openai.com", want: "https://openai.com"},
		{input: "weather", want: "https://duckduckgo.com?q=weather"},
		{input: "machine learning", want: "https://duckduckgo.com?q=machine+learning"},
		{input: "https://go.dev/doc", want: "https://go.dev/doc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f := newWindowFixture(t, memory.New())
			f.expectWelcome()
			tab := f.addTab(t, "")

			require.NoError(t, f.window.Navigate(f.ctx, tt.input))
			f.loop.Drain()

			assert.Equal(t, tt.want, f.nav(t, tab.ID).URL())
			assert.Equal(t, tt.want, f.window.AddressText())
			assert.Equal(t, tt.want, tab.URL)
		})
	}
}

func TestWindow_TitleFollowsCurrentTab(t *testing.T) {
	r := memory.New(
		memory.WithTitle("https://a.test/", "Alpha"),
		memory.WithTitle("https://b.test/", "Beta"),
	)
	f := newWindowFixture(t, r)
	f.expectWelcome()

	assert.Equal(t, "New Tab - Voce Browser", f.window.WindowTitle())

	a := f.addTab(t, "https://a.test/")
	assert.Equal(t, "Alpha - Voce Browser", f.window.WindowTitle())
	assert.Equal(t, "Alpha", a.Label)

	b := f.addTab(t, "https://b.test/")
	assert.Equal(t, "Beta - Voce Browser", f.window.WindowTitle())

	require.NoError(t, f.window.Activate(a.ID))
	assert.Equal(t, "Alpha - Voce Browser", f.window.WindowTitle())
	assert.Equal(t, "https://a.test/", f.window.AddressText())

	// A blank title falls back to the default label.
	f.nav(t, a.ID).SetTitle("   ")
	f.loop.Drain()
	assert.Equal(t, "New Tab - Voce Browser", f.window.WindowTitle())
	assert.Equal(t, entity.DefaultTabLabel, a.Label)
	assert.Equal(t, "Beta", b.Label)
}

func TestWindow_BackgroundEventsOnlyTouchTheirTab(t *testing.T) {
	r := memory.New(memory.WithTitle("https://b2.test/", "Elsewhere"))
	f := newWindowFixture(t, r)
	f.expectWelcome()

	a := f.addTab(t, "https://a.test/")
	b := f.addTab(t, "https://b.test/")
	require.NoError(t, f.window.Activate(a.ID))
	title := f.window.WindowTitle()

	require.NoError(t, f.nav(t, b.ID).Navigate(f.ctx, "https://b2.test/"))
	f.loop.Drain()

	assert.Equal(t, a.URL, f.window.AddressText())
	assert.Equal(t, title, f.window.WindowTitle())
	assert.Equal(t, "https://b2.test/", b.URL)
	assert.Equal(t, "Elsewhere", b.Label)
	assert.Equal(t, "https://b2.test/favicon.ico", b.Icon)
}

func TestWindow_EventsFromRemovedTabAreDropped(t *testing.T) {
	f := newWindowFixture(t, memory.New())
	f.expectWelcome()

	a := f.addTab(t, "https://a.test/")
	b := f.addTab(t, "https://b.test/")

	// Queue events for b, then remove it before they run.
	require.NoError(t, f.nav(t, b.ID).Navigate(f.ctx, "https://late.test/"))
	require.NoError(t, f.window.CloseTab(f.ctx, b.ID))
	f.loop.Drain()

	assert.Equal(t, a.ID, f.window.Tabs().CurrentID())
	assert.Equal(t, "https://a.test/", f.window.AddressText())
	assert.Nil(t, f.window.Tabs().Find(b.ID))
}

func TestWindow_DecliningCloseKeepsWindow(t *testing.T) {
	f := newWindowFixture(t, memory.New())
	f.expectWelcome()
	for i := 0; i < 3; i++ {
		f.addTab(t, "")
	}
	f.answerClose(false).Once()

	f.window.RequestClose()
	f.loop.Drain()

	assert.Equal(t, 3, f.window.Tabs().Count())
	assert.False(t, f.window.Closed())
	assert.False(t, f.window.Confirming())
	assert.Empty(t, f.host.closed)
}

func TestWindow_ClosingLastTabClosesWindow(t *testing.T) {
	r := memory.New()
	f := newWindowFixture(t, r)
	f.expectWelcome()
	tab := f.addTab(t, "https://a.test/")
	f.answerClose(true).Once()

	require.NoError(t, f.window.CloseTab(f.ctx, tab.ID))

	assert.True(t, f.window.Closed())
	assert.True(t, f.window.Channel().Stopped())
	assert.Zero(t, f.window.Tabs().Count())
	assert.Empty(t, r.Contexts())
	assert.Equal(t, []*WindowController{f.window}, f.host.closed)

	// A closed window ignores further requests.
	f.window.RequestClose()
	f.window.HandleCommand(entity.CommandOpenTab)
	assert.Zero(t, f.window.Tabs().Count())
}

func TestWindow_CloseRequestsWhilePendingAreIgnored(t *testing.T) {
	f := newWindowFixture(t, memory.New())
	f.expectWelcome()
	f.addTab(t, "")

	var answer func(bool)
	f.dialog.EXPECT().Confirm(CloseQuestion, mock.Anything).
		Run(func(_ string, a func(bool)) { answer = a }).
		Once()

	f.window.RequestClose()
	f.window.RequestClose()
	f.window.HandleCommand(entity.CommandCloseCurrentWindow)
	require.NotNil(t, answer)
	assert.True(t, f.window.Confirming())

	answer(true)
	assert.True(t, f.window.Closed())
	assert.Len(t, f.host.closed, 1)
}

func TestWindow_CloseWithoutConfirmation(t *testing.T) {
	f := newWindowFixture(t, memory.New())
	cfg := config.DefaultConfig()
	cfg.Window.ConfirmClose = false
	w := f.newWindow(t, func(o *WindowOptions) { o.Config = cfg })
	_, err := w.AddTab(f.ctx, TabOptions{})
	require.NoError(t, err)

	w.RequestClose()

	assert.True(t, w.Closed())
}

func TestWindow_WelcomeOnceAcrossWindows(t *testing.T) {
	r := memory.New(memory.WithFailingHost("down.test"))
	f := newWindowFixture(t, r)
	second := f.newWindow(t)

	// Failed loads do not count.
	f.addTab(t, "https://down.test/")
	assert.False(t, f.state.Initialized())

	f.speaker.EXPECT().Welcome(mock.Anything).Return(nil).Once()

	f.addTab(t, "https://a.test/")
	_, err := second.AddTab(f.ctx, TabOptions{URL: "https://b.test/"})
	require.NoError(t, err)
	f.loop.Drain()
	require.NoError(t, f.window.Reload(f.ctx))
	f.loop.Drain()

	assert.True(t, f.state.Initialized())
}

func TestWindow_AssistantCommandsRunOnLoop(t *testing.T) {
	commands := make(chan entity.Command, 4)
	f := newWindowFixture(t, memory.New(), withSource(assistant.NewChanSource(commands)))
	f.expectWelcome()

	f.addTab(t, "https://a.test/")
	require.True(t, f.window.Channel().Started())

	commands <- entity.CommandOpenTab
	require.Eventually(t, func() bool {
		f.loop.Drain()
		return f.window.Tabs().Count() == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, f.window.AddressText())

	commands <- entity.CommandOpenWindow
	require.Eventually(t, func() bool {
		f.loop.Drain()
		return len(f.host.created) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{""}, f.host.created)

	commands <- entity.CommandCloseCurrentTab
	require.Eventually(t, func() bool {
		f.loop.Drain()
		return f.window.Tabs().Count() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "https://a.test/", f.window.AddressText())
}

func TestWindow_AssistantClosesSingleTabWindow(t *testing.T) {
	commands := make(chan entity.Command, 1)
	f := newWindowFixture(t, memory.New(), withSource(assistant.NewChanSource(commands)))
	f.expectWelcome()
	f.answerClose(true).Once()

	f.addTab(t, "https://a.test/")
	commands <- entity.CommandCloseCurrentTab

	require.Eventually(t, func() bool {
		f.loop.Drain()
		return f.window.Closed()
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, f.window.Channel().Stopped())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.window.Channel().Wait(ctx))
}

func TestWindow_SurfaceRequests(t *testing.T) {
	r := memory.New(memory.WithTitle("https://popup.test/", "Popup"))
	f := newWindowFixture(t, r)
	f.expectWelcome()
	opener := f.addTab(t, "https://a.test/")

	surface := f.nav(t, opener.ID).RequestSurface(f.ctx, port.SurfaceTab, "https://popup.test/")
	require.NotNil(t, surface)
	f.loop.Drain()

	require.Equal(t, 2, f.window.Tabs().Count())
	current, err := f.window.Tabs().Current()
	require.NoError(t, err)
	assert.Equal(t, "https://popup.test/", current.URL)
	assert.Equal(t, "Popup", current.Label)
	assert.Equal(t, "https://popup.test/", f.window.AddressText())

	window := f.nav(t, opener.ID).RequestSurface(f.ctx, port.SurfaceWindow, "https://other.test/")
	require.NotNil(t, window)
	f.loop.Drain()

	assert.Equal(t, []port.NavigationContext{window}, f.host.adopted)
	assert.Equal(t, 2, f.window.Tabs().Count())
}

func TestWindow_DevTools(t *testing.T) {
	r := memory.New(memory.WithTitle("https://a.test/", "Alpha"))
	f := newWindowFixture(t, r)
	f.expectWelcome()
	target := f.addTab(t, "https://a.test/")

	f.nav(t, target.ID).RequestDevTools()
	f.loop.Drain()

	require.Equal(t, 2, f.window.Tabs().Count())
	inspector, err := f.window.Tabs().Current()
	require.NoError(t, err)
	assert.Equal(t, target.ID, inspector.Inspects)
	assert.Equal(t, "Alpha", inspector.Label)
	assert.Same(t, f.nav(t, target.ID), f.nav(t, inspector.ID).Inspected())

	require.NoError(t, f.window.CloseTab(f.ctx, inspector.ID))
	assert.Equal(t, target.ID, f.window.Tabs().CurrentID())
	assert.False(t, f.nav(t, target.ID).Closed())

	assert.ErrorIs(t, f.window.OpenDevTools(f.ctx, "missing"), ErrTabNotFound)
}

func TestWindow_HistoryActions(t *testing.T) {
	f := newWindowFixture(t, memory.New())
	f.expectWelcome()
	tab := f.addTab(t, "https://a.test/")
	require.NoError(t, f.window.Navigate(f.ctx, "b.test"))
	f.loop.Drain()

	require.NoError(t, f.window.GoBack(f.ctx))
	f.loop.Drain()
	assert.Equal(t, "https://a.test/", f.window.AddressText())

	require.NoError(t, f.window.GoForward(f.ctx))
	f.loop.Drain()
	assert.Equal(t, "https://b.test", f.window.AddressText())

	require.NoError(t, f.window.GoHome(f.ctx))
	assert.Equal(t, "https://duckduckgo.com/", f.window.AddressText())
	f.loop.Drain()
	assert.Equal(t, "https://duckduckgo.com/", tab.URL)

	require.NoError(t, f.window.Reload(f.ctx))
	assert.Equal(t, "https://duckduckgo.com/", f.window.AddressText())
	require.NoError(t, f.window.Stop(f.ctx))
}

func TestWindow_CycleTabsSyncsChrome(t *testing.T) {
	f := newWindowFixture(t, memory.New())
	f.expectWelcome()
	a := f.addTab(t, "https://a.test/")
	f.addTab(t, "https://b.test/")

	f.window.NextTab()
	assert.Equal(t, a.ID, f.window.Tabs().CurrentID())
	assert.Equal(t, "https://a.test/", f.window.AddressText())

	f.window.PreviousTab()
	assert.Equal(t, "https://b.test/", f.window.AddressText())
}

func TestNewWindowController_RequiresPostAndRenderer(t *testing.T) {
	_, err := NewWindowController(context.Background(), WindowOptions{Renderer: memory.New()})
	assert.Error(t, err)

	_, err = NewWindowController(context.Background(), WindowOptions{Post: func(func()) {}})
	assert.Error(t, err)
}
