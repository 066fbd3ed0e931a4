package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/voce/internal/assistant"
	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/domain/intent"
	"github.com/bnema/voce/internal/infrastructure/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	app, err := NewApp(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func runBrowse(t *testing.T, app *App, opts BrowseOptions) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- app.Browse(ctx, opts) }()
	select {
	case err := <-errc:
		return err
	case <-time.After(15 * time.Second):
		t.Fatal("browse did not return")
		return nil
	}
}

func TestBrowse_HeadlessStdinCommandsCloseTheWindow(t *testing.T) {
	app := newTestApp(t)
	var out bytes.Buffer

	err := runBrowse(t, app, BrowseOptions{
		URL:    "example.com",
		Engine: "memory",
		NoTUI:  true,
		Stdin:  true,
		In:     strings.NewReader("open new tab\nmumble\nclose this window\n"),
		Out:    &out,
		State:  assistant.NewState(),
	})

	require.NoError(t, err)
	assert.Contains(t, out.String(), app.Config.Assistant.Greeting)
}

func TestBrowse_HeadlessIntentFile(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "intents")
	require.NoError(t, os.WriteFile(path, []byte("close window\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- app.Browse(ctx, BrowseOptions{
			Engine:     "memory",
			NoTUI:      true,
			IntentFile: path,
			Out:        &bytes.Buffer{},
			State:      assistant.NewState(),
		})
	}()

	// Lines present at start are skipped; keep appending until the session ends.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			return
		case <-ticker.C:
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
			require.NoError(t, err)
			_, err = f.WriteString("close window\n")
			require.NoError(t, err)
			require.NoError(t, f.Close())
		}
	}
}

func TestBrowse_CanceledContextEndsSession(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		errc <- app.Browse(ctx, BrowseOptions{
			Engine: "memory",
			NoTUI:  true,
			Out:    &bytes.Buffer{},
			State:  assistant.NewState(),
		})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("browse ignored cancellation")
	}
}

func TestApplyBrowseOverrides(t *testing.T) {
	t.Run("unknown engine", func(t *testing.T) {
		cfg := config.DefaultConfig()
		err := applyBrowseOverrides(cfg, BrowseOptions{Engine: "gecko"})
		assert.ErrorContains(t, err, "unknown renderer engine")
	})

	t.Run("stdin needs no-tui", func(t *testing.T) {
		cfg := config.DefaultConfig()
		err := applyBrowseOverrides(cfg, BrowseOptions{Stdin: true})
		assert.Error(t, err)
	})

	t.Run("intent file enables the assistant", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Assistant.Enabled = false
		headless := true
		require.NoError(t, applyBrowseOverrides(cfg, BrowseOptions{
			Engine:     "memory",
			Headless:   &headless,
			IntentFile: "/tmp/intents",
		}))
		assert.Equal(t, config.RendererMemory, cfg.Renderer.Engine)
		assert.True(t, cfg.Renderer.Headless)
		assert.True(t, cfg.Assistant.Enabled)
		assert.Equal(t, "/tmp/intents", cfg.Assistant.IntentFile)
	})
}

func TestNewCommandSource(t *testing.T) {
	cfg := config.DefaultConfig().Assistant

	t.Run("disabled", func(t *testing.T) {
		c := cfg
		c.Enabled = false
		src, closeFn, err := newCommandSource(c, BrowseOptions{}, nil)
		require.NoError(t, err)
		defer closeFn()
		assert.Nil(t, src)
	})

	t.Run("intent file wins over stdin", func(t *testing.T) {
		c := cfg
		c.IntentFile = filepath.Join(t.TempDir(), "intents")
		c.Stdin = true
		src, closeFn, err := newCommandSource(c, BrowseOptions{NoTUI: true}, nil)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &assistant.FileSource{}, src)
	})

	t.Run("stdin", func(t *testing.T) {
		c := cfg
		c.Stdin = true
		src, closeFn, err := newCommandSource(c, BrowseOptions{NoTUI: true, In: strings.NewReader("new tab\n")}, nil)
		require.NoError(t, err)
		defer closeFn()
		require.IsType(t, &assistant.LineSource{}, src)

		cmd, err := src.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, entity.CommandOpenTab, cmd)
	})
}

func TestParseIntent_UsesConfiguredRatio(t *testing.T) {
	app := newTestApp(t)

	cmd, err := app.ParseIntent("close ths window")
	require.NoError(t, err)
	assert.Equal(t, entity.CommandCloseCurrentWindow, cmd)

	app.Config.Assistant.FuzzyRatio = 0
	_, err = app.ParseIntent("close ths window")
	assert.ErrorIs(t, err, intent.ErrUnknownIntent)
}

func TestInitConfig_WritesOnce(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "voce", "config.toml")

	written, err := app.InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, written)
	assert.FileExists(t, path)

	_, err = app.InitConfig(path)
	assert.Error(t, err)
}

func TestRenderConfig_ListsEffectiveValues(t *testing.T) {
	app := newTestApp(t)
	out := app.RenderConfig()
	assert.Contains(t, out, "(defaults)")
	assert.Contains(t, out, app.Config.HomeURL)
	assert.Contains(t, out, "window.confirm_close")
}

func TestLogToFile(t *testing.T) {
	app := newTestApp(t)
	path, err := app.LogToFile()
	require.NoError(t, err)
	assert.FileExists(t, path)
}
