package assistant

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bnema/voce/internal/domain/entity"
)

func TestLineSource_SkipsUnknownUtterances(t *testing.T) {
	src := NewLineSource(strings.NewReader("open new tab\nwhat time is it\n\nclose the tab\n"), nil, nil)
	ctx := context.Background()

	cmd, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.CommandOpenTab, cmd)

	cmd, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.CommandCloseCurrentTab, cmd)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineSource_HonorsContext(t *testing.T) {
	r, w := io.Pipe()
	src := NewLineSource(r, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, w.Close())
	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineSource_ReadErrorReportedOnce(t *testing.T) {
	long := strings.Repeat("x", bufio.MaxScanTokenSize+1) + "\n"
	src := NewLineSource(strings.NewReader(long), nil, nil)

	_, err := src.Next(context.Background())
	require.ErrorIs(t, err, bufio.ErrTooLong)

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineSource_ReadErrorEndsChannel(t *testing.T) {
	long := strings.Repeat("x", bufio.MaxScanTokenSize+1) + "\n"
	src := NewLineSource(strings.NewReader(long), nil, nil)
	ch := NewChannel(context.Background(), src, func(fn func()) { fn() }, WithBackoff(time.Millisecond))
	ch.SetHandler(func(entity.Command) {})

	require.True(t, ch.Start(context.Background()))
	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("channel kept retrying a failed reader")
	}
}

func TestLineSource_CloseReleasesReader(t *testing.T) {
	before := goleak.IgnoreCurrent()
	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })
	src := NewLineSource(r, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The reader now holds a line nobody will take.
	_, err = w.Write([]byte("open tab\n"))
	require.NoError(t, err)
	require.NoError(t, src.Close())

	require.Eventually(t, func() bool {
		return goleak.Find(before) == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func appendLine(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFileSource_FollowsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents")
	require.NoError(t, os.WriteFile(path, []byte("close window\n"), 0o644))

	src := NewFileSource(path, nil, nil)
	t.Cleanup(func() { _ = src.Close() })
	require.NoError(t, src.init())

	appendLine(t, path, "open new window\nnonsense words here\nclo")
	appendLine(t, path, "se tab\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.CommandOpenWindow, cmd, "lines present before start are ignored")

	cmd, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.CommandCloseCurrentTab, cmd, "partial lines are joined")
}

func TestFileSource_RereadsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents")
	src := NewFileSource(path, nil, nil)
	t.Cleanup(func() { _ = src.Close() })
	require.NoError(t, src.init())

	appendLine(t, path, "open tab\n")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cmd, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.CommandOpenTab, cmd)

	require.NoError(t, os.WriteFile(path, []byte("new window\n"), 0o644))
	cmd, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.CommandOpenWindow, cmd)
}

func TestFileSource_Path(t *testing.T) {
	src := NewFileSource("/tmp/voce/../voce/intents", nil, nil)
	assert.Equal(t, "/tmp/voce/intents", src.Path())
	assert.NoError(t, src.Close())
}

func TestLogSpeaker_WritesGreeting(t *testing.T) {
	var buf bytes.Buffer
	speaker := NewLogSpeaker("hello there", &buf, nil)

	require.NoError(t, speaker.Welcome(context.Background()))
	assert.Equal(t, "hello there\n", buf.String())

	assert.NoError(t, NewLogSpeaker("quiet", nil, nil).Welcome(context.Background()))
}
