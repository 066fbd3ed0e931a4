package mainloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopDrainRunsInOrderIncludingReposts(t *testing.T) {
	l := New()
	var got []int

	l.Post(func() {
		got = append(got, 1)
		l.Post(func() { got = append(got, 3) })
	})
	l.Post(func() { got = append(got, 2) })

	assert.Equal(t, 2, l.Pending())
	assert.Equal(t, 3, l.Drain())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 0, l.Drain())
}

func TestLoopPostFromManyGoroutines(t *testing.T) {
	l := New()
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(func() { count++ })
		}()
	}
	wg.Wait()

	l.Drain()
	assert.Equal(t, 50, count)
}

func TestLoopRunStopsOnClose(t *testing.T) {
	l := New()
	ran := make(chan struct{})
	l.Post(func() { close(ran) })

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}

	l.Close()
	require.NoError(t, <-errCh)
	assert.False(t, l.Post(func() {}), "closed loop rejects tasks")
	l.Close()
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
	assert.False(t, l.Post(nil))
}
