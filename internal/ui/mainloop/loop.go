// Package mainloop provides the UI-owning execution context: a task queue
// drained by exactly one goroutine at a time, plus helpers that marshal work
// onto it from other goroutines.
package mainloop

import (
	"context"
	"sync"
)

// Loop is an unbounded FIFO of tasks. Post is safe from any goroutine,
// including from a task running on the loop itself, and never blocks.
// Tasks run in posting order on whichever goroutine calls Drain or Run.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	ready  chan struct{}
	done   chan struct{}
	closed bool
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn. Returns false when the loop is closed and fn was dropped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready is signaled whenever tasks may be pending.
func (l *Loop) Ready() <-chan struct{} {
	return l.ready
}

// Done is closed once Close has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Drain runs queued tasks until the queue is empty, including tasks posted
// while draining. Returns the number of tasks run.
func (l *Loop) Drain() int {
	ran := 0
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}

// Run drains the loop until ctx is canceled or the loop is closed.
// Tasks still queued at Close are run before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			l.Drain()
			return nil
		case <-l.ready:
			l.Drain()
		}
	}
}

// Close stops accepting tasks. Closing twice is a no-op.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}
