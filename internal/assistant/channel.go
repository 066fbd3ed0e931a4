package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/voce/internal/application/port"
	"github.com/bnema/voce/internal/domain/entity"
	"github.com/bnema/voce/internal/logging"
)

// ErrPanicked wraps a panic recovered from a command source.
var ErrPanicked = errors.New("command source panicked")

const defaultBackoff = time.Second

// Handler consumes commands on the UI loop.
type Handler func(entity.Command)

// Channel connects one window to a command source. Production runs on its
// own goroutine; every command is posted to the UI loop and handed to the
// handler there, so the handler never races with UI state.
type Channel struct {
	source  port.CommandSource
	post    func(func())
	backoff time.Duration
	log     *zerolog.Logger

	mu      sync.Mutex
	handler Handler
	cancel  context.CancelFunc

	started  atomic.Bool
	stopped  atomic.Bool
	welcomed atomic.Bool
	done     chan struct{}
}

// Option configures a Channel.
type Option func(*Channel)

// WithBackoff sets the pause after a failed read.
func WithBackoff(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// NewChannel creates a stopped channel. post must enqueue onto the UI loop
// and must not block.
func NewChannel(ctx context.Context, source port.CommandSource, post func(func()), opts ...Option) *Channel {
	if post == nil {
		panic("assistant.NewChannel: post function cannot be nil")
	}
	ctx = logging.WithComponent(ctx, "assistant")
	c := &Channel{
		source:  source,
		post:    post,
		backoff: defaultBackoff,
		log:     logging.FromContext(ctx),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetHandler installs the consumer of delivered commands.
func (c *Channel) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// EmitWelcome delivers a single Welcome command. Later calls are no-ops.
func (c *Channel) EmitWelcome() bool {
	if !c.welcomed.CompareAndSwap(false, true) {
		return false
	}
	c.deliver(entity.CommandWelcome)
	return true
}

// Start begins command production on a new goroutine. It returns false
// when the channel was already started, was stopped, or has no source.
func (c *Channel) Start(ctx context.Context) bool {
	if c.source == nil || c.stopped.Load() {
		return false
	}
	if !c.started.CompareAndSwap(false, true) {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	// Stop may have raced between the flag check and storing cancel.
	if c.stopped.Load() {
		cancel()
	}

	c.log.Info().Msg("assistant command loop started")
	go c.run(runCtx)
	return true
}

// Stop asks the loop to exit at its next checkpoint and returns immediately.
// Commands still in flight to the UI loop are dropped.
func (c *Channel) Stop() {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if !c.started.Load() {
		c.closeDone()
	}
	c.log.Debug().Msg("assistant stop requested")
}

// Started reports whether Start succeeded.
func (c *Channel) Started() bool {
	return c.started.Load()
}

// Stopped reports whether Stop was called.
func (c *Channel) Stopped() bool {
	return c.stopped.Load()
}

// Done is closed once the loop has exited, or on Stop when it never started.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Wait joins the loop. It must not be called from the UI loop.
func (c *Channel) Wait(ctx context.Context) error {
	if !c.started.Load() && !c.stopped.Load() {
		return nil
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for assistant loop: %w", ctx.Err())
	}
}

func (c *Channel) run(ctx context.Context) {
	defer c.closeDone()
	defer c.log.Info().Msg("assistant command loop exited")

	for !c.stopped.Load() {
		cmd, err := c.next(ctx)
		if c.stopped.Load() || ctx.Err() != nil {
			return
		}

		switch {
		case errors.Is(err, io.EOF):
			c.log.Info().Msg("command source exhausted")
			return
		case err != nil:
			c.log.Warn().Err(err).Dur("backoff", c.backoff).Msg("command source failed, retrying")
			if !c.sleep(ctx, c.backoff) {
				return
			}
			continue
		case !cmd.Valid():
			continue
		}

		c.log.Debug().Str("command", cmd.String()).Msg("command produced")
		c.deliver(cmd)
	}
}

// next reads one command, turning a panicking source into an error.
func (c *Channel) next(ctx context.Context) (cmd entity.Command, err error) {
	defer func() {
		if r := recover(); r != nil {
			cmd = entity.CommandNone
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return c.source.Next(ctx)
}

func (c *Channel) deliver(cmd entity.Command) {
	c.post(func() {
		if c.stopped.Load() {
			c.log.Debug().Str("command", cmd.String()).Msg("dropping command for stopped channel")
			return
		}
		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()
		if handler == nil {
			c.log.Warn().Str("command", cmd.String()).Msg("no command handler installed")
			return
		}
		handler(cmd)
	})
}

func (c *Channel) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return !c.stopped.Load()
	}
}

func (c *Channel) closeDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
