package mainloop

import (
	"strings"
	"sync"
)

// Coalescer merges bursts of same-key tasks into one run on the loop.
// The most recently posted callback for a key wins.
type Coalescer struct {
	mu        sync.Mutex
	pending   map[string]bool
	callbacks map[string]func()
	post      func(func())
	destroyed bool
}

// NewCoalescer wraps post, usually (*Loop).Post.
func NewCoalescer(post func(func())) *Coalescer {
	if post == nil {
		panic("mainloop.NewCoalescer: post function cannot be nil")
	}

	return &Coalescer{
		pending:   make(map[string]bool),
		callbacks: make(map[string]func()),
		post:      post,
	}
}

// Post schedules fn under key. If a task for key is already scheduled,
// fn replaces its callback and nothing new is posted.
func (c *Coalescer) Post(key string, fn func()) {
	if fn == nil || key == "" {
		return
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.callbacks[key] = fn
	if c.pending[key] {
		c.mu.Unlock()
		return
	}
	c.pending[key] = true
	post := c.post
	c.mu.Unlock()

	post(func() { c.run(key) })
}

func (c *Coalescer) run(key string) {
	c.mu.Lock()
	if c.destroyed {
		delete(c.pending, key)
		delete(c.callbacks, key)
		c.mu.Unlock()
		return
	}
	fn := c.callbacks[key]
	delete(c.pending, key)
	delete(c.callbacks, key)
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Cancel drops the callback scheduled under key, if any.
// The already posted task becomes a no-op.
func (c *Coalescer) Cancel(key string) {
	c.mu.Lock()
	delete(c.callbacks, key)
	c.mu.Unlock()
}

// CancelPrefix drops every scheduled callback whose key starts with prefix.
func (c *Coalescer) CancelPrefix(prefix string) {
	c.mu.Lock()
	for key := range c.callbacks {
		if strings.HasPrefix(key, prefix) {
			delete(c.callbacks, key)
		}
	}
	c.mu.Unlock()
}

// Destroy drops all scheduled work and ignores further posts.
func (c *Coalescer) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	c.pending = map[string]bool{}
	c.callbacks = map[string]func(){}
	c.mu.Unlock()
}
