// Package debounce turns a burst of keystrokes into committed search values.
//
// A value is committed only after the quiet period passes with no newer input,
// and it is always the latest value pushed. Flush commits immediately. Close
// and Reset drop whatever is pending; a timer that was already scheduled can
// never fire afterwards.
package debounce

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultQuiet matches the order screen's search box.
const DefaultQuiet = 400 * time.Millisecond

// Option customises a Channel or Subscribe.
type Option func(*options)

type options struct {
	clock clock.WithDelayedExecution
}

// WithClock replaces the wall clock, typically with a fake in tests.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Channel debounces pushed values and hands each commit to a callback.
// The callback runs outside the channel's lock and may call Push or
// LastCommitted, but must not call Flush or Reset.
type Channel struct {
	clock  clock.WithDelayedExecution
	quiet  time.Duration
	commit func(string)

	emitMu sync.Mutex // serialises commits

	mu         sync.Mutex
	timer      clock.Timer
	gen        uint64
	pending    string
	hasPending bool
	last       string
	closed     bool
}

// New returns a Channel committing to commit after quiet of inactivity.
// A non-positive quiet uses DefaultQuiet.
func New(quiet time.Duration, commit func(string), opts ...Option) *Channel {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if commit == nil {
		commit = func(string) {}
	}
	o := buildOptions(opts)
	return &Channel{clock: o.clock, quiet: quiet, commit: commit}
}

// Push records value as the latest input and restarts the quiet period.
// Pushes after Close are ignored.
func (c *Channel) Push(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopLocked()
	c.pending = value
	c.hasPending = true
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.quiet, func() { c.fire(gen) })
}

// Flush commits the pending value now and cancels its timer. It reports
// whether anything was committed.
func (c *Channel) Flush() bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.closed || !c.hasPending {
		c.mu.Unlock()
		return false
	}
	c.stopLocked()
	value := c.takeLocked()
	c.mu.Unlock()

	c.commit(value)
	return true
}

// LastCommitted returns the most recently committed value.
func (c *Channel) LastCommitted() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Reset drops any pending value and forgets the last commit. A commit that
// is already running finishes before Reset returns, and none starts after.
// The channel stays usable.
func (c *Channel) Reset() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.pending = ""
	c.hasPending = false
	c.last = ""
}

// Close drops any pending value and disables the channel for good.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.pending = ""
	c.hasPending = false
	c.closed = true
}

func (c *Channel) fire(gen uint64) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.closed || !c.hasPending || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	value := c.takeLocked()
	c.mu.Unlock()

	c.commit(value)
}

// stopLocked cancels the scheduled timer. Bumping gen also neutralises a
// callback that already started and is waiting on the lock.
func (c *Channel) stopLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) takeLocked() string {
	value := c.pending
	c.pending = ""
	c.hasPending = false
	c.last = value
	return value
}

// Subscribe debounces the in stream. The returned channel receives each
// commit and is closed when ctx is done or in is closed. Cancelling ctx drops
// a pending value; closing in commits it first.
func Subscribe(ctx context.Context, in <-chan string, quiet time.Duration, opts ...Option) <-chan string {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	o := buildOptions(opts)
	out := make(chan string)

	go func() {
		defer close(out)

		var (
			pending    string
			hasPending bool
			timer      clock.Timer
			fire       <-chan time.Time
		)
		stop := func() {
			if timer != nil {
				timer.Stop()
				timer = nil
			}
			fire = nil
		}
		defer stop()

		emit := func(value string) bool {
			select {
			case out <- value:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case value, ok := <-in:
				if !ok {
					stop()
					if hasPending {
						emit(pending)
					}
					return
				}
				stop()
				pending, hasPending = value, true
				timer = o.clock.NewTimer(quiet)
				fire = timer.C()
			case <-fire:
				stop()
				hasPending = false
				if !emit(pending) {
					return
				}
			}
		}
	}()
	return out
}
