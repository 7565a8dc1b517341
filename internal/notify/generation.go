// Package notify provides the change-notification primitives shared by the
// window manager reactor and the event loops: a generation counter that wakes
// waiters on every bump, and a FIFO queue whose consumers race for items.
package notify

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by waits on a closed Generation or Queue.
var ErrClosed = errors.New("notify: closed")

// Generation is a monotonically increasing change counter.
//
// The zero value is ready to use.
type Generation struct {
	mu     sync.Mutex
	gen    uint64
	wake   chan struct{}
	closed bool
}

// Load returns the current generation.
func (g *Generation) Load() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// Bump increments the generation and wakes every pending waiter.
func (g *Generation) Bump() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.broadcastLocked()
	return g.gen
}

// Close wakes all waiters; subsequent waits fail with ErrClosed.
func (g *Generation) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.broadcastLocked()
}

func (g *Generation) broadcastLocked() {
	if g.wake != nil {
		close(g.wake)
		g.wake = nil
	}
}

// Changed blocks until the generation differs from seen and returns the new
// value. Bumps that happen between two calls are coalesced into one wake-up.
func (g *Generation) Changed(ctx context.Context, seen uint64) (uint64, error) {
	for {
		g.mu.Lock()
		if g.gen != seen {
			gen := g.gen
			g.mu.Unlock()
			return gen, nil
		}
		if g.closed {
			g.mu.Unlock()
			return seen, ErrClosed
		}
		if g.wake == nil {
			g.wake = make(chan struct{})
		}
		wake := g.wake
		g.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return seen, ctx.Err()
		}
	}
}

// Await blocks until cond reports true. cond is re-evaluated after every
// generation change; the generation is sampled before each evaluation so a
// change that races with cond is never lost.
func Await(ctx context.Context, g *Generation, cond func() bool) error {
	for {
		seen := g.Load()
		if cond() {
			return nil
		}
		if _, err := g.Changed(ctx, seen); err != nil {
			return err
		}
	}
}
