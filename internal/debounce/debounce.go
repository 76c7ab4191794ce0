// Package debounce collapses bursts of identical fetch triggers into
// one underlying call whose result is shared with every waiter.
package debounce

import (
	"context"
	"sync"
	"time"
)

type result[T any] struct {
	v   T
	err error
}

// Debouncer coalesces calls arriving within the window and dispatches
// the wrapped function once on the trailing edge.
type Debouncer[T any] struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func(context.Context) (T, error)
	timer   *time.Timer
	waiters []chan result[T]
	lastCtx context.Context
}

// New wraps fn with a trailing-edge debounce window.
func New[T any](window time.Duration, fn func(context.Context) (T, error)) *Debouncer[T] {
	if window <= 0 {
		window = 300 * time.Millisecond
	}
	return &Debouncer[T]{window: window, fn: fn}
}

// Call waits for the current burst to settle, then returns the shared
// result of the single dispatched call. A caller whose context expires
// before dispatch gets its context error; the others are unaffected.
func (d *Debouncer[T]) Call(ctx context.Context) (T, error) {
	ch := make(chan result[T], 1)
	d.mu.Lock()
	d.waiters = append(d.waiters, ch)
	d.lastCtx = ctx
	if d.timer == nil {
		d.timer = time.AfterFunc(d.window, d.flush)
	} else {
		d.timer.Reset(d.window)
	}
	d.mu.Unlock()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (d *Debouncer[T]) flush() {
	d.mu.Lock()
	waiters := d.waiters
	ctx := d.lastCtx
	d.waiters = nil
	d.timer = nil
	d.mu.Unlock()
	if len(waiters) == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	v, err := d.fn(ctx)
	for _, ch := range waiters {
		ch <- result[T]{v: v, err: err}
	}
}
