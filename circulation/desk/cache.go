package desk

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
)

// snapshotCache holds the last result of load. At most one load runs at a time.
// While a load is running, callers get the previous snapshot. Only the very first load is
// waited for, and that wait ends with the caller's context.
type snapshotCache[T any] struct {
	loading chan struct{} // one slot, held by the running load
	load    func(ctx context.Context) (T, error)
	clock   shell.Clock
	maxAge  time.Duration

	mu         sync.RWMutex
	value      T
	computedAt time.Time
	loaded     bool
}

func newSnapshotCache[T any](load func(ctx context.Context) (T, error), clock shell.Clock, maxAge time.Duration) *snapshotCache[T] {
	return &snapshotCache[T]{loading: make(chan struct{}, 1), load: load, clock: clock, maxAge: maxAge}
}

// get returns the cached value while it is younger than maxAge, otherwise loads a new one.
// A failed load keeps the previous value for the next caller.
func (c *snapshotCache[T]) get(ctx context.Context) (T, error) {
	if value, ok := c.fresh(); ok {
		return value, nil
	}

	select {
	case c.loading <- struct{}{}:
	default:
		if value, ok := c.last(); ok {
			return value, nil
		}

		if err := c.acquire(ctx); err != nil {
			var zero T
			return zero, err
		}
	}
	defer c.release()

	if value, ok := c.fresh(); ok {
		return value, nil
	}

	return c.reload(ctx)
}

// refresh loads a new value regardless of its age. It waits for a running load first.
func (c *snapshotCache[T]) refresh(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	_, err := c.reload(ctx)

	return err
}

func (c *snapshotCache[T]) acquire(ctx context.Context) error {
	select {
	case c.loading <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *snapshotCache[T]) release() {
	<-c.loading
}

func (c *snapshotCache[T]) fresh() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.loaded && c.maxAge > 0 && c.clock().Sub(c.computedAt) < c.maxAge {
		return c.value, true
	}

	var zero T
	return zero, false
}

func (c *snapshotCache[T]) last() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.value, c.loaded
}

// reload must be called while holding the loading slot.
func (c *snapshotCache[T]) reload(ctx context.Context) (T, error) {
	value, err := c.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.value, c.computedAt, c.loaded = value, c.clock(), true
	c.mu.Unlock()

	return value, nil
}
