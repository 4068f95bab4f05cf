// Package guard wraps owned state in a single lock. Data paths acquire with a
// deadline and skip the update on failure; control paths that must not skip
// use Must, which waits without one.
package guard

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Guard owns a value of type T. All access goes through With, Load, Store, Must or Set.
type Guard[T any] struct {
	sem *semaphore.Weighted
	v   T
}

// New returns a Guard owning v.
func New[T any](v T) *Guard[T] {
	return &Guard[T]{sem: semaphore.NewWeighted(1), v: v}
}

// With runs fn with exclusive access to the value, waiting at most timeout.
// It reports whether fn ran. fn must not retain the pointer.
func (g *Guard[T]) With(timeout time.Duration, fn func(v *T)) bool {
	if !g.acquire(timeout) {
		return false
	}
	defer g.sem.Release(1)
	fn(&g.v)
	return true
}

// Must runs fn with exclusive access, waiting as long as it takes. It is for
// control transitions (session start/stop, publishing results) only.
func (g *Guard[T]) Must(fn func(v *T)) {
	_ = g.sem.Acquire(context.Background(), 1) // never fails without a deadline
	defer g.sem.Release(1)
	fn(&g.v)
}

// Set replaces the value, waiting as long as it takes.
func (g *Guard[T]) Set(v T) {
	g.Must(func(cur *T) { *cur = v })
}

// Load returns a copy of the value, waiting at most timeout.
func (g *Guard[T]) Load(timeout time.Duration) (T, bool) {
	var out T
	ok := g.With(timeout, func(v *T) { out = *v })
	return out, ok
}

// Store replaces the value, waiting at most timeout.
func (g *Guard[T]) Store(timeout time.Duration, v T) bool {
	return g.With(timeout, func(cur *T) { *cur = v })
}

func (g *Guard[T]) acquire(timeout time.Duration) bool {
	if g.sem.TryAcquire(1) {
		return true
	}
	if timeout <= 0 {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return g.sem.Acquire(ctx, 1) == nil
}
