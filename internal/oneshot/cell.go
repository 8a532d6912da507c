// Package oneshot bridges callback-style APIs into a single blocking wait.
package oneshot

import (
	"context"
	"sync/atomic"
)

type outcome[T any] struct {
	value T
	err   error
}

// Cell accepts at most one completion, either a value or an error. Every
// completion after the first is dropped.
type Cell[T any] struct {
	done atomic.Bool
	ch   chan outcome[T]
}

func New[T any]() *Cell[T] {
	return &Cell[T]{ch: make(chan outcome[T], 1)}
}

// Resolve completes the cell with v. It reports whether this call was the
// one that completed it.
func (c *Cell[T]) Resolve(v T) bool {
	return c.complete(outcome[T]{value: v})
}

// Reject completes the cell with err.
func (c *Cell[T]) Reject(err error) bool {
	return c.complete(outcome[T]{err: err})
}

func (c *Cell[T]) complete(o outcome[T]) bool {
	if !c.done.CompareAndSwap(false, true) {
		return false
	}
	c.ch <- o
	return true
}

// Completed reports whether an outcome has been written.
func (c *Cell[T]) Completed() bool {
	return c.done.Load()
}

// Wait blocks until the cell is completed or ctx is done. Only one reader
// receives the outcome.
func (c *Cell[T]) Wait(ctx context.Context) (T, error) {
	select {
	case o := <-c.ch:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
