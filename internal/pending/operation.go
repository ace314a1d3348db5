// Package pending provides a single-settlement completion value used to hand
// a human decision back to a blocked SDK caller.
package pending

import (
	"context"
	"sync"
)

// Operation is a value that is settled exactly once, either with a result
// (Resolve) or an error (Reject). Waiters block until settlement or until
// their context ends.
//
// Thread-safety: all methods are safe for concurrent use.
type Operation[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New creates an unsettled operation.
func New[T any]() *Operation[T] {
	return &Operation[T]{done: make(chan struct{})}
}

// Resolve settles the operation with v.
// Returns false if the operation was already settled; the first settlement wins.
func (o *Operation[T]) Resolve(v T) bool {
	settled := false
	o.once.Do(func() {
		o.value = v
		settled = true
		close(o.done)
	})
	return settled
}

// Reject settles the operation with err.
// Returns false if the operation was already settled.
func (o *Operation[T]) Reject(err error) bool {
	settled := false
	o.once.Do(func() {
		o.err = err
		settled = true
		close(o.done)
	})
	return settled
}

// Wait blocks until the operation settles or ctx is done.
// A context error leaves the operation unsettled.
func (o *Operation[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-o.done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed on settlement.
func (o *Operation[T]) Done() <-chan struct{} {
	return o.done
}

// Settled reports whether Resolve or Reject has taken effect.
func (o *Operation[T]) Settled() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}
