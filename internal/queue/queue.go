// Package queue provides the FIFO used for per-category request queues and
// for the broker's internal event inbox.
package queue

import "sync"

// Queue is a thread-safe FIFO.
//
// Items are appended at the tail and removed only from the head. The queue
// never reorders or deduplicates: two equal items enqueue as two entries.
//
// The queue is unbounded so SDK callbacks never block on a slow decision
// surface.
//
// Wait returns a signal channel (buffered, size 1) so consumers can combine
// waiting with context cancellation in a select.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items:  make([]T, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends item to the tail.
//
// wasEmpty reports whether the queue held no items before this insertion.
// Under concurrent enqueues exactly one caller observes wasEmpty for each
// empty to non-empty transition.
//
// ok is false if the queue is closed; the item is not added.
func (q *Queue[T]) Enqueue(item T) (wasEmpty bool, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, false
	}

	wasEmpty = len(q.items) == 0
	q.items = append(q.items, item)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return wasEmpty, true
}

// Dequeue removes and returns the head without blocking.
// Returns false if the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Advance removes the head, if any, and returns the new length.
// Advancing an empty queue is a no-op that returns 0.
func (q *Queue[T]) Advance() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.popLocked()
	return len(q.items)
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	item := q.items[0]

	// Clear the slot so the backing array does not pin the item.
	q.items[0] = zero

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return item, true
}

// PeekHead returns the head without removing it.
func (q *Queue[T]) PeekHead() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Items returns a copy of the queue contents, head first.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the current queue length.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Wait returns a channel that signals when items may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try Dequeue
//	}
//
// The channel is closed by Close.
func (q *Queue[T]) Wait() <-chan struct{} {
	return q.signal
}

// Close stops further enqueues and wakes all waiters.
// Items already queued remain available to Dequeue.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
