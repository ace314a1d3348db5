package focus

import (
	"context"
	"sync"
)

// Shared reference-counts focus across every episode that uses it.
//
// The host is asked for focus when the count of requesting episodes goes
// from 0 to 1 and asked to relinquish when it returns to 0. While the count
// is non-zero IsFocused reports false without consulting the host, so every
// overlapping episode joins the count instead of mistaking focus held on
// another episode's behalf for focus the user gave the application.
//
// Thread-safety: safe for concurrent use. Host calls are made under the lock
// so a relinquish cannot race ahead of a request.
type Shared struct {
	mu    sync.Mutex
	inner Coordinator
	held  int
}

// NewShared wraps inner with global reference counting.
func NewShared(inner Coordinator) *Shared {
	return &Shared{inner: inner}
}

// IsFocused implements Coordinator.
func (s *Shared) IsFocused(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held > 0 {
		return false, nil
	}
	return s.inner.IsFocused(ctx)
}

// RequestFocus implements Coordinator.
func (s *Shared) RequestFocus(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.held++
	if s.held > 1 {
		return nil
	}
	return s.inner.RequestFocus(ctx)
}

// RelinquishFocus implements Coordinator.
func (s *Shared) RelinquishFocus(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held == 0 {
		return nil
	}
	s.held--
	if s.held > 0 {
		return nil
	}
	return s.inner.RelinquishFocus(ctx)
}

// Held returns the number of episodes currently holding shared focus.
func (s *Shared) Held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}
