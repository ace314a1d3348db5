package testutil

import (
	"context"
	"sync"
)

// Focus operations recorded by FocusRecorder.
const (
	OpIsFocused  = "is_focused"
	OpRequest    = "request_focus"
	OpRelinquish = "relinquish_focus"
)

// FocusRecorder is a focus coordinator that records every call.
//
// It models a host window: RequestFocus makes it focused and
// RelinquishFocus makes it unfocused. Errors can be injected per operation,
// and Hold makes IsFocused block so tests can enqueue while a check is in
// flight.
//
// Thread-safety: safe for concurrent use.
type FocusRecorder struct {
	mu      sync.Mutex
	focused bool
	calls   []string
	errs    map[string]error
	gate    chan struct{}
}

// NewFocusRecorder creates a recorder with the given initial focus state.
func NewFocusRecorder(focused bool) *FocusRecorder {
	return &FocusRecorder{
		focused: focused,
		errs:    make(map[string]error),
	}
}

// IsFocused records the call and reports the current state.
func (r *FocusRecorder) IsFocused(ctx context.Context) (bool, error) {
	r.mu.Lock()
	r.calls = append(r.calls, OpIsFocused)
	gate := r.gate
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs[OpIsFocused]; err != nil {
		return false, err
	}
	return r.focused, nil
}

// RequestFocus records the call and, unless failing, becomes focused.
func (r *FocusRecorder) RequestFocus(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, OpRequest)
	if err := r.errs[OpRequest]; err != nil {
		return err
	}
	r.focused = true
	return nil
}

// RelinquishFocus records the call and, unless failing, becomes unfocused.
func (r *FocusRecorder) RelinquishFocus(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, OpRelinquish)
	if err := r.errs[OpRelinquish]; err != nil {
		return err
	}
	r.focused = false
	return nil
}

// SetFocused changes the host focus state, as if the user switched windows.
func (r *FocusRecorder) SetFocused(focused bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focused = focused
}

// Focused reports the current host focus state.
func (r *FocusRecorder) Focused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focused
}

// Fail makes op return err until cleared with a nil err.
func (r *FocusRecorder) Fail(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.errs, op)
		return
	}
	r.errs[op] = err
}

// Hold blocks IsFocused calls until release is called.
func (r *FocusRecorder) Hold() (release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	r.gate = gate

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			if r.gate == gate {
				r.gate = nil
			}
			r.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns a copy of the recorded operations in call order.
func (r *FocusRecorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many times op was called.
func (r *FocusRecorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == op {
			n++
		}
	}
	return n
}

// Reset clears the recorded calls. Focus state and failures are kept.
func (r *FocusRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
