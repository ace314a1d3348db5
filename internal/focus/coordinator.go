// Package focus implements the focus contract shared by the permission and
// credential brokers.
//
// The host shell owns application focus and implements Coordinator. Brokers
// never call the coordinator directly: calls go through a Dispatcher so they
// run off the broker's loop, one at a time, in submission order. An Episode
// records the per-episode decisions (was focus already held, was it
// requested) so request and relinquish stay paired.
//
// Focus failures are never fatal. A failed call is logged and the flow
// continues as if it had succeeded.
package focus

import "context"

// Coordinator is the host's focus boundary.
//
// All methods may block; the Dispatcher bounds each call with a timeout.
type Coordinator interface {
	// IsFocused reports whether the host application holds input focus.
	IsFocused(ctx context.Context) (bool, error)

	// RequestFocus asks the host to bring the application forward.
	RequestFocus(ctx context.Context) error

	// RelinquishFocus asks the host to return focus to its previous holder.
	RelinquishFocus(ctx context.Context) error
}

// Nop is a Coordinator for hosts without window management.
// It always reports focused, so episodes never request or relinquish.
type Nop struct{}

func (Nop) IsFocused(context.Context) (bool, error) { return true, nil }
func (Nop) RequestFocus(context.Context) error       { return nil }
func (Nop) RelinquishFocus(context.Context) error    { return nil }
