// Package broker implements the permission broker: four per-category FIFO
// queues of permission requests, the focus episode around each queue, and
// exactly-once grant/deny of the head request.
//
// # Architecture
//
// All broker state is owned by one goroutine running Run. Public methods post
// an event to the loop's inbox and wait for its reply, so every mutation is
// serialized without locks around the state itself. Focus calls and wallet
// calls never run on the loop: focus calls go through a focus.Dispatcher and
// post their results back as events; wallet calls run on the caller's
// goroutine between a claim and a settle event.
//
// # State machine (per category)
//
//	IDLE           --enqueue first item-->        AWAITING_FOCUS (focus check submitted)
//	AWAITING_FOCUS --focus check resolved-->      PROMPTING      (request focus if unfocused)
//	any non-idle   --enqueue-->                   unchanged      (append only)
//	any non-idle   --advance, queue non-empty-->  unchanged      (new head)
//	any non-idle   --advance, queue empty-->      IDLE           (relinquish if requested)
//
// # Invariants
//
//   - Heads are presented and decided in strict arrival order per category
//   - Only the head's request ID is ever sent to the wallet
//   - At most one decision is in flight per category (ErrDecisionInFlight)
//   - IsFocused is checked once per episode start; focus is requested at
//     most once and relinquished exactly when it was requested
//   - A request failing request.Validate never touches queue or focus
//
// # Journal
//
// When a Journal is configured every transition is appended as a
// store.Entry stamped with the broker's logical clock. Journal failures are
// logged and never affect broker behavior.
package broker
