package broker

import (
	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/store"
)

// State is a category's position in the prompt state machine.
type State int

const (
	// StateIdle: queue empty, prompt closed.
	StateIdle State = iota
	// StateAwaitingFocus: queue non-empty, focus check in flight.
	StateAwaitingFocus
	// StatePrompting: queue non-empty, prompt open, focus settled.
	StatePrompting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFocus:
		return "awaiting_focus"
	case StatePrompting:
		return "prompting"
	default:
		return "unknown"
	}
}

// Grant carries the options of a grant decision.
type Grant struct {
	// Ephemeral marks a one-time grant.
	Ephemeral bool

	// Amount caps a spending authorization in satoshis. Ignored for other
	// categories.
	Amount int64
}

// CategoryView is a consistent snapshot of one category for decision surfaces.
type CategoryView struct {
	Category request.Category
	State    State

	// PromptOpen is true once the focus check resolved and until the queue drains.
	PromptOpen bool

	// Head is the request to render, or nil when the queue is empty.
	Head request.Request

	Length int

	// Items is a copy of the queue, head first.
	Items []request.Request

	// Episode is the current episode token, empty when idle.
	Episode string

	// DecisionInFlight is true while a grant/deny for Head awaits the wallet.
	DecisionInFlight bool
}

// Change notifies watchers of a category transition.
type Change struct {
	Seq        int64
	Category   request.Category
	Kind       store.Kind
	RequestID  string
	State      State
	PromptOpen bool
	Length     int
}

// CategoryStats counts what happened in one category since construction.
type CategoryStats struct {
	Enqueued int64
	Dropped  int64
	Granted  int64
	Denied   int64
	Failed   int64
	Advanced int64
	Episodes int64
}

// Stats holds counters for every category.
type Stats struct {
	Categories map[request.Category]CategoryStats
}
