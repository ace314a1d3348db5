package harness

import (
	"github.com/roach88/walletbroker/internal/broker"
	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/store"
	"github.com/roach88/walletbroker/internal/testutil"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Errors lists step and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	RunID string `json:"run_id"`

	// Trace is the run's journal in seq order.
	Trace []store.Entry `json:"trace"`

	// FocusCalls lists coordinator calls in the order the host received them.
	FocusCalls []string `json:"focus_calls"`

	// Decisions lists wallet calls in the order the wallet received them.
	Decisions []testutil.Decision `json:"decisions"`

	// Views holds each category's final state.
	Views map[request.Category]broker.CategoryView `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Errors:     []string{},
		Trace:      []store.Entry{},
		FocusCalls: []string{},
		Decisions:  []testutil.Decision{},
		Views:      make(map[request.Category]broker.CategoryView),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
