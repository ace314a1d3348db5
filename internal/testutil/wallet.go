package testutil

import (
	"context"
	"sync"

	"github.com/roach88/walletbroker/internal/sdk"
)

// Decision kinds recorded by FakeWallet.
const (
	DecisionGrant = "grant"
	DecisionDeny  = "deny"
)

// Decision is one grant or deny call received by FakeWallet.
type Decision struct {
	Op        string
	RequestID string
	Ephemeral bool
	Amount    int64
}

// FakeWallet records decisions and can fail or block them on demand.
//
// Thread-safety: safe for concurrent use.
type FakeWallet struct {
	mu        sync.Mutex
	decisions []Decision
	failures  map[string]error
	gate      chan struct{}
}

// NewFakeWallet creates a wallet that accepts every decision.
func NewFakeWallet() *FakeWallet {
	return &FakeWallet{failures: make(map[string]error)}
}

// GrantPermission implements sdk.Wallet.
func (w *FakeWallet) GrantPermission(ctx context.Context, p sdk.GrantParams) error {
	return w.record(ctx, Decision{
		Op:        DecisionGrant,
		RequestID: p.RequestID,
		Ephemeral: p.Ephemeral,
		Amount:    p.Amount,
	})
}

// DenyPermission implements sdk.Wallet.
func (w *FakeWallet) DenyPermission(ctx context.Context, requestID string) error {
	return w.record(ctx, Decision{Op: DecisionDeny, RequestID: requestID})
}

func (w *FakeWallet) record(ctx context.Context, d Decision) error {
	w.mu.Lock()
	w.decisions = append(w.decisions, d)
	gate := w.gate
	err := w.failures[d.RequestID]
	w.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// FailFor makes decisions on requestID return err.
func (w *FakeWallet) FailFor(requestID string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[requestID] = err
}

// Hold blocks decisions until release is called.
func (w *FakeWallet) Hold() (release func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	gate := make(chan struct{})
	w.gate = gate

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			if w.gate == gate {
				w.gate = nil
			}
			w.mu.Unlock()
			close(gate)
		})
	}
}

// Decisions returns a copy of the recorded decisions in call order.
func (w *FakeWallet) Decisions() []Decision {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Decision, len(w.decisions))
	copy(out, w.decisions)
	return out
}

// DecisionsFor returns the decisions recorded for requestID.
func (w *FakeWallet) DecisionsFor(requestID string) []Decision {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []Decision
	for _, d := range w.decisions {
		if d.RequestID == requestID {
			out = append(out, d)
		}
	}
	return out
}
