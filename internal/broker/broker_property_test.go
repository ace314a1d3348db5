package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/roach88/walletbroker/internal/focus"
	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/testutil"
)

const (
	opEnqueue = iota
	opGrant
	opDeny
	opAdvance
)

// runOps drives a fresh broker through ops on the basket category, settling
// after each step, and checks the outcome against a model queue.
func runOps(focused bool, ops []int) (bool, error) {
	rec := testutil.NewFocusRecorder(focused)
	wallet := testutil.NewFakeWallet()
	disp := focus.NewDispatcher(rec, focus.WithLogger(testutil.DiscardLogger()))
	defer disp.Close()

	b := New(wallet, disp,
		WithLogger(testutil.DiscardLogger()),
		WithTokens(testutil.NewSequentialTokens("ep")),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go b.Run(ctx)
	defer func() {
		b.Stop()
		<-b.Done()
	}()

	var (
		model     []string
		decided   []string
		episodes  int
		completed int
		next      int
	)
	pop := func() {
		model = model[1:]
		if len(model) == 0 {
			completed++
		}
	}

	for _, op := range ops {
		var err error
		switch op {
		case opEnqueue:
			id := fmt.Sprintf("r%d", next)
			next++
			if len(model) == 0 {
				episodes++
			}
			model = append(model, id)
			err = b.OnBasketAccessRequested(ctx, basket(id))
		case opGrant, opDeny:
			if op == opGrant {
				err = b.GrantBasket(ctx, Grant{})
			} else {
				err = b.DenyBasket(ctx)
			}
			if len(model) == 0 {
				if !errors.Is(err, ErrQueueEmpty) {
					return false, fmt.Errorf("decision on empty queue: %v", err)
				}
				err = nil
				break
			}
			decided = append(decided, model[0])
			pop()
		case opAdvance:
			err = b.AdvanceBasketQueue(ctx)
			if len(model) > 0 {
				pop()
			}
		}
		if err != nil {
			return false, err
		}
		if err := b.Settle(ctx); err != nil {
			return false, err
		}
	}

	// FIFO and exactly-once: the wallet saw exactly the model's heads, in order.
	got := wallet.Decisions()
	if len(got) != len(decided) {
		return false, fmt.Errorf("decisions = %d, want %d", len(got), len(decided))
	}
	seen := make(map[string]bool)
	for i, d := range got {
		if d.RequestID != decided[i] || seen[d.RequestID] {
			return false, fmt.Errorf("decision %d = %s, want %s", i, d.RequestID, decided[i])
		}
		seen[d.RequestID] = true
	}

	v, err := b.View(ctx, request.CategoryBasket)
	if err != nil {
		return false, err
	}
	if v.Length != len(model) || v.PromptOpen != (len(model) > 0) {
		return false, fmt.Errorf("view length=%d open=%t, model=%d", v.Length, v.PromptOpen, len(model))
	}

	// Episode/focus pairing.
	if rec.Count(testutil.OpIsFocused) != episodes {
		return false, fmt.Errorf("is_focused = %d, episodes = %d", rec.Count(testutil.OpIsFocused), episodes)
	}
	wantRequests, wantRelinquishes := 0, 0
	if !focused {
		wantRequests, wantRelinquishes = episodes, completed
	}
	if rec.Count(testutil.OpRequest) != wantRequests || rec.Count(testutil.OpRelinquish) != wantRelinquishes {
		return false, fmt.Errorf("request=%d relinquish=%d, want %d/%d",
			rec.Count(testutil.OpRequest), rec.Count(testutil.OpRelinquish), wantRequests, wantRelinquishes)
	}
	return true, nil
}

func TestBroker_RandomOperationSequences(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("FIFO, exactly-once and focus pairing hold", prop.ForAll(
		func(focused bool, ops []int) (bool, error) {
			return runOps(focused, ops)
		},
		gen.Bool(),
		gen.SliceOf(gen.IntRange(opEnqueue, opAdvance)),
	))

	properties.TestingRun(t)
}
