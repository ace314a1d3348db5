package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/walletbroker/internal/sdk"
)

func TestSequentialTokens(t *testing.T) {
	gen := NewSequentialTokens("")
	assert.Equal(t, "ep-1", gen.Generate())
	assert.Equal(t, "ep-2", gen.Generate())

	gen.Reset()
	assert.Equal(t, "ep-1", gen.Generate())

	custom := NewSequentialTokens("run")
	assert.Equal(t, "run-1", custom.Generate())
}

func TestSequentialTokens_ThreadSafe(t *testing.T) {
	gen := NewSequentialTokens("t")

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tok := gen.Generate()
				mu.Lock()
				seen[tok] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1000)
}

func TestFocusRecorder_ModelsHostWindow(t *testing.T) {
	ctx := context.Background()
	r := NewFocusRecorder(false)

	focused, err := r.IsFocused(ctx)
	require.NoError(t, err)
	assert.False(t, focused)

	require.NoError(t, r.RequestFocus(ctx))
	assert.True(t, r.Focused())

	require.NoError(t, r.RelinquishFocus(ctx))
	assert.False(t, r.Focused())

	assert.Equal(t, []string{OpIsFocused, OpRequest, OpRelinquish}, r.Calls())
	assert.Equal(t, 1, r.Count(OpRequest))

	r.Reset()
	assert.Empty(t, r.Calls())
}

func TestFocusRecorder_Fail(t *testing.T) {
	ctx := context.Background()
	r := NewFocusRecorder(true)
	boom := errors.New("host unavailable")

	r.Fail(OpIsFocused, boom)
	_, err := r.IsFocused(ctx)
	assert.ErrorIs(t, err, boom)

	r.Fail(OpRequest, boom)
	assert.ErrorIs(t, r.RequestFocus(ctx), boom)

	r.Fail(OpIsFocused, nil)
	focused, err := r.IsFocused(ctx)
	require.NoError(t, err)
	assert.True(t, focused)
}

func TestFocusRecorder_Hold(t *testing.T) {
	r := NewFocusRecorder(true)
	release := r.Hold()

	done := make(chan bool)
	go func() {
		focused, _ := r.IsFocused(context.Background())
		done <- focused
	}()

	select {
	case <-done:
		t.Fatal("IsFocused returned while held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	release()
	select {
	case focused := <-done:
		assert.True(t, focused)
	case <-time.After(time.Second):
		t.Fatal("IsFocused did not return after release")
	}
}

func TestFakeWallet_RecordsAndFails(t *testing.T) {
	ctx := context.Background()
	w := NewFakeWallet()
	boom := errors.New("sdk forgot request")
	w.FailFor("b", boom)

	require.NoError(t, w.GrantPermission(ctx, sdk.GrantParams{RequestID: "a", Ephemeral: true, Amount: 5}))
	assert.ErrorIs(t, w.DenyPermission(ctx, "b"), boom)

	assert.Equal(t, []Decision{
		{Op: DecisionGrant, RequestID: "a", Ephemeral: true, Amount: 5},
		{Op: DecisionDeny, RequestID: "b"},
	}, w.Decisions())
	assert.Len(t, w.DecisionsFor("a"), 1)
}

func TestFakeWallet_HoldRespectsContext(t *testing.T) {
	w := NewFakeWallet()
	release := w.Hold()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := w.DenyPermission(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
