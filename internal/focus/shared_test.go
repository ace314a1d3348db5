package focus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/walletbroker/internal/testutil"
)

func TestShared_RefCountsHostCalls(t *testing.T) {
	ctx := context.Background()
	rec := testutil.NewFocusRecorder(false)
	s := NewShared(rec)

	focused, err := s.IsFocused(ctx)
	require.NoError(t, err)
	assert.False(t, focused)
	require.NoError(t, s.RequestFocus(ctx))

	// A second episode opens while the first holds focus.
	focused, err = s.IsFocused(ctx)
	require.NoError(t, err)
	assert.False(t, focused, "held focus is not mistaken for user focus")
	require.NoError(t, s.RequestFocus(ctx))
	assert.Equal(t, 2, s.Held())

	require.NoError(t, s.RelinquishFocus(ctx))
	assert.True(t, rec.Focused(), "focus stays while another episode holds it")

	require.NoError(t, s.RelinquishFocus(ctx))
	assert.False(t, rec.Focused())
	assert.Equal(t, 0, s.Held())

	assert.Equal(t, []string{
		testutil.OpIsFocused,
		testutil.OpRequest,
		testutil.OpRelinquish,
	}, rec.Calls())
}

func TestShared_RelinquishWithoutHoldIsNoop(t *testing.T) {
	rec := testutil.NewFocusRecorder(true)
	s := NewShared(rec)

	require.NoError(t, s.RelinquishFocus(context.Background()))
	assert.Empty(t, rec.Calls())
	assert.Equal(t, 0, s.Held())
}

func TestShared_OriginallyFocusedEpisodesStayOut(t *testing.T) {
	ctx := context.Background()
	rec := testutil.NewFocusRecorder(true)
	s := NewShared(rec)

	ep1 := NewEpisode("a")
	focused, _ := s.IsFocused(ctx)
	assert.False(t, ep1.Resolve(focused))

	ep2 := NewEpisode("b")
	focused, _ = s.IsFocused(ctx)
	assert.False(t, ep2.Resolve(focused))

	assert.False(t, ep1.End())
	assert.False(t, ep2.End())
	assert.Equal(t, []string{testutil.OpIsFocused, testutil.OpIsFocused}, rec.Calls())
}
