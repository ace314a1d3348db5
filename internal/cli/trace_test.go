package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/walletbroker/internal/store"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "journal.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	entries := []store.Entry{
		{RunID: "r1", Seq: 1, Kind: store.KindEnqueued, Category: "basket", RequestID: "a"},
		{RunID: "r1", Seq: 2, Kind: store.KindFocusChecked, Category: "basket", Episode: "ep-1", Detail: "focused=false"},
		{RunID: "r1", Seq: 3, Kind: store.KindFocusRequested, Category: "basket", Episode: "ep-1"},
		{RunID: "r1", Seq: 4, Kind: store.KindGranted, Category: "basket", RequestID: "a"},
		{RunID: "r2", Seq: 1, Kind: store.KindEnqueued, Category: "spending", RequestID: "s"},
		{RunID: "r2", Seq: 2, Kind: store.KindDecisionFailed, Category: "spending", RequestID: "s", Detail: "deny: wallet offline"},
	}
	for _, e := range entries {
		require.NoError(t, st.AppendEntry(context.Background(), e))
	}
	return db
}

func TestTrace_TextGroupsByRun(t *testing.T) {
	db := seedJournal(t)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Run r1\n")
	assert.Contains(t, out, "Run r2\n")
	assert.Contains(t, out, "(deny: wallet offline)")
	assert.Contains(t, out, "episode=ep-1")
	assert.Contains(t, out, "6 entries, 2 runs: 2 enqueued, 1 granted, 0 denied, 1 failed, 1 focus requests")
}

func TestTrace_Filters(t *testing.T) {
	db := seedJournal(t)

	tests := []struct {
		name string
		args []string
		want TraceStats
	}{
		{"run", []string{"--run", "r2"}, TraceStats{Entries: 2, Runs: 1, Enqueued: 1, Failed: 1}},
		{"category", []string{"--category", "basket"}, TraceStats{Entries: 4, Runs: 1, Enqueued: 1, Granted: 1, Requested: 1}},
		{"request", []string{"--request", "a"}, TraceStats{Entries: 2, Runs: 1, Enqueued: 1, Granted: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := readTrace(t, append([]string{"trace", "--db", db}, tt.args...)...)
			assert.Equal(t, tt.want, summarize(entries))
		})
	}
}

func TestTrace_Empty(t *testing.T) {
	out, err := execute(t, "trace", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Equal(t, "No journal entries found.\n", out)
}

func TestTrace_InvalidCategory(t *testing.T) {
	_, err := execute(t, "trace", "--db", ":memory:", "--category", "wallet")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --category")
}

func readTrace(t *testing.T, args ...string) []store.Entry {
	t.Helper()
	var result TraceResult
	decodeJSON(t, append([]string{"--format", "json"}, args...), &result)
	return result.Timeline
}
