package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/walletbroker/internal/canon"
)

// TraceSnapshot returns the canonical JSON of a result's observable
// behavior: the journal trace, the focus calls and the wallet decisions.
// Payloads and run IDs are left out so snapshots compare across runs.
func TraceSnapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, e := range result.Trace {
		m := map[string]any{
			"seq":      e.Seq,
			"kind":     string(e.Kind),
			"category": e.Category,
		}
		if e.RequestID != "" {
			m["request_id"] = e.RequestID
		}
		if e.Episode != "" {
			m["episode"] = e.Episode
		}
		if e.Detail != "" {
			m["detail"] = e.Detail
		}
		trace[i] = m
	}

	calls := make([]any, len(result.FocusCalls))
	for i, c := range result.FocusCalls {
		calls[i] = c
	}

	decisions := make([]any, len(result.Decisions))
	for i, d := range result.Decisions {
		decisions[i] = map[string]any{
			"op":         d.Op,
			"request_id": d.RequestID,
			"ephemeral":  d.Ephemeral,
			"amount":     d.Amount,
		}
	}

	return canon.Marshal(map[string]any{
		"scenario":    name,
		"trace":       trace,
		"focus_calls": calls,
		"decisions":   decisions,
	})
}

// RunWithGolden runs a scenario and compares its trace snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	snapshot, err := TraceSnapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)
	return result, nil
}
