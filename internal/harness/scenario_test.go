package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: one request
steps:
  - request:
      category: basket
      payload: { requestID: a, originator: o }
assertions:
  - type: queue_length
    category: basket
    count: 1
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.False(t, s.Focused)
	require.Len(t, s.Steps, 1)
	require.NotNil(t, s.Steps[0].Request)
	assert.Equal(t, "a", s.Steps[0].Request.Payload["requestID"])
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 1, *s.Assertions[0].Count)
}

func TestParseScenario_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nstep: []\n",
			wantErr: "field step not found",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nsteps: [{set_focused: true}]\nassertions: [{type: focus_calls, calls: []}]\n",
			wantErr: "name is required",
		},
		{
			name:    "no steps",
			yaml:    "name: x\ndescription: y\nassertions: [{type: focus_calls, calls: []}]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "two actions in one step",
			yaml:    "name: x\ndescription: y\nsteps: [{set_focused: true, hold_focus: true}]\nassertions: [{type: focus_calls, calls: []}]\n",
			wantErr: "exactly one action is required, found 2",
		},
		{
			name:    "unknown category",
			yaml:    "name: x\ndescription: y\nsteps: [{grant: {category: wallet}}]\nassertions: [{type: focus_calls, calls: []}]\n",
			wantErr: "steps[0].grant",
		},
		{
			name:    "request without payload",
			yaml:    "name: x\ndescription: y\nsteps: [{request: {category: basket}}]\nassertions: [{type: focus_calls, calls: []}]\n",
			wantErr: "payload is required",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: x\ndescription: y\nsteps: [{set_focused: true}]\nassertions: [{type: final_state}]\n",
			wantErr: `unknown assertion type "final_state"`,
		},
		{
			name:    "queue_length without count",
			yaml:    "name: x\ndescription: y\nsteps: [{set_focused: true}]\nassertions: [{type: queue_length, category: basket}]\n",
			wantErr: "count is required",
		},
		{
			name:    "unknown focus op",
			yaml:    "name: x\ndescription: y\nsteps: [{set_focused: true}]\nassertions: [{type: focus_count, op: steal_focus, count: 0}]\n",
			wantErr: `unknown focus op "steal_focus"`,
		},
		{
			name:    "unknown focus mode",
			yaml:    "name: x\ndescription: y\nfocus_mode: global\nsteps: [{set_focused: true}]\nassertions: [{type: focus_calls, calls: []}]\n",
			wantErr: `focus_mode "global"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
