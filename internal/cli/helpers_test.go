package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const grantScenario = `
name: grant_one
description: one basket request granted while unfocused
focused: false
steps:
  - request:
      category: basket
      payload: { requestID: a, originator: todo.example }
  - grant:
      category: basket
assertions:
  - type: focus_calls
    calls: [is_focused, request_focus, relinquish_focus]
  - type: queue_length
    category: basket
    count: 0
`

const failingScenario = `
name: wrong_count
description: asserts a length the broker never reaches
steps:
  - request:
      category: protocol
      payload: { requestID: p, protocolSecurityLevel: 1, protocolID: chat, type: protocol }
assertions:
  - type: queue_length
    category: protocol
    count: 3
`

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// decodeJSON runs args and decodes the data field of the JSON envelope into v.
func decodeJSON(t *testing.T, args []string, v any) {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

// executeWithInput is execute with stdin set to input.
func executeWithInput(t *testing.T, input []byte, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetIn(bytes.NewReader(input))
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
