package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/walletbroker/internal/config"
)

func TestValidate_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "walletbroker.yaml", `
log_level: debug
focus:
  mode: shared
  timeout_ms: 500
`)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "focus.mode:       shared")
	assert.Contains(t, out, "focus.timeout_ms: 500")
	assert.Contains(t, out, "journal.path:     (disabled)")
	assert.Contains(t, out, "watch_buffer:     16")
}

func TestValidate_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "walletbroker.yaml", "watch_buffer: 64\n")

	var cfg config.Config
	decodeJSON(t, []string{"--format", "json", "validate", path}, &cfg)
	assert.Equal(t, 64, cfg.WatchBuffer)
	assert.Equal(t, config.FocusPerCategory, cfg.Focus.Mode)
}

func TestValidate_Invalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "walletbroker.yaml", "focus:\n  timeout_ms: -5\n")

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", "/nonexistent/walletbroker.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
