package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "walletbroker", cmd.Use)
	assert.Contains(t, cmd.Long, "per-category")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"test"}, {"simulate"}, {"trace"}, {"validate"},
		{"snapshot"}, {"snapshot", "put"}, {"snapshot", "get"}, {"snapshot", "clear"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "", cfg.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "trace", "--db", ":memory:")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestInvalidConfigFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "focus:\n  mode: global\n")
	_, err := execute(t, "--config", path, "trace", "--db", ":memory:")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestDBPathFromConfig(t *testing.T) {
	opts := &RootOptions{}
	_, err := opts.dbPath("")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	opts.Config.Journal.Path = "/tmp/journal.db"
	path, err := opts.dbPath("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/journal.db", path)

	path, err = opts.dbPath("override.db")
	require.NoError(t, err)
	assert.Equal(t, "override.db", path, "--db overrides config")
}
