package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/walletbroker/internal/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a config file and print the effective values",
		Long: `Validate a walletbroker config file against the schema and print
the effective configuration, defaults included.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - Command error

Examples:
  walletbroker validate ./walletbroker.yaml
  walletbroker validate ./walletbroker.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd.OutOrStdout())
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, w io.Writer) error {
	out := opts.formatter(w)

	cfg, err := config.Load(path)
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	return out.Success(cfg, func(w io.Writer) {
		fmt.Fprintf(w, "%s is valid\n", path)
		fmt.Fprintf(w, "  log_level:        %s\n", cfg.LogLevel)
		fmt.Fprintf(w, "  log_format:       %s\n", cfg.LogFormat)
		fmt.Fprintf(w, "  focus.mode:       %s\n", cfg.Focus.Mode)
		fmt.Fprintf(w, "  focus.timeout_ms: %d\n", cfg.Focus.TimeoutMS)
		journal := cfg.Journal.Path
		if journal == "" {
			journal = "(disabled)"
		}
		fmt.Fprintf(w, "  journal.path:     %s\n", journal)
		fmt.Fprintf(w, "  watch_buffer:     %d\n", cfg.WatchBuffer)
	})
}
