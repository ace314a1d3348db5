package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/walletbroker/internal/harness"
	"github.com/roach88/walletbroker/internal/store"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// SimulateResult summarizes a simulated run.
type SimulateResult struct {
	Scenario   string   `json:"scenario"`
	RunID      string   `json:"run_id"`
	Pass       bool     `json:"pass"`
	Entries    int      `json:"entries"`
	FocusCalls []string `json:"focus_calls"`
	Errors     []string `json:"errors,omitempty"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run one scenario against a persistent journal",
		Long: `Run one scenario and keep its journal in a SQLite database so it
can be inspected with the trace command.

Each run is journaled under its own run ID (a UUIDv7 unless --run-id
is given).

Examples:
  walletbroker simulate ./scenarios/basket.yaml --db ./journal.db
  walletbroker trace --db ./journal.db --run <run-id>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default: journal.path from config)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run ID to journal under")

	return cmd
}

func runSimulate(ctx context.Context, opts *SimulateOptions, path string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dbPath, err := opts.dbPath(opts.Database)
	if err != nil {
		return err
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.Must(uuid.NewV7()).String()
	}

	result, err := harness.Run(ctx, scenario,
		harness.WithStore(st),
		harness.WithRunID(runID),
		harness.WithConfig(opts.Config),
		harness.WithLogger(opts.logger()),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	summary := SimulateResult{
		Scenario:   scenario.Name,
		RunID:      runID,
		Pass:       result.Pass,
		Entries:    len(result.Trace),
		FocusCalls: result.FocusCalls,
		Errors:     result.Errors,
	}
	out := opts.formatter(w)
	if err := out.Success(summary, func(w io.Writer) {
		status := "passed"
		if !summary.Pass {
			status = "failed"
		}
		fmt.Fprintf(w, "Scenario %s %s\n", summary.Scenario, status)
		fmt.Fprintf(w, "  run:     %s\n", summary.RunID)
		fmt.Fprintf(w, "  journal: %d entries in %s\n", summary.Entries, dbPath)
		fmt.Fprintf(w, "  focus:   %v\n", summary.FocusCalls)
		for _, e := range summary.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}); err != nil {
		return err
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}
