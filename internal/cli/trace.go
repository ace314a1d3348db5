package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/walletbroker/internal/request"
	"github.com/roach88/walletbroker/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	RunID     string
	Category  string
	RequestID string
}

// TraceResult holds the journal timeline.
type TraceResult struct {
	Timeline []store.Entry `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

// TraceStats summarizes the timeline.
type TraceStats struct {
	Entries   int `json:"entries"`
	Runs      int `json:"runs"`
	Enqueued  int `json:"enqueued"`
	Granted   int `json:"granted"`
	Denied    int `json:"denied"`
	Failed    int `json:"failed"`
	Requested int `json:"focus_requested"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the decision journal",
		Long: `Print the decision journal as a timeline in seq order.

Filter by run, category or request to follow one request from
enqueue to decision.

Examples:
  walletbroker trace --db ./journal.db
  walletbroker trace --db ./journal.db --run 0192f0c4-... --category spending
  walletbroker trace --db ./journal.db --request a --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (default: journal.path from config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "filter to one run ID")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter to one category (basket|certificate|protocol|spending)")
	cmd.Flags().StringVar(&opts.RequestID, "request", "", "filter to one request ID")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Category != "" {
		if _, err := request.ParseCategory(opts.Category); err != nil {
			return WrapExitError(ExitCommandError, "invalid --category", err)
		}
	}
	dbPath, err := opts.dbPath(opts.Database)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	entries, err := st.ReadEntries(ctx, store.Filter{
		RunID:     opts.RunID,
		Category:  opts.Category,
		RequestID: opts.RequestID,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := TraceResult{Timeline: entries, Stats: summarize(entries)}
	out := opts.formatter(w)
	return out.Success(result, func(w io.Writer) { writeTraceText(w, result) })
}

func summarize(entries []store.Entry) TraceStats {
	stats := TraceStats{Entries: len(entries)}
	runs := make(map[string]struct{})
	for _, e := range entries {
		runs[e.RunID] = struct{}{}
		switch e.Kind {
		case store.KindEnqueued:
			stats.Enqueued++
		case store.KindGranted:
			stats.Granted++
		case store.KindDenied:
			stats.Denied++
		case store.KindDecisionFailed:
			stats.Failed++
		case store.KindFocusRequested:
			stats.Requested++
		}
	}
	stats.Runs = len(runs)
	return stats
}

func writeTraceText(w io.Writer, result TraceResult) {
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No journal entries found.")
		return
	}

	run := ""
	for _, e := range result.Timeline {
		if e.RunID != run {
			run = e.RunID
			fmt.Fprintf(w, "Run %s\n", run)
		}
		line := fmt.Sprintf("  [%4d] %-12s %-18s", e.Seq, e.Category, e.Kind)
		if e.RequestID != "" {
			line += " " + e.RequestID
		}
		if e.Detail != "" {
			line += " (" + e.Detail + ")"
		}
		if e.Episode != "" {
			line += " episode=" + e.Episode
		}
		fmt.Fprintln(w, line)
	}

	s := result.Stats
	fmt.Fprintf(w, "\n%d entries, %d runs: %d enqueued, %d granted, %d denied, %d failed, %d focus requests\n",
		s.Entries, s.Runs, s.Enqueued, s.Granted, s.Denied, s.Failed, s.Requested)
}
