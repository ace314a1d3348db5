package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/walletbroker/internal/store"
)

// SnapshotOptions holds flags shared by the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions
	Database string
	File     string // put: input file, "-" for stdin
	Out      string // get: output file, empty for stdout
}

// SnapshotResult describes the stored snapshot without its blob.
type SnapshotResult struct {
	Revision int64  `json:"revision"`
	Hash     string `json:"hash"`
	Size     int    `json:"size"`
	Out      string `json:"out,omitempty"`
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store or fetch the opaque host snapshot",
		Long: `Store or fetch the host's opaque snapshot blob.

The blob is stored as given, never interpreted. Each put replaces the
previous blob and increments the revision.

Examples:
  walletbroker snapshot put --db ./journal.db --file snapshot.bin
  walletbroker snapshot get --db ./journal.db --out snapshot.bin
  walletbroker snapshot clear --db ./journal.db`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: journal.path from config)")

	put := &cobra.Command{
		Use:           "put",
		Short:         "Replace the stored snapshot",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotPut(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	put.Flags().StringVar(&opts.File, "file", "", `file to store ("-" for stdin, required)`)
	_ = put.MarkFlagRequired("file")

	get := &cobra.Command{
		Use:           "get",
		Short:         "Write the stored snapshot",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotGet(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	get.Flags().StringVar(&opts.Out, "out", "", "file to write (default: stdout)")

	clearCmd := &cobra.Command{
		Use:           "clear",
		Short:         "Delete the stored snapshot",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotClear(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(put, get, clearCmd)
	return cmd
}

func (o *SnapshotOptions) open() (*store.Store, error) {
	dbPath, err := o.dbPath(o.Database)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runSnapshotPut(ctx context.Context, opts *SnapshotOptions, stdin io.Reader, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		blob []byte
		err  error
	)
	if opts.File == "-" {
		blob, err = io.ReadAll(stdin)
	} else {
		blob, err = os.ReadFile(opts.File)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}

	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.PutSnapshot(ctx, blob)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to store snapshot", err)
	}

	result := SnapshotResult{Revision: snap.Revision, Hash: snap.Hash, Size: len(snap.Blob)}
	return opts.formatter(w).Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Stored snapshot revision %d (%d bytes, %s)\n", result.Revision, result.Size, result.Hash)
	})
}

func runSnapshotGet(ctx context.Context, opts *SnapshotOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, found, err := st.GetSnapshot(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}
	out := opts.formatter(w)
	if !found {
		_ = out.Error(ErrCodeNoSnapshot, "no snapshot stored", nil)
		return NewExitError(ExitFailure, "no snapshot stored")
	}

	if opts.Out == "" {
		if out.JSON() {
			// Raw bytes would corrupt the JSON envelope.
			return NewExitError(ExitCommandError, "--format json requires --out")
		}
		_, err := w.Write(snap.Blob)
		return err
	}

	if err := os.WriteFile(opts.Out, snap.Blob, 0o600); err != nil {
		return WrapExitError(ExitCommandError, "failed to write snapshot", err)
	}
	result := SnapshotResult{Revision: snap.Revision, Hash: snap.Hash, Size: len(snap.Blob), Out: opts.Out}
	return out.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote snapshot revision %d (%d bytes) to %s\n", result.Revision, result.Size, result.Out)
	})
}

func runSnapshotClear(ctx context.Context, opts *SnapshotOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ClearSnapshot(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to clear snapshot", err)
	}
	return opts.formatter(w).Success(map[string]bool{"cleared": true}, func(w io.Writer) {
		fmt.Fprintln(w, "Snapshot cleared")
	})
}
