package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/freight/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Store    string // optional store filter
}

// TraceResult is the output of trace.
type TraceResult struct {
	Store   string          `json:"store,omitempty"`
	Entries []journal.Entry `json:"entries"`
	Stats   TraceStats      `json:"stats"`
}

// TraceStats summarizes a trace.
type TraceStats struct {
	Flushes int      `json:"flushes"`
	Stores  []string `json:"stores"`
	LastSeq int64    `json:"last_seq"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List recorded flushes",
		Long: `List the flushes recorded in an emission journal, ordered by
sequence number.

Examples:
  freight trace --db ./freight.db
  freight trace --db ./freight.db --store users
  freight trace --db ./freight.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runTrace(ctx, opts, opts.formatter(cmd))
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the journal database (required)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "only show flushes of this store")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, f *OutputFormatter) error {
	// Opening would create an empty database.
	if _, err := os.Stat(opts.Database); err != nil {
		return f.Fail(ExitCommandError, CodeJournal, fmt.Sprintf("database not found: %s", opts.Database), err)
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to open journal", err)
	}
	defer j.Close()

	entries, err := j.Entries(ctx, opts.Store)
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to read journal", err)
	}
	stores, err := j.Stores(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to read journal", err)
	}
	last, err := j.LastSeq(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, CodeJournal, "failed to read journal", err)
	}

	result := TraceResult{
		Store:   opts.Store,
		Entries: entries,
		Stats:   TraceStats{Flushes: len(entries), Stores: stores, LastSeq: last},
	}

	return f.Success(result, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No flushes recorded.")
			return
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%6d  %-16s %s\n", e.Seq, e.Store, e.Cargo)
		}
		fmt.Fprintf(w, "\n%d flush(es) across %d store(s)\n", len(entries), len(stores))
	})
}
