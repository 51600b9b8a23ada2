package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/freight/internal/cargo"
	"github.com/roach88/freight/internal/journal"
	"github.com/roach88/freight/internal/store"
	"github.com/roach88/freight/internal/transport"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Database string
	BaseURL  string
}

// InvokeResult is the output of invoke.
type InvokeResult struct {
	Store  string         `json:"store"`
	Deed   string         `json:"deed"`
	Result any            `json:"result,omitempty"`
	Cargo  map[string]any `json:"cargo"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <file> <store> <deed> [args...]",
		Short: "Invoke a deed and print the resulting cargo",
		Long: `Build the stores of a definition file, invoke one deed and print the
store's cargo once every pending batch has been flushed.

Arguments are parsed as JSON when they are valid JSON and passed as
strings otherwise.

Examples:
  freight invoke stores.yaml users getUser 1
  freight invoke stores.yaml users rename 1 '"Ada"' --db ./freight.db
  freight invoke stores.yaml users getUser 1 --base-url http://localhost:8080`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd.Context(), opts, cmd, args[0], args[1], args[2], args[3:])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record flushes to this journal database")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "override the file's base_url")

	return cmd
}

func runInvoke(ctx context.Context, opts *InvokeOptions, cmd *cobra.Command, path, storeName, deedName string, rawArgs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	defs, err := loadDefinitions(f, path)
	if err != nil {
		return err
	}
	if _, ok := defs.Store(storeName); !ok {
		return f.Fail(ExitCommandError, CodeUsage, fmt.Sprintf("store %q is not defined in %s", storeName, path), nil)
	}

	storeOpts := []store.Option{
		store.WithTransport(transport.NewHTTP(nil)),
		store.WithLogger(opts.logger(cmd.ErrOrStderr())),
	}
	if opts.BaseURL != "" {
		storeOpts = append(storeOpts, store.WithBaseURL(opts.BaseURL))
	}
	if opts.Database != "" {
		j, err := journal.Open(opts.Database)
		if err != nil {
			return f.Fail(ExitCommandError, CodeJournal, "failed to open journal", err)
		}
		defer j.Close()

		// Continue the journal's sequence so runs stay ordered.
		last, err := j.LastSeq(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, CodeJournal, "failed to read journal", err)
		}
		storeOpts = append(storeOpts, store.WithRecorder(j), store.WithClock(store.NewClockAt(last)))
		f.VerboseLog("Recording flushes to %s", opts.Database)
	}

	fl, err := buildFleet(defs, storeOpts...)
	if err != nil {
		return f.Fail(ExitFailure, CodeLoad, "failed to build stores", err)
	}
	defer fl.close()

	args := parseArgs(rawArgs)
	f.VerboseLog("Invoking %s.%s with %d argument(s)", storeName, deedName, len(args))

	s := fl.stores[storeName]
	got, err := s.Invoke(ctx, deedName, args...)
	fl.flush()
	if err != nil {
		return f.Fail(ExitFailure, CodeDeed, fmt.Sprintf("%s.%s failed", storeName, deedName), err)
	}

	result := InvokeResult{
		Store:  storeName,
		Deed:   deedName,
		Result: got,
		Cargo:  map[string]any(s.Cargo()),
	}
	return f.Success(result, func(w io.Writer) {
		if got != nil {
			fmt.Fprintf(w, "result: %s\n", renderJSON(got))
		}
		fmt.Fprintf(w, "cargo:  %s\n", renderJSON(result.Cargo))
	})
}

// parseArgs decodes each argument as JSON, falling back to the raw string.
func parseArgs(raw []string) []any {
	args := make([]any, len(raw))
	for i, a := range raw {
		var v any
		if err := json.Unmarshal([]byte(a), &v); err != nil {
			v = a
		}
		args[i] = v
	}
	return args
}

func renderJSON(v any) string {
	data, err := cargo.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
