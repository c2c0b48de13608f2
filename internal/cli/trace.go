package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/riglabs/shadowrig/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Op       string
}

// TraceDump is the JSON payload for a trace query.
type TraceDump struct {
	Sessions []string       `json:"sessions,omitempty"`
	Records  []trace.Record `json:"records,omitempty"`
}

// NewTraceCommand creates the trace command, which inspects recorded
// harness operations.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded harness operations",
		Long: `Query a trace database written by 'shadowrig run --db'.

Without --session, lists the recorded sessions. With --session, dumps that
session's operations in logical-clock order.

Examples:
  shadowrig trace --db ./trace.db
  shadowrig trace --db ./trace.db --session 0190a5...
  shadowrig trace --db ./trace.db --session 0190a5... --op settle_begin`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceDump(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to dump")
	cmd.Flags().StringVar(&opts.Op, "op", "", "filter to one operation kind")

	return cmd
}

func runTraceDump(opts *TraceOptions, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	st, err := trace.Open(opts.Database)
	if err != nil {
		f.Error(ErrCodeStore, "failed to open trace database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open trace database", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	if opts.Session == "" {
		sessions, err := st.Sessions(ctx)
		if err != nil {
			f.Error(ErrCodeStore, "failed to list sessions", err.Error())
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		if opts.Format == "json" {
			return f.Success(TraceDump{Sessions: sessions})
		}
		for _, s := range sessions {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	}

	records, err := st.Session(ctx, opts.Session)
	if err != nil {
		f.Error(ErrCodeStore, "failed to read session", err.Error())
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if opts.Op != "" {
		filtered := records[:0]
		for _, r := range records {
			if string(r.Op) == opts.Op {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if len(records) == 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("no records for session %s", opts.Session))
	}

	if opts.Format == "json" {
		return f.Success(TraceDump{Records: records})
	}
	printRecords(cmd.OutOrStdout(), records)
	return nil
}

func printRecords(w io.Writer, records []trace.Record) {
	for _, r := range records {
		fmt.Fprintf(w, "%6d  %-13s %s", r.Seq, r.Op, r.Handle)
		if len(r.Detail) > 0 {
			if data, err := json.Marshal(r.Detail); err == nil {
				fmt.Fprintf(w, "  %s", data)
			}
		}
		fmt.Fprintln(w)
	}
}
