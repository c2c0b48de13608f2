package cli

import (
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/riglabs/shadowrig/serialize"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Light bool
}

// DiffResult is the JSON payload for a diff run.
type DiffResult struct {
	Equal bool   `json:"equal"`
	Diff  string `json:"diff,omitempty"`
}

// NewDiffCommand creates the diff command, which compares two HTML
// fragments canonically. Exit code 1 means they differ.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <a.html> <b.html>",
		Short: "Compare two HTML fragments canonically",
		Long: `Compare two fragments after canonicalization. Formatting, attribute
order, and shadow representation differences do not count as differences.

Examples:
  shadowrig diff expected.html actual.html
  shadowrig diff --light expected.html actual.html`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Light, "light", false, "omit shadow content")

	return cmd
}

func runDiff(opts *DiffOptions, cmd *cobra.Command, args []string) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	sides := make([]string, 2) // pretty, for the diff
	canon := make([]string, 2)
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			f.Error(ErrCodeNotFound, "failed to read input", err.Error())
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}
		canon[i], err = serialize.Canonical(string(data), !opts.Light)
		if err != nil {
			f.Error(ErrCodeSerialize, fmt.Sprintf("failed to canonicalize %s", path), err.Error())
			return WrapExitError(ExitCommandError, "failed to canonicalize", err)
		}
		sides[i], err = serialize.HTML(string(data), serialize.IncludeShadow(!opts.Light))
		if err != nil {
			sides[i] = canon[i]
		}
	}

	if canon[0] == canon[1] {
		if opts.Format == "json" {
			return f.Success(DiffResult{Equal: true})
		}
		return f.Success("fragments are canonically equal")
	}

	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(sides[0], sides[1])
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	text := dmp.DiffPrettyText(diffs)

	if opts.Format == "json" {
		f.Success(DiffResult{Equal: false, Diff: text})
	} else {
		fmt.Fprint(cmd.OutOrStdout(), text)
	}
	return NewExitError(ExitFailure, "fragments differ")
}
