package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/riglabs/shadowrig/serialize"
)

// CanonOptions holds flags for the canon command.
type CanonOptions struct {
	*RootOptions
	Light      bool
	Pretty     bool
	KeepStyles bool
}

// NewCanonCommand creates the canon command, which prints the canonical
// form of an HTML fragment. Reads from the file argument or stdin.
func NewCanonCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CanonOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "canon [file]",
		Short: "Print the canonical form of an HTML fragment",
		Long: `Normalize an HTML fragment the way comparisons see it: attributes
sorted, declarative shadow templates rewritten to <shadow-root>, whitespace
collapsed, styles stripped.

Examples:
  shadowrig canon fragment.html
  echo '<toggle-button  class="a"></toggle-button>' | shadowrig canon
  shadowrig canon --pretty fragment.html`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCanon(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Light, "light", false, "omit shadow content")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent instead of flattening")
	cmd.Flags().BoolVar(&opts.KeepStyles, "keep-styles", false, "keep <style> elements")

	return cmd
}

func runCanon(opts *CanonOptions, cmd *cobra.Command, args []string) error {
	markup, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	var out string
	sopts := []serialize.Option{serialize.ExcludeStyles(!opts.KeepStyles)}
	if opts.Pretty {
		sopts = append(sopts, serialize.IncludeShadow(!opts.Light), serialize.Pretty(true))
		out, err = serialize.HTML(markup, sopts...)
	} else {
		out, err = serialize.Canonical(markup, !opts.Light, sopts...)
	}
	if err != nil {
		f.Error(ErrCodeSerialize, "serialization failed", err.Error())
		return WrapExitError(ExitCommandError, "serialization failed", err)
	}
	return f.Success(out)
}

// readInput returns the fragment from the file argument, or stdin when no
// argument (or "-") is given.
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}
