package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riglabs/shadowrig/scenario"
	"github.com/riglabs/shadowrig/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend   string
	Database  string
	ChromeURL string
}

// RunSummary is the JSON payload for a run invocation.
type RunSummary struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
}

// ScenarioOutcome is one scenario's result in the summary.
type ScenarioOutcome struct {
	Name    string   `json:"name"`
	Backend string   `json:"backend"`
	Passed  bool     `json:"passed"`
	Errors  []string `json:"errors,omitempty"`
	Session string   `json:"session,omitempty"`
}

// NewRunCommand creates the run command, which executes scenario files.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml|scenario.cue>...",
		Short: "Run component test scenarios",
		Long: `Run one or more scenario files against their declared backend.
Files ending in .cue are evaluated as CUE; anything else parses as YAML.

Examples:
  shadowrig run scenarios/toggle.yaml
  shadowrig run --backend ghostdom scenarios/*.yaml
  shadowrig run --db ./trace.db scenarios/toggle.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", "", "override the backend of every scenario")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record harness traces to this SQLite database")
	cmd.Flags().StringVar(&opts.ChromeURL, "chrome-url", "", "DevTools URL of a running browser (chrome backend)")

	return cmd
}

func runScenarios(opts *RunOptions, cmd *cobra.Command, args []string) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	runOpts := []scenario.RunOption{}
	if opts.ChromeURL != "" {
		runOpts = append(runOpts, scenario.WithChromeControlURL(opts.ChromeURL))
	}
	if opts.Verbose {
		runOpts = append(runOpts, scenario.WithLogger(slog.New(slog.NewTextHandler(f.errWriter(), nil))))
	}
	if opts.Database != "" {
		st, err := trace.Open(opts.Database)
		if err != nil {
			f.Error(ErrCodeStore, "failed to open trace database", err.Error())
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer st.Close()
		runOpts = append(runOpts, scenario.WithRecorder(st))
	}

	summary := RunSummary{}
	for _, path := range args {
		sc, err := loadScenarioFile(path)
		if err != nil {
			f.Error(ErrCodeParse, fmt.Sprintf("failed to load %s", path), err.Error())
			return WrapExitError(ExitCommandError, "failed to load scenario", err)
		}
		if opts.Backend != "" {
			sc.Backend = opts.Backend
		}

		f.VerboseLog("running %s (%s)", sc.Name, path)
		result, err := scenario.Run(cmd.Context(), sc, runOpts...)
		if err != nil {
			f.Error(ErrCodeScenario, fmt.Sprintf("scenario %s failed to execute", sc.Name), err.Error())
			return WrapExitError(ExitCommandError, "scenario execution failed", err)
		}

		outcome := ScenarioOutcome{
			Name:    result.Scenario,
			Backend: string(result.Backend),
			Passed:  result.Passed(),
			Errors:  result.Errors,
		}
		if len(result.Trace) > 0 {
			outcome.Session = result.Trace[0].Session
		}
		summary.Scenarios = append(summary.Scenarios, outcome)
		if outcome.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if opts.Format == "json" {
		f.Success(summary)
	} else {
		printRunSummary(cmd.OutOrStdout(), &summary)
	}
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", summary.Failed, len(summary.Scenarios)))
	}
	return nil
}

func loadScenarioFile(path string) (*scenario.Scenario, error) {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return scenario.LoadCUE(path)
	}
	return scenario.Load(path)
}

func printRunSummary(w io.Writer, s *RunSummary) {
	for _, sc := range s.Scenarios {
		status := "PASS"
		if !sc.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s (%s)\n", status, sc.Name, sc.Backend)
		for _, e := range sc.Errors {
			fmt.Fprintf(w, "      %s\n", strings.ReplaceAll(e, "\n", "\n      "))
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed\n", s.Passed, s.Failed)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
