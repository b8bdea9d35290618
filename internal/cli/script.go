package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mirrordb/mirrordb/internal/harness"
)

// NewScriptCommand creates the script command.
func NewScriptCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "script <scenario.yaml>",
		Short: "Run a scripted scenario against a fresh database",
		Long: `Run a scripted scenario against a fresh database.

A scenario file declares tables, optional mirror instances, and a
sequence of operations with expected outcomes. The scenario runs
against throwaway database files; the --db flag is not used.

Exits with status 1 when any expectation fails.

Example:
  mirrordb script scenarios/basic.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := harness.LoadScenario(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "load scenario", err)
			}

			dir, err := os.MkdirTemp("", "mirrordb-script-*")
			if err != nil {
				return WrapExitError(ExitCommandError, "create temp dir", err)
			}
			defer os.RemoveAll(dir)

			result, err := harness.Run(cmd.Context(), scenario, dir)
			if err != nil {
				return WrapExitError(ExitCommandError, "run scenario", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rootOpts.Format == "json" {
				if err := out.Success(result); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "scenario %q: %d step(s)\n", scenario.Name, len(result.Trace))
				for _, msg := range result.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "  FAIL %s\n", msg)
				}
				if result.Pass {
					fmt.Fprintln(cmd.OutOrStdout(), "PASS")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "FAIL")
				}
			}

			if !result.Pass {
				return NewExitError(ExitFailure, "scenario failed")
			}
			return nil
		},
	}
}
