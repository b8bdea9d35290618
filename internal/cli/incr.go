package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// IncrOptions holds flags for the incr command.
type IncrOptions struct {
	*RootOptions
	Delta float64
}

// NewIncrCommand creates the incr command.
func NewIncrCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IncrOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "incr <table> <id> <column>",
		Short: "Add a delta to a numeric column of an existing record",
		Long: `Add a delta to a numeric column of an existing record.

The record must exist; an absent field counts as 0. Prints the new
value.

Example:
  mirrordb incr users u1 score --delta 10`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer db.Close()

			v, err := db.Increment(cmd.Context(), args[0], args[1], args[2], opts.Delta)
			if err != nil {
				return WrapExitError(ExitFailure, "incr", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return out.Success(map[string]any{"value": v})
			}
			return out.Success(fmt.Sprintf("%s.%s = %v", args[1], args[2], v))
		},
	}

	cmd.Flags().Float64Var(&opts.Delta, "delta", 1, "amount to add (may be negative)")

	return cmd
}
