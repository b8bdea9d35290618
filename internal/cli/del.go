package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DelOptions holds flags for the del command.
type DelOptions struct {
	*RootOptions
	All bool
}

// NewDelCommand creates the del command.
func NewDelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DelOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "del <table> [id]",
		Short: "Delete a record by id, or every record with --all",
		Long: `Delete a record by id, or every record with --all.

Prints the number of rows removed. Deleting a missing id removes
nothing and reports 0.

Examples:
  mirrordb del users u1
  mirrordb del users --all`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.All == (len(args) == 2) {
				return NewExitError(ExitCommandError, "pass exactly one of an id or --all")
			}

			db, err := openStore(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer db.Close()

			var n int64
			if opts.All {
				n, err = db.DeleteAll(cmd.Context(), args[0])
			} else {
				n, err = db.Delete(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return WrapExitError(ExitFailure, "del", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return out.Success(map[string]any{"deleted": n})
			}
			return out.Success(fmt.Sprintf("deleted %d record(s)", n))
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "delete every record in the table")

	return cmd
}
