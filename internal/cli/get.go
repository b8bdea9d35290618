package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Fetch a record by id",
		Long: `Fetch a record by id.

Prints the record decoded through the table's declared column types.
Exits with status 1 when no record matches.

Example:
  mirrordb get users u1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			rec, err := db.Get(cmd.Context(), args[0], args[1])
			if err != nil {
				return WrapExitError(ExitFailure, "get", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rec == nil {
				out.Error("NOT_FOUND", "no record "+args[1]+" in "+args[0])
				return NewExitError(ExitFailure, "not found")
			}
			if rootOpts.Format == "json" {
				return out.Success(rec)
			}
			text, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			return out.Success(string(text))
		},
	}
}
