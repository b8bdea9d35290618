package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the tables declared in the schema file",
		Long: `Create the tables declared in the schema file.

Registers every table from the --schema file against the --db database,
creating any physical table that does not exist yet. Safe to run
repeatedly; a schema that conflicts with an earlier registration fails.

Example:
  mirrordb init --schema tables.yaml --db app.sqlite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			sf, err := LoadSchemaFile(rootOpts.Schema)
			if err != nil {
				return WrapExitError(ExitCommandError, "load schema file", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			names := make([]string, len(sf.Tables))
			for i, td := range sf.Tables {
				names[i] = td.Name
			}
			if rootOpts.Format == "json" {
				return out.Success(map[string]any{"tables": names})
			}
			return out.Success(fmt.Sprintf("initialized %d table(s): %v", len(names), names))
		},
	}
}
