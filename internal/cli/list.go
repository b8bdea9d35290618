package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mirrordb/mirrordb"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Prefix string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List records, optionally by id prefix",
		Long: `List records, optionally by id prefix.

Without --prefix every record is returned; with --prefix only records
whose id starts with the given text (case-sensitive).

Example:
  mirrordb list users --prefix "a-"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer db.Close()

			var recs []mirrordb.Record
			if cmd.Flags().Changed("prefix") {
				recs, err = db.StartsWith(cmd.Context(), args[0], opts.Prefix)
			} else {
				recs, err = db.All(cmd.Context(), args[0])
			}
			if err != nil {
				return WrapExitError(ExitFailure, "list", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return out.Success(recs)
			}
			for _, rec := range recs {
				line, err := json.Marshal(rec)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(line))
			}
			return out.Success(fmt.Sprintf("%d record(s)", len(recs)))
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "match ids starting with this text")

	return cmd
}
