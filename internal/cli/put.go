package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mirrordb/mirrordb"
)

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	Record string
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put <table>",
		Short: "Insert or replace a record",
		Long: `Insert or replace a record.

The record is given as JSON via --record. A record without an id gets a
generated UUID. An existing row with the same id is fully replaced;
columns omitted from the record are not preserved.

Example:
  mirrordb put users --record '{"id":"u1","name":"ada","age":36}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Record, "record", "", "record as JSON (required)")
	cmd.MarkFlagRequired("record")

	return cmd
}

func runPut(cmd *cobra.Command, opts *PutOptions, table string) error {
	var rec mirrordb.Record
	if err := json.Unmarshal([]byte(opts.Record), &rec); err != nil {
		return WrapExitError(ExitCommandError, "invalid --record JSON", err)
	}
	if _, ok := rec["id"]; !ok {
		rec["id"] = uuid.NewString()
	}

	db, err := openStore(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer db.Close()

	stored, err := db.Add(cmd.Context(), table, rec)
	if err != nil {
		return WrapExitError(ExitFailure, "put", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(stored)
	}
	return out.Success(fmt.Sprintf("stored %q in %s", stored["id"], table))
}
