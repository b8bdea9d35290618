package cli

import (
	"context"
	"log/slog"

	"github.com/mirrordb/mirrordb"
)

// openStore opens the database named by the global --db flag and
// registers every table declared in the --schema file. The schema
// registry lives in memory per store instance, so each CLI invocation
// re-registers from the file; registration is idempotent and the
// physical tables are created only once.
func openStore(ctx context.Context, opts *RootOptions) (*mirrordb.DB, error) {
	sf, err := LoadSchemaFile(opts.Schema)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load schema file", err)
	}

	db, err := mirrordb.Open(mirrordb.Options{FilePath: opts.DBPath})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	for _, td := range sf.Tables {
		if err := db.InitTable(ctx, td.Name, mirrordb.TableSchema{Columns: td.Columns}); err != nil {
			db.Close()
			return nil, WrapExitError(ExitCommandError, "init table "+td.Name, err)
		}
	}

	slog.Debug("store opened", "db", opts.DBPath, "tables", len(sf.Tables))
	return db, nil
}
