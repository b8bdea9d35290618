package mirrordb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mirrordb/mirrordb/internal/codec"
	"github.com/mirrordb/mirrordb/internal/schema"
	"github.com/mirrordb/mirrordb/internal/sqlite"
)

// Column types accepted in table schemas.
const (
	Text    = schema.TypeText
	Number  = schema.TypeNumber
	Boolean = schema.TypeBoolean
	JSON    = schema.TypeJSON
)

// Aliases so callers build schemas without importing internal packages.
type (
	ColumnType  = schema.ColumnType
	Column      = schema.Column
	TableSchema = schema.TableSchema
)

// Record maps column names to dynamically typed values. Keys not
// declared in the table schema are ignored on write; absent keys are
// simply not written.
type Record map[string]any

// Engine is the storage capability the store consumes. Each call is
// individually atomic; rows map column names to storage primitives
// (string, float64, int64, nil).
type Engine interface {
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	QueryOne(ctx context.Context, query string, args ...any) (map[string]any, error)
	QueryAll(ctx context.Context, query string, args ...any) ([]map[string]any, error)
	Close() error
}

// ReplicationPolicy selects how writes fan out to mirrors.
type ReplicationPolicy int

const (
	// ReplicateSequential replays each write to mirrors one at a time,
	// in attach order, awaiting each before the next. This is the
	// default: it trades throughput for a stable, deterministic
	// ordering of mirror side effects.
	ReplicateSequential ReplicationPolicy = iota

	// ReplicateParallel replays to all mirrors concurrently and waits
	// for every one to finish. Ordering across mirrors is unspecified;
	// the first failure is reported.
	ReplicateParallel
)

// DefaultFilePath is used when Options.FilePath is empty.
const DefaultFilePath = "db.sqlite"

// Options configures construction of a DB.
type Options struct {
	// FilePath locates the SQLite database file. Defaults to
	// DefaultFilePath.
	FilePath string

	// Tables pre-registers id-only tables at construction.
	Tables []string

	// Replication selects the mirror fan-out policy.
	Replication ReplicationPolicy
}

// DB is one store instance: one storage-engine handle, one schema
// registry, and an ordered list of attached mirrors.
type DB struct {
	engine   Engine
	registry *schema.Registry
	policy   ReplicationPolicy

	mu      sync.Mutex // guards mirrors
	mirrors []*DB
}

// Open constructs a store backed by a SQLite database file.
func Open(opts Options) (*DB, error) {
	path := opts.FilePath
	if path == "" {
		path = DefaultFilePath
	}
	engine, err := sqlite.Open(path)
	if err != nil {
		return nil, wrapStorage("open "+path, err)
	}
	db := NewWithEngine(engine, opts)

	ctx := context.Background()
	for _, name := range opts.Tables {
		if err := db.InitTable(ctx, name, TableSchema{Columns: []Column{{Name: schema.IDColumn, Type: Text}}}); err != nil {
			engine.Close()
			return nil, err
		}
	}
	return db, nil
}

// NewWithEngine constructs a store over an existing storage engine.
// Options.FilePath and Options.Tables are ignored; register tables
// with InitTable.
func NewWithEngine(engine Engine, opts Options) *DB {
	return &DB{
		engine:   engine,
		registry: schema.NewRegistry(),
		policy:   opts.Replication,
	}
}

// Close releases the storage-engine handle. Attached mirrors have
// independent lifecycles and are not closed.
func (db *DB) Close() error {
	return db.engine.Close()
}

// InitTable registers a schema and creates the physical table if it
// does not exist. The id column is injected at position 0 when the
// caller does not supply one, and becomes the primary key.
//
// Re-registering a name with an equal schema is a no-op; a differing
// schema fails with InvalidType, because the physical table can no
// longer be changed to match.
func (db *DB) InitTable(ctx context.Context, name string, ts TableSchema) error {
	if len(ts.Columns) == 0 {
		return invalidTypef("table %q: schema must declare at least one column", name)
	}
	norm, created, err := db.registry.Register(name, ts)
	if err != nil {
		return invalidTypef("init table: %v", err)
	}

	if created {
		defs := make([]string, len(norm.Columns))
		for i, c := range norm.Columns {
			if c.Name == schema.IDColumn {
				defs[i] = fmt.Sprintf("%s %s PRIMARY KEY", c.Name, c.Type.StorageType())
			} else {
				defs[i] = fmt.Sprintf("%s %s", c.Name, c.Type.StorageType())
			}
		}
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(defs, ", "))
		if _, err := db.engine.Execute(ctx, stmt); err != nil {
			return wrapStorage("create table "+name, err)
		}
	}

	return db.replicate(func(m *DB) error {
		return m.InitTable(ctx, name, ts)
	})
}

// Add upserts a record: insert, or fully replace the existing row with
// the same id. Columns omitted from the record are not preserved from
// the old row. Returns the input record unchanged.
func (db *DB) Add(ctx context.Context, table string, rec Record) (Record, error) {
	ts, err := db.lookup(table)
	if err != nil {
		return nil, err
	}
	if err := validateRecord(ts, rec); err != nil {
		return nil, err
	}

	var cols []string
	var args []any
	for _, c := range ts.Columns {
		v, present := rec[c.Name]
		if !present {
			continue
		}
		stored, err := codec.ToStorage(v, c.Type)
		if err != nil {
			return nil, invalidTypef("table %q column %q: %v", table, c.Name, err)
		}
		cols = append(cols, c.Name)
		args = append(args, stored)
	}

	stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), placeholders(len(cols)))
	if _, err := db.engine.Execute(ctx, stmt, args...); err != nil {
		return nil, wrapStorage("add to "+table, err)
	}

	if err := db.replicate(func(m *DB) error {
		_, err := m.Add(ctx, table, rec)
		return err
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the record stored under id, projected through every
// declared column, or nil when no row matches.
func (db *DB) Get(ctx context.Context, table, id string) (Record, error) {
	ts, err := db.lookup(table)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidTypef("get from %q: id must be non-empty", table)
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(ts.Names(), ", "), table, schema.IDColumn)
	row, err := db.engine.QueryOne(ctx, stmt, id)
	if err != nil {
		return nil, wrapStorage("get from "+table, err)
	}
	if row == nil {
		return nil, nil
	}
	return decodeRow(table, ts, row)
}

// All returns every record in the table, deserialized the same way as
// Get. Row order is the storage engine's default.
func (db *DB) All(ctx context.Context, table string) ([]Record, error) {
	ts, err := db.lookup(table)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(ts.Names(), ", "), table)
	rows, err := db.engine.QueryAll(ctx, stmt)
	if err != nil {
		return nil, wrapStorage("read all from "+table, err)
	}
	return decodeRows(table, ts, rows)
}

// Has reports whether a record exists under id.
func (db *DB) Has(ctx context.Context, table, id string) (bool, error) {
	rec, err := db.Get(ctx, table, id)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Delete removes the record stored under id. Returns 1 when a row was
// removed, 0 when none matched.
func (db *DB) Delete(ctx context.Context, table, id string) (int64, error) {
	if _, err := db.lookup(table); err != nil {
		return 0, err
	}
	if id == "" {
		return 0, invalidTypef("delete from %q: id must be non-empty", table)
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, schema.IDColumn)
	n, err := db.engine.Execute(ctx, stmt, id)
	if err != nil {
		return 0, wrapStorage("delete from "+table, err)
	}

	if err := db.replicate(func(m *DB) error {
		_, err := m.Delete(ctx, table, id)
		return err
	}); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteAll removes every record in the table and returns the count of
// removed rows.
func (db *DB) DeleteAll(ctx context.Context, table string) (int64, error) {
	if _, err := db.lookup(table); err != nil {
		return 0, err
	}

	n, err := db.engine.Execute(ctx, fmt.Sprintf("DELETE FROM %s", table))
	if err != nil {
		return 0, wrapStorage("delete all from "+table, err)
	}

	if err := db.replicate(func(m *DB) error {
		_, err := m.DeleteAll(ctx, table)
		return err
	}); err != nil {
		return 0, err
	}
	return n, nil
}

// StartsWith returns every record whose id begins with prefix,
// case-sensitively. An empty prefix matches every record.
func (db *DB) StartsWith(ctx context.Context, table, prefix string) ([]Record, error) {
	ts, err := db.lookup(table)
	if err != nil {
		return nil, err
	}

	// substr comparison instead of LIKE: LIKE is case-insensitive for
	// ASCII in SQLite, and prefix text may contain % or _.
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE substr(%s, 1, length(?)) = ?",
		strings.Join(ts.Names(), ", "), table, schema.IDColumn)
	rows, err := db.engine.QueryAll(ctx, stmt, prefix, prefix)
	if err != nil {
		return nil, wrapStorage("prefix scan on "+table, err)
	}
	return decodeRows(table, ts, rows)
}

// Increment adds delta to a numeric column of an existing record and
// returns the new value. An absent field counts as 0; a present
// non-numeric value fails with InvalidType; a missing record fails
// with MissingValue.
//
// The read-modify-write happens inside a single guarded UPDATE, so two
// concurrent increments on the same id cannot lose an update.
func (db *DB) Increment(ctx context.Context, table, id, column string, delta float64) (float64, error) {
	ts, err := db.lookup(table)
	if err != nil {
		return 0, err
	}
	col, ok := ts.Column(column)
	if !ok {
		return 0, invalidTypef("table %q has no column %q", table, column)
	}
	if col.Type != Number {
		return 0, invalidTypef("column %q is %s, not %s", column, col.Type, Number)
	}

	stmt := fmt.Sprintf(
		"UPDATE %[1]s SET %[2]s = COALESCE(%[2]s, 0) + ? WHERE %[3]s = ? AND (%[2]s IS NULL OR typeof(%[2]s) IN ('integer', 'real')) RETURNING %[2]s",
		table, column, schema.IDColumn)
	row, err := db.engine.QueryOne(ctx, stmt, delta, id)
	if err != nil {
		return 0, wrapStorage("increment on "+table, err)
	}

	if row == nil {
		// Either the row is missing or the guard rejected a
		// non-numeric stored value; look to tell them apart.
		check, err := db.engine.QueryOne(ctx,
			fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", column, table, schema.IDColumn), id)
		if err != nil {
			return 0, wrapStorage("increment on "+table, err)
		}
		if check == nil {
			return 0, missingValuef("no record %q in table %q", id, table)
		}
		return 0, invalidTypef("record %q column %q holds a non-numeric value", id, column)
	}

	decoded, err := codec.FromStorage(row[column], Number)
	if err != nil {
		return 0, invalidTypef("increment on %q: %v", table, err)
	}
	value := decoded.(float64)

	if err := db.replicate(func(m *DB) error {
		_, err := m.Increment(ctx, table, id, column, delta)
		return err
	}); err != nil {
		return 0, err
	}
	return value, nil
}

func (db *DB) lookup(table string) (TableSchema, error) {
	ts, ok := db.registry.Lookup(table)
	if !ok {
		return TableSchema{}, invalidTypef("table %q is not registered", table)
	}
	return ts, nil
}

func decodeRow(table string, ts TableSchema, row map[string]any) (Record, error) {
	rec := make(Record, len(ts.Columns))
	for _, c := range ts.Columns {
		v, err := codec.FromStorage(row[c.Name], c.Type)
		if err != nil {
			if errors.Is(err, codec.ErrMalformed) {
				return nil, parseException(fmt.Sprintf("table %q column %q", table, c.Name), err)
			}
			return nil, invalidTypef("table %q column %q: %v", table, c.Name, err)
		}
		if v == nil {
			continue
		}
		rec[c.Name] = v
	}
	return rec, nil
}

func decodeRows(table string, ts TableSchema, rows []map[string]any) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(table, ts, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}
	return strings.Join(marks, ", ")
}
