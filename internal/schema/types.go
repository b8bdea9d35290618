package schema

import (
	"fmt"
	"regexp"
)

// ColumnType is the logical application-level type of a table column,
// distinct from its storage-primitive representation.
type ColumnType string

const (
	// TypeText stores as TEXT, passes through unchanged.
	TypeText ColumnType = "text"

	// TypeNumber stores as REAL. Reads coerce back to float64 even if
	// the engine hands the value back as text.
	TypeNumber ColumnType = "number"

	// TypeBoolean stores as INTEGER 0/1. On read, 1 is true and
	// everything else (including 0) is false.
	TypeBoolean ColumnType = "boolean"

	// TypeJSON stores as TEXT holding a canonically serialized document.
	TypeJSON ColumnType = "json"
)

// Valid reports whether t is one of the four declared column types.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeBoolean, TypeJSON:
		return true
	}
	return false
}

// StorageType returns the SQLite column type used to persist values
// of this logical type.
func (t ColumnType) StorageType() string {
	switch t {
	case TypeNumber:
		return "REAL"
	case TypeBoolean:
		return "INTEGER"
	default:
		// TypeText, TypeJSON
		return "TEXT"
	}
}

// Column is one named, typed column of a table schema. Order within a
// schema is significant: it determines projection order on read.
type Column struct {
	Name string     `yaml:"name"`
	Type ColumnType `yaml:"type"`
}

// IDColumn is the identity column every table must carry.
const IDColumn = "id"

// identRe constrains table and column names. Names are interpolated
// into generated SQL, so they are restricted to identifier characters
// rather than quoted-and-escaped.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name is usable as a table or column name.
func ValidIdent(name string) bool {
	return identRe.MatchString(name)
}

// TableSchema is the ordered column list for one table. Zero value is
// an empty schema; Normalize gives every schema its id column.
type TableSchema struct {
	Columns []Column
}

// Normalize validates the column list and guarantees the id invariant:
// exactly one Text column named "id", prepended at index 0 when the
// caller did not supply it. Returns the normalized copy.
func (s TableSchema) Normalize() (TableSchema, error) {
	seen := make(map[string]bool, len(s.Columns)+1)
	cols := make([]Column, 0, len(s.Columns)+1)

	hasID := false
	for _, c := range s.Columns {
		if !ValidIdent(c.Name) {
			return TableSchema{}, fmt.Errorf("invalid column name %q", c.Name)
		}
		if !c.Type.Valid() {
			return TableSchema{}, fmt.Errorf("column %q: unknown type %q", c.Name, c.Type)
		}
		if seen[c.Name] {
			return TableSchema{}, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if c.Name == IDColumn {
			if c.Type != TypeText {
				return TableSchema{}, fmt.Errorf("column %q must be %s, got %s", IDColumn, TypeText, c.Type)
			}
			hasID = true
		}
		cols = append(cols, c)
	}

	if !hasID {
		cols = append([]Column{{Name: IDColumn, Type: TypeText}}, cols...)
	}
	return TableSchema{Columns: cols}, nil
}

// Column returns the definition for name and whether it is declared.
func (s TableSchema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in declaration order.
func (s TableSchema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether two schemas declare the same columns in the
// same order with the same types.
func (s TableSchema) Equal(other TableSchema) bool {
	if len(s.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range s.Columns {
		if other.Columns[i] != c {
			return false
		}
	}
	return true
}
