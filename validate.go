package mirrordb

import (
	"github.com/mirrordb/mirrordb/internal/codec"
	"github.com/mirrordb/mirrordb/internal/schema"
)

// validateRecord checks a record against a table schema before any
// write. All-or-nothing: the first violated constraint aborts the
// whole write with no partial effect.
//
// The id is "missing" when the field is absent, nil, or the empty
// string. A present id of a non-string type is a type violation, not a
// missing value; "0" is a perfectly good id.
func validateRecord(ts schema.TableSchema, rec Record) error {
	id, present := rec[schema.IDColumn]
	if !present || id == nil {
		return missingValuef("record has no id")
	}
	s, ok := id.(string)
	if !ok {
		return invalidTypef("id must be text, got %T", id)
	}
	if s == "" {
		return missingValuef("record id is empty")
	}

	// Schema drives which columns are checked; record fields not
	// declared in the schema are ignored.
	for _, c := range ts.Columns {
		v, present := rec[c.Name]
		if !present || v == nil {
			continue
		}
		switch c.Type {
		case schema.TypeText:
			if _, ok := v.(string); !ok {
				return invalidTypef("column %q expects text, got %T", c.Name, v)
			}
		case schema.TypeNumber:
			if !codec.IsNumeric(v) {
				return invalidTypef("column %q expects a number, got %T", c.Name, v)
			}
		case schema.TypeBoolean:
			if _, ok := v.(bool); !ok {
				return invalidTypef("column %q expects a boolean, got %T", c.Name, v)
			}
		case schema.TypeJSON:
			// Shape is free-form; only serializability matters.
			if _, err := codec.MarshalCanonical(v); err != nil {
				return invalidTypef("column %q: %v", c.Name, err)
			}
		}
	}
	return nil
}
