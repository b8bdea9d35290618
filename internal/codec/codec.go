// Package codec converts values between their logical column type and
// the storage-primitive representation persisted in SQLite. All
// transforms are pure; no conversion touches the storage engine.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mirrordb/mirrordb/internal/schema"
)

// ErrUnserializable marks a value that cannot be encoded for storage,
// such as a cyclic document or a channel inside a json column.
var ErrUnserializable = errors.New("value not serializable")

// ErrMalformed marks stored text that cannot be decoded back into a
// structured value.
var ErrMalformed = errors.New("malformed stored document")

// ToStorage converts a logical value to its storage primitive.
//
// A nil value passes through as SQL NULL for every type. Text and
// Number are passthrough (Number accepts any Go numeric type and
// stores float64), Boolean maps to integer 1/0, Json serializes to
// canonical text.
func ToStorage(v any, t schema.ColumnType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case schema.TypeText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("text column: expected string, got %T", v)
		}
		return s, nil
	case schema.TypeNumber:
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("number column: expected numeric, got %T", v)
		}
		return f, nil
	case schema.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("boolean column: expected bool, got %T", v)
		}
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case schema.TypeJSON:
		data, err := MarshalCanonical(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

// FromStorage converts a storage primitive back to its logical value.
//
// A stored NULL yields nil for every declared type. Number coerces
// back to float64 even when the engine hands the value back as text.
// Boolean treats integer 1 as true and anything else as false. Json
// parses the stored text; undecodable text fails with ErrMalformed.
func FromStorage(p any, t schema.ColumnType) (any, error) {
	if p == nil {
		return nil, nil
	}
	switch t {
	case schema.TypeText:
		s, ok := asString(p)
		if !ok {
			return nil, fmt.Errorf("text column: stored value is %T", p)
		}
		return s, nil
	case schema.TypeNumber:
		if f, ok := asFloat(p); ok {
			return f, nil
		}
		if s, ok := asString(p); ok {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("number column: stored text %q is not numeric", s)
			}
			return f, nil
		}
		return nil, fmt.Errorf("number column: stored value is %T", p)
	case schema.TypeBoolean:
		if f, ok := asFloat(p); ok {
			return f == 1, nil
		}
		if b, ok := p.(bool); ok {
			return b, nil
		}
		return false, nil
	case schema.TypeJSON:
		s, ok := asString(p)
		if !ok {
			return nil, fmt.Errorf("json column: stored value is %T", p)
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

// IsNumeric reports whether v is an acceptable value for a Number
// column. Used by record validation.
func IsNumeric(v any) bool {
	_, ok := asFloat(v)
	return ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}
