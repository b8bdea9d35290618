package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical serializes a document value to deterministic JSON:
// object keys sorted by UTF-16 code units, keys NFC-normalized, no
// HTML escaping. Two structurally equal documents always produce the
// same bytes, so mirrored rows compare byte-for-byte.
//
// Accepts any json-serializable value, including null, floats, nested
// arrays and objects, and struct types (handled through an
// encode/decode round trip). Cyclic or non-serializable values fail
// with ErrUnserializable.
func MarshalCanonical(v any) ([]byte, error) {
	data, err := marshalCanonical(v, map[uintptr]bool{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnserializable, err)
	}
	return data, nil
}

// seen tracks map and slice storage pointers along the current
// descent path; revisiting one means the value contains itself.
func marshalCanonical(v any, seen map[uintptr]bool) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case json.Number:
		return []byte(val.String()), nil
	case float64, float32:
		// encoding/json emits the shortest representation that
		// round-trips, which is what canonical form needs.
		return json.Marshal(val)
	case []any:
		if len(val) == 0 {
			return []byte("[]"), nil
		}
		ptr := reflect.ValueOf(val).Pointer()
		if seen[ptr] {
			return nil, fmt.Errorf("cyclic reference")
		}
		seen[ptr] = true
		data, err := marshalCanonicalArray(val, seen)
		delete(seen, ptr)
		return data, err
	case map[string]any:
		ptr := reflect.ValueOf(val).Pointer()
		if seen[ptr] {
			return nil, fmt.Errorf("cyclic reference")
		}
		seen[ptr] = true
		data, err := marshalCanonicalObject(val, seen)
		delete(seen, ptr)
		return data, err
	default:
		// Structs, typed slices and maps: normalize through the
		// standard encoder first, then canonicalize the generic form.
		// The encoder reports cycles in typed values as errors itself.
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}
		return marshalCanonical(generic, seen)
	}
}

func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	// Encoder appends a newline.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalCanonicalArray(arr []any, seen map[uintptr]bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := marshalCanonical(elem, seen)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any, seen map[uintptr]bool) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		// Keys are identifiers; normalize them so the same logical
		// key always serializes identically.
		keyData, err := marshalCanonicalString(norm.NFC.String(k))
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", k, err)
		}
		buf.Write(keyData)
		buf.WriteByte(':')
		valData, err := marshalCanonical(obj[k], seen)
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", k, err)
		}
		buf.Write(valData)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareKeysUTF16 orders strings by UTF-16 code units, the sort order
// RFC 8785 prescribes for canonical JSON object keys. Go's native
// string comparison is UTF-8 byte order, which differs for characters
// outside the BMP.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
