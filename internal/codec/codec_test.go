package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrordb/mirrordb/internal/schema"
)

func TestRoundTrip_Text(t *testing.T) {
	stored, err := ToStorage("hello", schema.TypeText)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored)

	back, err := FromStorage(stored, schema.TypeText)
	require.NoError(t, err)
	assert.Equal(t, "hello", back)
}

func TestRoundTrip_Number(t *testing.T) {
	for _, v := range []float64{0, 1, -3.5, 1e15} {
		stored, err := ToStorage(v, schema.TypeNumber)
		require.NoError(t, err)

		back, err := FromStorage(stored, schema.TypeNumber)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestRoundTrip_Boolean(t *testing.T) {
	for _, v := range []bool{true, false} {
		stored, err := ToStorage(v, schema.TypeBoolean)
		require.NoError(t, err)

		back, err := FromStorage(stored, schema.TypeBoolean)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestRoundTrip_JSON(t *testing.T) {
	doc := map[string]any{
		"name":   "widget",
		"count":  float64(3),
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"ok": true, "note": nil},
	}

	stored, err := ToStorage(doc, schema.TypeJSON)
	require.NoError(t, err)

	back, err := FromStorage(stored, schema.TypeJSON)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestToStorage_IntStoresAsFloat(t *testing.T) {
	stored, err := ToStorage(42, schema.TypeNumber)
	require.NoError(t, err)
	assert.Equal(t, float64(42), stored)
}

func TestToStorage_BooleanMapping(t *testing.T) {
	stored, err := ToStorage(true, schema.TypeBoolean)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored)

	stored, err = ToStorage(false, schema.TypeBoolean)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored)
}

func TestToStorage_TypeMismatch(t *testing.T) {
	_, err := ToStorage(3, schema.TypeText)
	assert.Error(t, err)

	_, err = ToStorage("yes", schema.TypeBoolean)
	assert.Error(t, err)

	_, err = ToStorage("not-a-number", schema.TypeNumber)
	assert.Error(t, err)
}

func TestToStorage_UnserializableJSON(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	_, err := ToStorage(cyclic, schema.TypeJSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnserializable)

	_, err = ToStorage(make(chan int), schema.TypeJSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnserializable)
}

func TestToStorage_NilPassesThrough(t *testing.T) {
	for _, ct := range []schema.ColumnType{schema.TypeText, schema.TypeNumber, schema.TypeBoolean, schema.TypeJSON} {
		stored, err := ToStorage(nil, ct)
		require.NoError(t, err)
		assert.Nil(t, stored)
	}
}

func TestFromStorage_NullIsAbsentForEveryType(t *testing.T) {
	for _, ct := range []schema.ColumnType{schema.TypeText, schema.TypeNumber, schema.TypeBoolean, schema.TypeJSON} {
		v, err := FromStorage(nil, ct)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
}

func TestFromStorage_NumberCoercesStoredText(t *testing.T) {
	v, err := FromStorage("12.5", schema.TypeNumber)
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	v, err = FromStorage(int64(7), schema.TypeNumber)
	require.NoError(t, err)
	assert.Equal(t, float64(7), v)
}

func TestFromStorage_BooleanOnlyOneIsTrue(t *testing.T) {
	cases := []struct {
		stored any
		want   bool
	}{
		{int64(1), true},
		{int64(0), false},
		{int64(2), false},
		{int64(-1), false},
		{"junk", false},
	}
	for _, tc := range cases {
		v, err := FromStorage(tc.stored, schema.TypeBoolean)
		require.NoError(t, err)
		assert.Equal(t, tc.want, v, "stored %v", tc.stored)
	}
}

func TestFromStorage_MalformedJSON(t *testing.T) {
	_, err := FromStorage("{not json", schema.TypeJSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}
