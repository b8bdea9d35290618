package mirrordb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB creates a store backed by a fresh temp database.
func openTestDB(t *testing.T, opts Options) *DB {
	t.Helper()
	if opts.FilePath == "" {
		opts.FilePath = filepath.Join(t.TempDir(), "test.db")
	}
	db, err := Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// initUsers registers the table most tests work against.
func initUsers(t *testing.T, db *DB) {
	t.Helper()
	err := db.InitTable(context.Background(), "users", TableSchema{Columns: []Column{
		{Name: "name", Type: Text},
		{Name: "age", Type: Number},
		{Name: "active", Type: Boolean},
		{Name: "profile", Type: JSON},
	}})
	require.NoError(t, err)
}

func TestOpen_PreRegistersTables(t *testing.T) {
	db := openTestDB(t, Options{Tables: []string{"a", "b"}})
	ctx := context.Background()

	_, err := db.Add(ctx, "a", Record{"id": "x"})
	require.NoError(t, err)

	got, err := db.Get(ctx, "a", "x")
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "x"}, got)
}

func TestInitTable_RejectsEmptySchema(t *testing.T) {
	db := openTestDB(t, Options{})
	err := db.InitTable(context.Background(), "t", TableSchema{})
	require.Error(t, err)
	assert.True(t, IsInvalidType(err))
}

func TestInitTable_RejectsBadTableName(t *testing.T) {
	db := openTestDB(t, Options{})
	err := db.InitTable(context.Background(), "bad name", TableSchema{Columns: []Column{{Name: "n", Type: Text}}})
	require.Error(t, err)
	assert.True(t, IsInvalidType(err))
}

func TestInitTable_EqualReRegistrationIsNoop(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	initUsers(t, db)
}

func TestInitTable_ConflictingReRegistrationFails(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)

	err := db.InitTable(context.Background(), "users", TableSchema{Columns: []Column{
		{Name: "name", Type: Number},
	}})
	require.Error(t, err)
	assert.True(t, IsInvalidType(err))
}

func TestAdd_WriteThenRead(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	in := Record{
		"id":      "u1",
		"name":    "ada",
		"age":     float64(36),
		"active":  true,
		"profile": map[string]any{"lang": "go", "level": float64(3)},
	}
	out, err := db.Add(ctx, "users", in)
	require.NoError(t, err)
	assert.Equal(t, in, out, "Add returns the input record unchanged")

	got, err := db.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestAdd_ReplaceDropsOmittedColumns(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "u1", "name": "ada", "age": float64(36)})
	require.NoError(t, err)

	// Full replace: the new row omits age, so age is gone.
	_, err = db.Add(ctx, "users", Record{"id": "u1", "name": "lovelace"})
	require.NoError(t, err)

	got, err := db.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "u1", "name": "lovelace"}, got)
}

func TestAdd_IgnoresUndeclaredFields(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "u1", "undeclared": 12345})
	require.NoError(t, err)

	got, err := db.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, Record{"id": "u1"}, got)
}

func TestAdd_MissingID(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	for name, rec := range map[string]Record{
		"absent": {"name": "no-id"},
		"nil":    {"id": nil},
		"empty":  {"id": ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := db.Add(ctx, "users", rec)
			require.Error(t, err)
			assert.True(t, IsMissingValue(err))
		})
	}
}

func TestAdd_ZeroStringIsAValidID(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "0"})
	require.NoError(t, err)

	ok, err := db.Has(ctx, "users", "0")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdd_TypeMismatch(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	cases := map[string]Record{
		"text gets number":    {"id": "x", "name": 7},
		"number gets text":    {"id": "x", "age": "not-a-number"},
		"boolean gets text":   {"id": "x", "active": "yes"},
		"non-text id":         {"id": 42},
		"json unserializable": {"id": "x", "profile": make(chan int)},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := db.Add(ctx, "users", rec)
			require.Error(t, err)
			assert.True(t, IsInvalidType(err), "got %v", err)
		})
	}
}

func TestAdd_CyclicJSONValue(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)

	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	_, err := db.Add(context.Background(), "users", Record{"id": "x", "profile": cyclic})
	require.Error(t, err)
	assert.True(t, IsInvalidType(err), "got %v", err)
}

func TestGet_MalformedStoredJSON(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "u1", "profile": map[string]any{"k": "v"}})
	require.NoError(t, err)

	// Corrupt the stored column underneath the store.
	_, err = db.engine.Execute(ctx, "UPDATE users SET profile = '{broken' WHERE id = ?", "u1")
	require.NoError(t, err)

	_, err = db.Get(ctx, "users", "u1")
	require.Error(t, err)
	assert.True(t, IsParseException(err), "got %v", err)
}

func TestAdd_UnregisteredTable(t *testing.T) {
	db := openTestDB(t, Options{})
	_, err := db.Add(context.Background(), "ghost", Record{"id": "x"})
	require.Error(t, err)
	assert.True(t, IsInvalidType(err))
}

func TestGet_NotFoundIsNilNotError(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)

	got, err := db.Get(context.Background(), "users", "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAll_ReturnsEveryRecord(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := db.Add(ctx, "users", Record{"id": id, "name": "n-" + id})
		require.NoError(t, err)
	}

	all, err := db.All(ctx, "users")
	require.NoError(t, err)
	require.Len(t, all, 3)

	ids := make([]string, len(all))
	for i, rec := range all {
		ids[i] = rec["id"].(string)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestHas(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "x"})
	require.NoError(t, err)

	ok, err := db.Has(ctx, "users", "x")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.Has(ctx, "users", "y")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "x"})
	require.NoError(t, err)

	n, err := db.Delete(ctx, "users", "missing-id")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = db.Delete(ctx, "users", "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := db.Get(ctx, "users", "x")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteAll(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := db.Add(ctx, "users", Record{"id": id})
		require.NoError(t, err)
	}

	n, err := db.DeleteAll(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := db.All(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStartsWith(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	for _, id := range []string{"a-1", "a-2", "b-1"} {
		_, err := db.Add(ctx, "users", Record{"id": id})
		require.NoError(t, err)
	}

	rows, err := db.StartsWith(ctx, "users", "a-")
	require.NoError(t, err)
	ids := make([]string, len(rows))
	for i, rec := range rows {
		ids[i] = rec["id"].(string)
	}
	assert.ElementsMatch(t, []string{"a-1", "a-2"}, ids)

	rows, err = db.StartsWith(ctx, "users", "c-")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStartsWith_CaseSensitive(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	for _, id := range []string{"Apple", "apple"} {
		_, err := db.Add(ctx, "users", Record{"id": id})
		require.NoError(t, err)
	}

	rows, err := db.StartsWith(ctx, "users", "App")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Apple", rows[0]["id"])
}

func TestIncrement_FromAbsentField(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "x"})
	require.NoError(t, err)

	v, err := db.Increment(ctx, "users", "x", "age", 10)
	require.NoError(t, err)
	assert.Equal(t, float64(10), v)

	v, err = db.Increment(ctx, "users", "x", "age", 5)
	require.NoError(t, err)
	assert.Equal(t, float64(15), v)

	got, err := db.Get(ctx, "users", "x")
	require.NoError(t, err)
	assert.Equal(t, float64(15), got["age"])
}

func TestIncrement_MissingRecord(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)

	_, err := db.Increment(context.Background(), "users", "nobody", "age", 1)
	require.Error(t, err)
	assert.True(t, IsMissingValue(err))
}

func TestIncrement_NonNumberColumn(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "x", "name": "ada"})
	require.NoError(t, err)

	_, err = db.Increment(ctx, "users", "x", "name", 1)
	require.Error(t, err)
	assert.True(t, IsInvalidType(err))

	_, err = db.Increment(ctx, "users", "x", "undeclared", 1)
	require.Error(t, err)
	assert.True(t, IsInvalidType(err))
}

func TestIncrement_NegativeDelta(t *testing.T) {
	db := openTestDB(t, Options{})
	initUsers(t, db)
	ctx := context.Background()

	_, err := db.Add(ctx, "users", Record{"id": "x", "age": float64(10)})
	require.NoError(t, err)

	v, err := db.Increment(ctx, "users", "x", "age", -4)
	require.NoError(t, err)
	assert.Equal(t, float64(6), v)
}
