package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "guidedRankingAnswers", `{"q1":"a"}`))

	v, ok, err := st.Get(ctx, "guidedRankingAnswers")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"q1":"a"}`, v)
}

func TestSQLite_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	v, ok, err := st.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLite_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", "one"))
	require.NoError(t, st.Set(ctx, "k", "two"))

	v, ok, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", v)
}

func TestSQLite_Remove(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", "v"))
	require.NoError(t, st.Remove(ctx, "k"))
	require.NoError(t, st.Remove(ctx, "k"))

	_, ok, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_RemovePrefix(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "s1:a", "1"))
	require.NoError(t, st.Set(ctx, "s1:b", "2"))
	require.NoError(t, st.Set(ctx, "s2:a", "3"))

	n, err := st.RemovePrefix(ctx, "s1:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := st.Get(ctx, "s2:a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Set(ctx, "unifiedBumperState", `{"exitIntentShown":true}`))
	require.NoError(t, st.Close())

	st2, err := NewSQLite(dbPath)
	require.NoError(t, err)
	defer st2.Close() //nolint:errcheck
	require.NoError(t, st2.Migrate(ctx))

	v, ok, err := st2.Get(ctx, "unifiedBumperState")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"exitIntentShown":true}`, v)
}
