package metacache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenSQLite(dir, "acme", time.Hour)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "Employee", []byte(`{"Name":"Employee"}`)))
	data, ok, err := s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"Name":"Employee"}`, string(data))

	require.NoError(t, s.Put(ctx, "Employee", []byte(`{"Name":"Employee","Label":"Staff"}`)))
	data, _, err = s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Staff")

	require.NoError(t, s.Delete(ctx, "Employee"))
	_, ok, err = s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.Delete(ctx, "Employee"))

	_, err = os.Stat(filepath.Join(dir, SQLiteFile))
	assert.NoError(t, err)
}

func TestSQLiteStoreNamespaces(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := OpenSQLite(dir, "acme", 0)
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenSQLite(dir, "globex", 0)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Put(ctx, "Employee", []byte(`{"Name":"Employee"}`)))
	_, ok, err := b.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(t.TempDir(), "acme", time.Minute)
	require.NoError(t, err)
	defer s.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	require.NoError(t, s.Put(ctx, "Employee", []byte(`{}`)))

	now = now.Add(30 * time.Second)
	_, ok, err := s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, err = s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenSQLite(dir, "acme", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "LeaveRequest", []byte(`{"Name":"LeaveRequest"}`)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(dir, "acme", time.Hour)
	require.NoError(t, err)
	defer s.Close()
	_, ok, err := s.Get(ctx, "LeaveRequest")
	require.NoError(t, err)
	assert.True(t, ok)
}
