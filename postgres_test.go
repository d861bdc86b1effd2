package tablekv

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPostgresStore opens a store against the server named by
// TABLEKV_TEST_DSN, recreating its table for isolation. Tests using it are
// skipped unless the variable is set.
func newPostgresStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TABLEKV_TEST_DSN")
	if dsn == "" {
		t.Skip("TABLEKV_TEST_DSN not set; skipping postgres integration test")
	}

	cfg := NewConfig(dsn).
		WithTableName("tablekv_integration_test").
		WithApplicationName("tablekv-test")
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.RecreateTable())
	return s
}

func TestPostgres_RoundTrip(t *testing.T) {
	s := newPostgresStore(t)

	value := []byte{0x00, 0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, s.Set("k", value))

	got, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value, got)

	deleted, err := s.Delete("k")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestPostgres_TTL(t *testing.T) {
	s := newPostgresStore(t)

	require.NoError(t, s.SetEx("k", []byte("v"), time.Hour))
	d, ok, err := s.TTL("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, d, 59*time.Minute)

	require.NoError(t, s.SetAt("dead", []byte("v"), time.Now().Add(-time.Minute)))
	_, ok, err = s.Get("dead")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgres_Increment(t *testing.T) {
	s := newPostgresStore(t)

	n, err := s.Increment("counter", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = s.Decrement("counter", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, s.Set("text", []byte("not a number")))
	n, err = s.Increment("text", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestPostgres_CompareAndSwap(t *testing.T) {
	s := newPostgresStore(t)

	res, err := s.CompareAndSwap("k", nil, []byte("v1"))
	require.NoError(t, err)
	assert.True(t, res.Success())

	res, err = s.CompareAndSwap("k", []byte("v1"), []byte("v2"))
	require.NoError(t, err)
	assert.True(t, res.Success())

	res, err = s.CompareAndSwap("k", []byte("v1"), []byte("v3"))
	require.NoError(t, err)
	require.True(t, res.Mismatch())
	assert.Equal(t, []byte("v2"), res.Current)
}

// The single-statement pre-image path only exists on postgres; exercise it
// directly.
func TestPostgres_GetAndSet(t *testing.T) {
	s := newPostgresStore(t)

	_, ok, err := s.GetAndSet("k", []byte("v1"))
	require.NoError(t, err)
	assert.False(t, ok)

	old, ok, err := s.GetAndSet("k", []byte("v2"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), old)
}

func TestPostgres_Stats(t *testing.T) {
	s := newPostgresStore(t)

	require.NoError(t, s.Set("a", []byte("12345")))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalKeys)
	assert.Equal(t, int64(5), st.TotalValueBytes)
	assert.Greater(t, st.TableSizeBytes, int64(0))
}

func TestPostgres_Maintenance(t *testing.T) {
	s := newPostgresStore(t)

	require.NoError(t, s.Set("a", []byte("1")))
	require.NoError(t, s.Truncate())

	n, err := s.Count(ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, s.Analyze())
}
