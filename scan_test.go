package tablekv

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys_SortedWithPrefix(t *testing.T) {
	s := newTestStore(t)

	for _, k := range []string{"user:2", "user:1", "session:1", "user:3"} {
		require.NoError(t, s.Set(k, []byte("v")))
	}

	keys, err := s.Keys(ScanOptions{Prefix: "user:"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1", "user:2", "user:3"}, keys)

	keys, err = s.Keys(ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"session:1", "user:1", "user:2", "user:3"}, keys)

	keys, err = s.Keys(ScanOptions{Prefix: "nomatch:"})
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestScan_Pagination(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 100; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("key:%03d", i), []byte("v")))
	}

	seen := map[string]bool{}
	for page := 0; page < 4; page++ {
		kvs, err := s.Scan(ScanOptions{Limit: 25, Offset: page * 25})
		require.NoError(t, err)
		require.Len(t, kvs, 25)
		for _, kv := range kvs {
			assert.False(t, seen[kv.Key], "key %q returned twice", kv.Key)
			seen[kv.Key] = true
		}
	}
	assert.Len(t, seen, 100)

	// Past the end.
	kvs, err := s.Scan(ScanOptions{Limit: 25, Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, kvs)
}

func TestScan_PrefixMetacharacters(t *testing.T) {
	s := newTestStore(t)

	for _, k := range []string{"a%b:1", "a_b:1", `a\b:1`, "axb:1"} {
		require.NoError(t, s.Set(k, []byte("v")))
	}

	cases := []struct {
		prefix string
		want   []string
	}{
		{"a%b", []string{"a%b:1"}},
		{"a_b", []string{"a_b:1"}},
		{`a\b`, []string{`a\b:1`}},
		{"axb", []string{"axb:1"}},
	}
	for _, tc := range cases {
		keys, err := s.Keys(ScanOptions{Prefix: tc.prefix})
		require.NoError(t, err)
		assert.Equal(t, tc.want, keys, "prefix %q", tc.prefix)
	}
}

func TestScan_ExpiredVisibility(t *testing.T) {
	s := newTestStoreWith(t, func(c Config) Config {
		return c.WithCleanupStrategy(CleanupManual)
	})

	require.NoError(t, s.Set("live", []byte("v")))
	require.NoError(t, s.SetAt("dead", []byte("v"), time.Now().Add(-time.Minute)))

	keys, err := s.Keys(ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, keys)

	keys, err = s.Keys(ScanOptions{IncludeExpired: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"dead", "live"}, keys)

	n, err := s.Count(ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Count(ScanOptions{IncludeExpired: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDeletePrefix(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("user:1", []byte("v")))
	require.NoError(t, s.Set("user:2", []byte("v")))
	require.NoError(t, s.SetAt("user:3", []byte("v"), time.Now().Add(-time.Minute)))
	require.NoError(t, s.Set("other", []byte("v")))

	// Prefix deletion sweeps expired rows too.
	n, err := s.DeletePrefix("user:")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	keys, err := s.Keys(ScanOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, keys)
}

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, escapeLike(tc.in), "input %q", tc.in)
	}
}
