package output

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()

	require.NoError(t, w.Close())

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(b)
}

func TestSuccessAndError(t *testing.T) {
	s := Success(map[string]string{"k": "v"})
	require.Equal(t, "v1", s.SchemaVersion)
	require.True(t, s.Success)
	require.NotNil(t, s.Data)
	require.Empty(t, s.Error)

	e := Error(errors.New("boom"))
	require.Equal(t, "v1", e.SchemaVersion)
	require.False(t, e.Success)
	require.Nil(t, e.Data)
	require.Equal(t, "boom", e.Error)
}

func TestPrint_Compact(t *testing.T) {
	t.Setenv("TABLEKV_PRETTY_JSON", "")

	out := captureStdout(t, func() {
		require.NoError(t, Print(map[string]string{"hello": "world"}))
	})
	require.Equal(t, "{\"hello\":\"world\"}\n", out)
}

func TestPrint_Pretty(t *testing.T) {
	t.Setenv("TABLEKV_PRETTY_JSON", "1")

	out := captureStdout(t, func() {
		require.NoError(t, Print(map[string]string{"hello": "world"}))
	})
	require.True(t, strings.Contains(out, "\n  \"hello\": \"world\"\n"))
}

func TestPrintSuccessEnvelope(t *testing.T) {
	t.Setenv("TABLEKV_PRETTY_JSON", "")

	out := captureStdout(t, func() {
		require.NoError(t, PrintSuccess(map[string]int{"n": 1}))
	})
	require.Equal(t, "{\"schema_version\":\"v1\",\"success\":true,\"data\":{\"n\":1}}\n", out)

	out = captureStdout(t, func() {
		require.NoError(t, PrintError(errors.New("nope")))
	})
	require.Equal(t, "{\"schema_version\":\"v1\",\"success\":false,\"error\":\"nope\"}\n", out)
}
