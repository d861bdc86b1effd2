package commands

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// newTestRoot builds a root command wired to a temp sqlite database, so
// command round trips run without a server.
func newTestRoot(t *testing.T, sub *cobra.Command, args ...string) *cobra.Command {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TABLEKV_DSN", "")

	root := newBareRoot()
	root.AddCommand(sub)
	root.SetArgs(append([]string{sub.Name()}, args...))
	return root
}

func newBareRoot() *cobra.Command {
	root := &cobra.Command{Use: "tablekv", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("dsn", "", "")
	root.PersistentFlags().String("config", "", "")
	root.PersistentFlags().String("driver", "", "")
	root.PersistentFlags().String("table", "", "")
	root.PersistentFlags().String("schema", "", "")
	root.PersistentFlags().String("table-type", "", "")
	root.PersistentFlags().String("cleanup", "", "")
	return root
}

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

type envelope struct {
	SchemaVersion string         `json:"schema_version"`
	Success       bool           `json:"success"`
	Data          map[string]any `json:"data"`
	Error         string         `json:"error"`
}

func runCommand(t *testing.T, sub *cobra.Command, args ...string) envelope {
	t.Helper()
	root := newTestRoot(t, sub, args...)

	var execErr error
	out := captureStdout(t, func() {
		execErr = root.Execute()
	})
	require.NoError(t, execErr)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	return env
}

func testDSNArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--driver", "sqlite", "--dsn", filepath.Join(t.TempDir(), "cli.db")}
}

func TestSetGetCommands(t *testing.T) {
	dsn := testDSNArgs(t)

	env := runCommand(t, newSetCmd(), append([]string{"greeting", "hello"}, dsn...)...)
	require.True(t, env.Success)
	require.Equal(t, true, env.Data["stored"])

	env = runCommand(t, newGetCmd(), append([]string{"greeting"}, dsn...)...)
	require.True(t, env.Success)
	require.Equal(t, true, env.Data["found"])
	require.Equal(t, "hello", env.Data["value"])
	require.Equal(t, "utf8", env.Data["encoding"])

	env = runCommand(t, newGetCmd(), append([]string{"absent"}, dsn...)...)
	require.True(t, env.Success)
	require.Equal(t, false, env.Data["found"])
}

func TestSetIfAbsentCommand(t *testing.T) {
	dsn := testDSNArgs(t)

	env := runCommand(t, newSetCmd(), append([]string{"k", "v", "--if-absent"}, dsn...)...)
	require.Equal(t, true, env.Data["inserted"])

	env = runCommand(t, newSetCmd(), append([]string{"k", "other", "--if-absent"}, dsn...)...)
	require.Equal(t, false, env.Data["inserted"])
}

func TestIncrCommand(t *testing.T) {
	dsn := testDSNArgs(t)

	env := runCommand(t, newIncrCmd(), append([]string{"hits", "--by", "5"}, dsn...)...)
	require.True(t, env.Success)
	require.Equal(t, float64(5), env.Data["value"])

	env = runCommand(t, newDecrCmd(), append([]string{"hits", "--by", "2"}, dsn...)...)
	require.Equal(t, float64(3), env.Data["value"])
}

func TestKeysAndCountCommands(t *testing.T) {
	dsn := testDSNArgs(t)

	runCommand(t, newSetCmd(), append([]string{"user:1", "a"}, dsn...)...)
	runCommand(t, newSetCmd(), append([]string{"user:2", "b"}, dsn...)...)
	runCommand(t, newSetCmd(), append([]string{"other", "c"}, dsn...)...)

	env := runCommand(t, newKeysCmd(), append([]string{"--prefix", "user:"}, dsn...)...)
	require.Equal(t, float64(2), env.Data["count"])
	require.Equal(t, []any{"user:1", "user:2"}, env.Data["keys"])

	env = runCommand(t, newCountCmd(), dsn...)
	require.Equal(t, float64(3), env.Data["count"])
}

func TestDelCommand(t *testing.T) {
	dsn := testDSNArgs(t)

	runCommand(t, newSetCmd(), append([]string{"a", "1"}, dsn...)...)
	runCommand(t, newSetCmd(), append([]string{"b", "2"}, dsn...)...)

	env := runCommand(t, newDelCmd(), append([]string{"a", "b", "absent"}, dsn...)...)
	require.Equal(t, float64(2), env.Data["deleted"])
}

func TestTTLCommands(t *testing.T) {
	dsn := testDSNArgs(t)

	runCommand(t, newSetCmd(), append([]string{"k", "v", "--ttl", "1h"}, dsn...)...)

	env := runCommand(t, newTTLCmd(), append([]string{"k"}, dsn...)...)
	require.Equal(t, true, env.Data["has_ttl"])

	env = runCommand(t, newPersistCmd(), append([]string{"k"}, dsn...)...)
	require.Equal(t, true, env.Data["updated"])

	env = runCommand(t, newTTLCmd(), append([]string{"k"}, dsn...)...)
	require.Equal(t, false, env.Data["has_ttl"])
}

func TestStatsCommand(t *testing.T) {
	dsn := testDSNArgs(t)

	runCommand(t, newSetCmd(), append([]string{"k", "value"}, dsn...)...)

	env := runCommand(t, newStatsCmd(), dsn...)
	require.True(t, env.Success)
	require.Equal(t, float64(1), env.Data["total_keys"])
	require.Equal(t, float64(5), env.Data["total_value_bytes"])
}

func TestExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "settings.yaml")
	content := "dsn: " + filepath.Join(dir, "cfg.db") + "\ndriver: sqlite\ntable: from_config\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	env := runCommand(t, newCountCmd(), "--config", configPath)
	require.True(t, env.Success)
	require.Equal(t, float64(0), env.Data["count"])
}

func TestCommandError_IsPrinted(t *testing.T) {
	// No DSN anywhere: the command prints a JSON error envelope and returns
	// a printedError sentinel.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TABLEKV_DSN", "")

	root := newBareRoot()
	root.AddCommand(newCountCmd())
	root.SetArgs([]string{"count"})

	var execErr error
	out := captureStdout(t, func() {
		execErr = root.Execute()
	})
	require.Error(t, execErr)
	require.IsType(t, printedError{}, execErr)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.False(t, env.Success)
	require.Contains(t, env.Error, "connection string")
}
