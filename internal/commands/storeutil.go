package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tablekv"
	"github.com/dotcommander/tablekv/internal/app"
	"github.com/dotcommander/tablekv/internal/output"
)

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// Intentionally hide the original error: the JSON error response is the output.
	return "error already printed"
}

// storeConfig assembles a tablekv.Config from the persistent flags, the
// environment, and config.yaml. Unset flags leave the library defaults alone.
func storeConfig(cmd *cobra.Command) (tablekv.Config, error) {
	var settings app.Settings
	var err error
	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		settings, err = app.LoadSettingsFrom(configPath)
	} else {
		settings, err = app.LoadSettings()
	}
	if err != nil {
		return tablekv.Config{}, err
	}

	flagDSN, _ := cmd.Flags().GetString("dsn")
	dsn, err := app.ResolveDSN(flagDSN, settings)
	if err != nil {
		return tablekv.Config{}, err
	}

	pick := func(flagName, fromConfig string) string {
		if v, _ := cmd.Flags().GetString(flagName); v != "" {
			return v
		}
		return fromConfig
	}

	cfg := tablekv.NewConfig(dsn).WithApplicationName("tablekv-cli")
	if v := pick("driver", settings.Driver); v != "" {
		cfg = cfg.WithDriver(tablekv.Driver(v))
	}
	if v := pick("table", settings.Table); v != "" {
		cfg = cfg.WithTableName(v)
	}
	if v := pick("schema", settings.Schema); v != "" {
		cfg = cfg.WithSchema(v)
	}
	if v := pick("table-type", settings.TableType); v != "" {
		cfg = cfg.WithTableType(tablekv.TableType(v))
	}
	if v := pick("cleanup", settings.Cleanup); v != "" {
		cfg = cfg.WithCleanupStrategy(tablekv.CleanupStrategy(v))
	}
	return cfg, nil
}

func withStore(cmd *cobra.Command, fn func(s *tablekv.Store) error) error {
	cfg, err := storeConfig(cmd)
	if err != nil {
		return cmdErr(err)
	}

	s, err := tablekv.Open(cfg)
	if err != nil {
		return cmdErr(err)
	}
	defer func() { _ = s.Close() }()

	// Transient connection failures are worth a few attempts from a CLI;
	// everything else fails fast.
	if err := tablekv.Retry(func() error { return fn(s) }); err != nil {
		return cmdErr(err)
	}
	return nil
}

func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	attrs := []any{"error", err.Error()}
	if kind := tablekv.KindOf(err); kind != 0 {
		attrs = append(attrs, "kind", int(kind))
	}
	slog.Error("command error", attrs...)
	_ = output.PrintError(err)
	return printedError{err: err}
}
