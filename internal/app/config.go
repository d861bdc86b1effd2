package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/tablekv/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tablekv"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# tablekv configuration
# Run: tablekv --help

# Connection string. Can also be set via TABLEKV_DSN or --dsn.
# dsn: postgres://localhost:5432/app

# Backend driver: postgres (default) or sqlite.
# driver: postgres

# Table the store reads and writes, optionally schema-qualified.
# table: kv_store
# schema: public

# Durability of auto-created tables: unlogged (default) or regular.
# table_type: unlogged

# Expired-row handling: on_read (default), manual, or disabled.
# cleanup: on_read
`
