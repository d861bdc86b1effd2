package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	DSN       string `yaml:"dsn"`
	Driver    string `yaml:"driver"`
	Table     string `yaml:"table"`
	Schema    string `yaml:"schema"`
	TableType string `yaml:"table_type"`
	Cleanup   string `yaml:"cleanup"`
}

//nolint:gochecknoglobals // sync.Once singleton is intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error
)

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/tablekv/config.yaml
// 2) /etc/tablekv/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		// 1) User config (~/.config/tablekv/config.yaml)
		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		if s, err := loadSettingsFile(filepath.Join(dir, "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 2) /etc
		if s, err := loadSettingsFile(filepath.Join(string(os.PathSeparator), "etc", "tablekv", "config.yaml")); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 3) Local ./config.yaml (lowest priority)
		if s, err := loadSettingsFile("config.yaml"); err == nil {
			settings = s
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}
	})

	return settings, settingsErr
}

// LoadSettingsFrom reads settings from an explicit file, bypassing the
// lookup order and the cache. Used for the --config flag.
func LoadSettingsFrom(path string) (Settings, error) {
	return loadSettingsFile(path)
}

// ResolveDSN returns the effective connection string: the flag value wins,
// then $TABLEKV_DSN, then the loaded settings.
func ResolveDSN(flagValue string, s Settings) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("TABLEKV_DSN"); env != "" {
		return env, nil
	}
	if s.DSN != "" {
		return s.DSN, nil
	}
	return "", errors.New("no connection string: pass --dsn, set TABLEKV_DSN, or set dsn in config.yaml")
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func resetSettingsStateForTest() {
	settingsOnce = sync.Once{}
	settings = Settings{}
	settingsErr = nil
}
