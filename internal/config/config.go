// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package config loads the Acekeeper configuration from file, environment
// and command-line flags via viper, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	// Sink selects the backup destination: "file" or "1password".
	Sink string `mapstructure:"sink" yaml:"sink"`
	// Vault is the 1Password vault used when Sink is "1password".
	Vault string `mapstructure:"vault" yaml:"vault"`
	// BackupDir is the directory for file-based backups.
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"`
	// FavoritesPath overrides the Sequel Ace Favorites.plist location.
	// Empty means the platform default inside the app sandbox container.
	FavoritesPath string `mapstructure:"favorites_path" yaml:"favorites_path"`
	// AppBinary is the Sequel Ace executable granted keychain access on
	// restored entries.
	AppBinary string `mapstructure:"app_binary" yaml:"app_binary"`
	// HistoryPath is the SQLite database recording past runs.
	HistoryPath string `mapstructure:"history_path" yaml:"history_path"`
	// Language selects the UI language (e.g. "en", "de").
	Language string `mapstructure:"language" yaml:"language"`
	// Debug enables verbose logging.
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Acekeeper")
		default: // macOS, Linux
			configDir = "/etc/acekeeper"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "acekeeper")
	}

	return filepath.Join(configDir, "acekeeper.yaml"), nil
}

// LoadConfig resolves configuration for a command invocation. Precedence,
// lowest to highest: built-in defaults, config file, environment variables
// (ACEKEEPER_*), command-line flags.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("acekeeper")
	v.SetConfigType("yaml")

	// An explicit --config path has the highest precedence for file-based
	// configuration.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	// A missing file is expected on first run: resolution continues with
	// defaults, env and flags, and the not-found error is handed back so the
	// caller can seed an initial config file.
	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = err
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("acekeeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, notFound
}

// WriteConfigFile persists the configuration to the user (or system)
// configuration path, creating the directory if needed.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600 since the file may name private paths.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}

	return nil
}

// DefaultFavoritesPath returns the standard Sequel Ace favorites location
// inside the app's sandbox container.
func DefaultFavoritesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home,
		"Library", "Containers", "com.sequel-ace.sequel-ace",
		"Data", "Library", "Application Support", "Sequel Ace", "Data",
		"Favorites.plist")
}

// DefaultAppBinary returns the Sequel Ace executable path used for keychain
// access grants.
func DefaultAppBinary() string {
	return "/Applications/Sequel Ace.app/Contents/MacOS/Sequel Ace"
}
