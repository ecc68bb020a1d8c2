// Package config loads pctl settings from an optional TOML file and PCTL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	envparse "github.com/caarlos0/env/v11"
)

const (
	// appDirName is the directory under the user config dir holding pctl files.
	appDirName = "pctl"
	// settingsFileName is the default settings file name.
	settingsFileName = "config.toml"
	// sessionsFileName is the default sessions file name.
	sessionsFileName = "sessions.yaml"

	// DefaultTimeout bounds a single request to the control plane.
	DefaultTimeout = 30 * time.Second
	// DefaultLogLevel is used when neither file nor env set a level.
	DefaultLogLevel = "info"
)

// Settings holds tool-wide settings. Precedence: env over file over defaults.
// Command-line flags are applied on top by the cli package.
type Settings struct {
	// LogLevel is the logging level (debug, info, warn, error).
	LogLevel string `toml:"log_level" env:"PCTL_LOG_LEVEL"`
	// SessionsFile is the path of the saved sessions file.
	SessionsFile string `toml:"sessions_file" env:"PCTL_SESSIONS_FILE"`
	// Timeout bounds each HTTP request to the control plane.
	Timeout time.Duration `toml:"timeout" env:"PCTL_TIMEOUT"`
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `toml:"insecure_skip_verify" env:"PCTL_INSECURE"`
}

// Dir returns the pctl configuration directory, honoring XDG_CONFIG_HOME.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// DefaultSettingsPath returns the default location of config.toml.
func DefaultSettingsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFileName), nil
}

// DefaultSessionsPath returns the default location of sessions.yaml.
func DefaultSessionsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionsFileName), nil
}

// Defaults returns built-in settings before any file or env override.
func Defaults() Settings {
	return Settings{
		LogLevel: DefaultLogLevel,
		Timeout:  DefaultTimeout,
	}
}

// Load reads settings from path and applies PCTL_* overrides.
// An empty path means the default location, which may be absent.
// An explicitly given path must exist.
func Load(path string) (*Settings, error) {
	settings := Defaults()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		p, err := DefaultSettingsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &settings); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return nil, fmt.Errorf("read settings %q: %w", path, err)
		}
	}

	if err := envparse.Parse(&settings); err != nil {
		return nil, fmt.Errorf("parse PCTL_* environment: %w", err)
	}

	if strings.TrimSpace(settings.SessionsFile) == "" {
		p, err := DefaultSessionsPath()
		if err != nil {
			return nil, err
		}
		settings.SessionsFile = p
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(settings.LogLevel) == "" {
		settings.LogLevel = DefaultLogLevel
	}

	return &settings, nil
}
