package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PCTL_LOG_LEVEL", "PCTL_SESSIONS_FILE", "PCTL_TIMEOUT", "PCTL_INSECURE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", settings.LogLevel)
	assert.Equal(t, 30*time.Second, settings.Timeout)
	assert.False(t, settings.InsecureSkipVerify)

	want, err := DefaultSessionsPath()
	require.NoError(t, err)
	assert.Equal(t, want, settings.SessionsFile)
	assert.Equal(t, "sessions.yaml", filepath.Base(settings.SessionsFile))
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)

	content := `
log_level = "debug"
sessions_file = "/tmp/pctl-sessions.yaml"
timeout = "45s"
insecure_skip_verify = true
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", settings.LogLevel)
	assert.Equal(t, "/tmp/pctl-sessions.yaml", settings.SessionsFile)
	assert.Equal(t, 45*time.Second, settings.Timeout)
	assert.True(t, settings.InsecureSkipVerify)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"debug\"\ntimeout = \"45s\"\n"), 0o644))

	t.Setenv("PCTL_LOG_LEVEL", "warn")
	t.Setenv("PCTL_TIMEOUT", "5s")
	t.Setenv("PCTL_SESSIONS_FILE", "/custom/sessions.yaml")
	t.Setenv("PCTL_INSECURE", "true")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", settings.LogLevel)
	assert.Equal(t, 5*time.Second, settings.Timeout)
	assert.Equal(t, "/custom/sessions.yaml", settings.SessionsFile)
	assert.True(t, settings.InsecureSkipVerify)
}

func TestLoad_DefaultFileFromConfigHome(t *testing.T) {
	clearEnv(t)

	path, err := DefaultSettingsPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"error\"\n"), 0o644))

	settings, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", settings.LogLevel)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorContains(t, err, "absent.toml")
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("timeout = [\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PCTL_TIMEOUT", "soon")

	_, err := Load("")
	assert.ErrorContains(t, err, "PCTL_")
}
