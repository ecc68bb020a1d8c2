package cli

import (
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// rootEnv defines root CLI defaults sourced from PCTL_* env vars.
type rootEnv struct {
	// SettingsPath is the settings file path from PCTL_SETTINGS.
	SettingsPath string `env:"PCTL_SETTINGS"`
}

// serverEnv selects the control plane when no server flag is given.
type serverEnv struct {
	// Session is a saved session name from PCTL_SESSION.
	Session string `env:"PCTL_SESSION"`
	// Address is the server URL from PCTL_ADDRESS.
	Address string `env:"PCTL_ADDRESS"`
	// Token is an API token from PCTL_TOKEN.
	Token string `env:"PCTL_TOKEN"`
	// Username is the login name from PCTL_USERNAME.
	Username string `env:"PCTL_USERNAME"`
	// Password is the login password from PCTL_PASSWORD.
	Password string `env:"PCTL_PASSWORD"`
}

// parseEnv fills target from PCTL_* env vars via caarlos0/env.
func parseEnv(target any) error {
	return envparse.Parse(target)
}

// envPresent reports whether a non-empty env var exists.
func envPresent(key string) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}
