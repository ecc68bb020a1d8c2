package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hnaderi/pctl/internal/engine"
)

// serverFlags selects and authenticates against a control plane.
type serverFlags struct {
	session  string
	address  string
	token    string
	username string
	password string
}

var serverFlagNames = []string{"session", "host", "token", "username", "password"}

func (f *serverFlags) bind(cmd *cobra.Command, withSession bool) {
	if withSession {
		cmd.Flags().StringVarP(&f.session, "session", "S", "", "Saved session name")
	}
	cmd.Flags().StringVarP(&f.address, "host", "H", "", "Portainer address, e.g. https://portainer.example.com")
	cmd.Flags().StringVarP(&f.token, "token", "t", "", "API token")
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Username for password login")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "Password (prompted when omitted on a terminal)")
}

// applyEnv fills the flags from PCTL_* when no server flag was given.
func (f *serverFlags) applyEnv(cmd *cobra.Command, withSession bool) error {
	for _, name := range serverFlagNames {
		if cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name) {
			return nil
		}
	}
	envVars := serverEnv{}
	if err := parseEnv(&envVars); err != nil {
		return err
	}
	if withSession && envPresent("PCTL_SESSION") {
		f.session = envVars.Session
		return nil
	}
	f.address = envVars.Address
	f.token = envVars.Token
	f.username = envVars.Username
	f.password = envVars.Password
	return nil
}

// credentials validates the combination of server flags and turns it into engine credentials.
func (f *serverFlags) credentials(cmd *cobra.Command, opts *Options) (engine.Credentials, error) {
	hasSession := strings.TrimSpace(f.session) != ""
	hasAddress := strings.TrimSpace(f.address) != ""
	hasToken := f.token != ""
	hasUser := f.username != ""

	switch {
	case hasSession && (hasAddress || hasToken || hasUser || f.password != ""):
		return engine.Credentials{}, fmt.Errorf("--session cannot be combined with --host, --token, --username or --password")
	case hasSession:
		return engine.FromSession(f.session), nil
	case !hasAddress:
		return engine.Credentials{}, fmt.Errorf("either --session or --host is required")
	case hasToken && (hasUser || f.password != ""):
		return engine.Credentials{}, fmt.Errorf("--token cannot be combined with --username or --password")
	case hasToken:
		return engine.WithToken(f.address, f.token), nil
	case !hasUser:
		return engine.Credentials{}, fmt.Errorf("--host needs either --token or --username")
	}

	password := f.password
	if password == "" {
		p, err := opts.promptPassword(cmd, fmt.Sprintf("Password for %s@%s: ", f.username, f.address))
		if err != nil {
			return engine.Credentials{}, err
		}
		password = p
	}
	return engine.WithPassword(f.address, f.username, password), nil
}

func (o *Options) promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	if o.readPassword != nil {
		return o.readPassword(prompt)
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
