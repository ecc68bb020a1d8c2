package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hnaderi/pctl/internal/engine"
)

// newLogoutCommand creates the "logout" subcommand that forgets a saved session.
func newLogoutCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout NAME",
		Short: "Remove a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())
			name := args[0]

			if err := opts.sessionStore().Remove(name); err != nil {
				return &engine.PersistError{Op: "remove", Name: name, Err: err}
			}
			logger.Info("session removed", "session", name)
			return nil
		},
	}
}

// newSessionsCommand creates the "sessions" subcommand that lists saved sessions.
func newSessionsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := opts.sessionStore().List()
			if err != nil {
				return &engine.PersistError{Op: "list", Name: "*", Err: err}
			}
			_, out := commandIO(cmd)
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\n", e.Name, e.Data.Address, e.Data.Credential.Kind)
			}
			return nil
		},
	}
}
