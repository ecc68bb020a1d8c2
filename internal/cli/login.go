package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hnaderi/pctl/internal/engine"
	"github.com/hnaderi/pctl/internal/session"
)

// newLoginCommand creates the "login" subcommand that authenticates and saves a named session.
func newLoginCommand(opts *Options) *cobra.Command {
	var server serverFlags

	cmd := &cobra.Command{
		Use:   "login NAME",
		Short: "Log in to a Portainer server and save the session under NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := LoggerFromContext(ctx)
			name := args[0]

			if err := session.ValidateName(name); err != nil {
				return err
			}
			if err := server.applyEnv(cmd, false); err != nil {
				return err
			}
			creds, err := server.credentials(cmd, opts)
			if err != nil {
				return err
			}

			store := opts.sessionStore()
			sess, err := engine.NewAuthenticator(opts.transportFactory(logger), store, logger).Authenticate(ctx, creds)
			if err != nil {
				return err
			}
			if err := sess.Save(store, name); err != nil {
				return err
			}

			_, out := commandIO(cmd)
			fmt.Fprintf(out, "Saved session %s for %s\n", name, sess.Address())
			return nil
		},
	}

	server.bind(cmd, false)

	return cmd
}
