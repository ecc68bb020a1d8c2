package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hnaderi/pctl/internal/engine"
	"github.com/hnaderi/pctl/internal/ghoutput"
)

// newDestroyCommand creates the "destroy" subcommand that deletes stacks, configs and secrets.
func newDestroyCommand(opts *Options) *cobra.Command {
	var (
		server   serverFlags
		endpoint endpointFlags
		yes      bool
		stacks   []string
		configs  []string
		secrets  []string
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete stacks, then configs, then secrets from one endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			if err := server.applyEnv(cmd, true); err != nil {
				return err
			}
			sel, err := endpoint.selector(cmd)
			if err != nil {
				return err
			}
			req := engine.DestroyRequest{Stacks: stacks, Configs: configs, Secrets: secrets}
			if err := req.Validate(); err != nil {
				return err
			}
			creds, err := server.credentials(cmd, opts)
			if err != nil {
				return err
			}

			plan, outcome, err := runPlan(cmd, opts, creds, sel, yes, func(ep *engine.Endpoint) (*engine.Plan, error) {
				return ep.BuildDestroy(cmd.Context(), req)
			})
			if err != nil {
				return err
			}
			if !outcome.Applied {
				return nil
			}

			d := plan.Destroy
			logger.Info("destroy finished", "endpoint_id", plan.EndpointID, "stacks", len(d.Stacks), "configs", len(d.Configs), "secrets", len(d.Secrets))
			return ghoutput.Write(map[string]string{
				"endpoint_id":     strconv.Itoa(plan.EndpointID),
				"deleted_stacks":  joinStackNames(d.Stacks),
				"deleted_configs": joinObjectNames(d.Configs),
				"deleted_secrets": joinObjectNames(d.Secrets),
			})
		},
	}

	server.bind(cmd, true)
	endpoint.bind(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not prompt for confirmation")
	cmd.Flags().StringArrayVarP(&stacks, "stack", "s", nil, "Stack name to delete; repeatable")
	cmd.Flags().StringArrayVar(&configs, "config", nil, "Config name to delete; repeatable")
	cmd.Flags().StringArrayVar(&secrets, "secret", nil, "Secret name to delete; repeatable")

	return cmd
}

func joinStackNames(refs []engine.StackRef) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return strings.Join(names, ",")
}

func joinObjectNames(refs []engine.ObjectRef) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return strings.Join(names, ",")
}
