package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hnaderi/pctl/internal/engine"
	"github.com/hnaderi/pctl/internal/env"
	"github.com/hnaderi/pctl/internal/ghoutput"
)

// newDeployCommand creates the "deploy" subcommand that creates or updates a stack.
func newDeployCommand(opts *Options) *cobra.Command {
	var (
		server   serverFlags
		endpoint endpointFlags
		compose  string
		stack    string
		yes      bool
		vars     []string
		envFiles []string
		configs  []string
		secrets  []string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update a swarm stack with its configs and secrets",
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

			filePairs, err := env.LoadEnvFiles(envFiles)
			if err != nil {
				return err
			}
			inlinePairs, err := env.ParseInlineVars(vars)
			if err != nil {
				return err
			}
			configMappings, err := parseMappings("config", configs)
			if err != nil {
				return err
			}
			secretMappings, err := parseMappings("secret", secrets)
			if err != nil {
				return err
			}

			req := engine.DeployRequest{
				StackName:   stack,
				ComposePath: compose,
				Env:         append(filePairs, inlinePairs...),
				Configs:     configMappings,
				Secrets:     secretMappings,
			}
			if err := req.Validate(); err != nil {
				return err
			}

			creds, err := server.credentials(cmd, opts)
			if err != nil {
				return err
			}

			plan, outcome, err := runPlan(cmd, opts, creds, sel, yes, func(ep *engine.Endpoint) (*engine.Plan, error) {
				return ep.BuildDeploy(cmd.Context(), req)
			})
			if err != nil {
				return err
			}
			if !outcome.Applied {
				return nil
			}

			logger.Info("deploy finished", "stack", stack, "stack_id", outcome.StackID, "endpoint_id", plan.EndpointID)
			return ghoutput.Write(map[string]string{
				"endpoint_id":  strconv.Itoa(plan.EndpointID),
				"stack_name":   stack,
				"stack_id":     strconv.Itoa(outcome.StackID),
				"stack_action": plan.Deploy.Stack.Disposition.String(),
			})
		},
	}

	server.bind(cmd, true)
	endpoint.bind(cmd)
	cmd.Flags().StringVarP(&compose, "compose", "c", "", "Path to the compose file")
	cmd.Flags().StringVarP(&stack, "stack", "s", "", "Stack name")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not prompt for confirmation")
	cmd.Flags().StringArrayVarP(&vars, "env", "e", nil, "Stack variable KEY=VALUE; repeatable, later wins")
	cmd.Flags().StringArrayVar(&envFiles, "env-file", nil, "Path to a .env file; inline --env overrides it")
	cmd.Flags().StringArrayVar(&configs, "config", nil, "Config to create, NAME=PATH; repeatable")
	cmd.Flags().StringArrayVar(&secrets, "secret", nil, "Secret to create, NAME=PATH; repeatable")
	_ = cmd.MarkFlagRequired("compose")
	_ = cmd.MarkFlagRequired("stack")

	return cmd
}

// parseMappings parses NAME=PATH flag values.
func parseMappings(role string, values []string) ([]engine.FileMapping, error) {
	out := make([]engine.FileMapping, 0, len(values))
	for _, raw := range values {
		name, path, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		path = strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid --%s %q, expected NAME=PATH", role, raw)
		}
		out = append(out, engine.FileMapping{Name: name, Path: path})
	}
	return out, nil
}
