package cli

import (
	"github.com/spf13/cobra"

	"github.com/hnaderi/pctl/internal/engine"
)

// planBuilder turns a resolved endpoint into a plan.
type planBuilder func(ep *engine.Endpoint) (*engine.Plan, error)

// runPlan authenticates, resolves the endpoint, builds the plan and executes it.
func runPlan(cmd *cobra.Command, opts *Options, creds engine.Credentials, sel engine.Selector, confirmed bool, build planBuilder) (*engine.Plan, engine.Outcome, error) {
	ctx := cmd.Context()
	logger := LoggerFromContext(ctx)

	auth := engine.NewAuthenticator(opts.transportFactory(logger), opts.sessionStore(), logger)
	sess, err := auth.Authenticate(ctx, creds)
	if err != nil {
		return nil, engine.Outcome{}, err
	}

	ep, err := sess.Endpoint(ctx, sel)
	if err != nil {
		return nil, engine.Outcome{}, err
	}

	plan, err := build(ep)
	if err != nil {
		return nil, engine.Outcome{}, err
	}

	in, out := commandIO(cmd)
	outcome, err := engine.NewExecutor(in, out, logger).Execute(ctx, plan, confirmed)
	if err != nil {
		return plan, engine.Outcome{}, err
	}
	return plan, outcome, nil
}
