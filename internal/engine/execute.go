package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hnaderi/pctl/internal/env"
	"github.com/hnaderi/pctl/internal/logging"
	"github.com/hnaderi/pctl/internal/portainer"
)

const confirmPrompt = "Apply these changes? [yes/no]: "

// Outcome reports what Execute did.
type Outcome struct {
	// Applied is false when the operator declined or there was nothing to do.
	Applied bool
	// StackID is the created or updated stack of a deploy.
	StackID int
}

// Executor applies plans, asking for confirmation on in/out unless told otherwise.
type Executor struct {
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
}

// NewExecutor returns an Executor reading answers from in and writing previews to out.
func NewExecutor(in io.Reader, out io.Writer, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	if in == nil {
		in = strings.NewReader("")
	}
	if out == nil {
		out = io.Discard
	}
	return &Executor{in: bufio.NewReader(in), out: out, logger: logger}
}

// Execute consumes plan and applies it. Without confirmed, the plan is previewed and
// the operator must answer yes or no; no returns nil without touching the server.
// The first failing step aborts the rest; applied steps are not rolled back.
func (x *Executor) Execute(ctx context.Context, plan *Plan, confirmed bool) (Outcome, error) {
	if plan.consumed {
		return Outcome{}, ErrHandleConsumed
	}
	plan.consumed = true

	if plan.Kind == PlanDestroy && plan.Destroy.Empty() {
		if err := plan.Preview(x.out); err != nil {
			return Outcome{}, fmt.Errorf("write preview: %w", err)
		}
		x.logger.Info("nothing to destroy", "endpoint_id", plan.EndpointID)
		return Outcome{}, nil
	}

	if !confirmed {
		if err := plan.Preview(x.out); err != nil {
			return Outcome{}, fmt.Errorf("write preview: %w", err)
		}
		ok, err := x.confirm()
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			x.logger.Info("aborted by operator", "plan", plan.Kind.String())
			return Outcome{}, nil
		}
	}

	switch plan.Kind {
	case PlanDeploy:
		id, err := x.deploy(ctx, plan)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Applied: true, StackID: id}, nil
	case PlanDestroy:
		if err := x.destroy(ctx, plan); err != nil {
			return Outcome{}, err
		}
		return Outcome{Applied: true}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown plan kind %d", plan.Kind)
	}
}

// confirm reads lines until one is yes or no, case-insensitively.
func (x *Executor) confirm() (bool, error) {
	for {
		if _, err := io.WriteString(x.out, confirmPrompt); err != nil {
			return false, fmt.Errorf("write prompt: %w", err)
		}
		line, err := x.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, ErrNoAnswer
			}
			return false, fmt.Errorf("read confirmation: %w", err)
		}
		if answer != "" {
			fmt.Fprintf(x.out, "Please answer yes or no.\n")
		}
	}
}

func (x *Executor) deploy(ctx context.Context, plan *Plan) (int, error) {
	d := plan.Deploy
	client := plan.client

	compose, err := os.ReadFile(d.ComposePath)
	if err != nil {
		return 0, &LocalFileError{Role: "compose", Path: d.ComposePath, Err: err}
	}

	for _, c := range d.Configs {
		data, err := os.ReadFile(c.Path)
		if err != nil {
			return 0, &LocalFileError{Role: "config", Path: c.Path, Err: err}
		}
		id, err := client.CreateConfig(ctx, plan.EndpointID, c.Name, data)
		if err != nil {
			return 0, fmt.Errorf("create config %q: %w", c.Name, err)
		}
		x.logger.Info("config created", "name", c.Name, "id", id)
	}

	for _, s := range d.Secrets {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return 0, &LocalFileError{Role: "secret", Path: s.Path, Err: err}
		}
		id, err := client.CreateSecret(ctx, plan.EndpointID, s.Name, data)
		if err != nil {
			return 0, fmt.Errorf("create secret %q: %w", s.Name, err)
		}
		x.logger.Info("secret created", "name", s.Name, "id", id)
	}

	vars := stackEnv(env.Merge(d.Env))

	switch d.Stack.Disposition {
	case StackCreate:
		stack, err := client.CreateSwarmStack(ctx, plan.EndpointID, portainer.CreateSwarmStackRequest{
			Name:             d.Stack.Name,
			SwarmID:          d.Stack.SwarmID,
			StackFileContent: string(compose),
			Env:              vars,
		})
		if err != nil {
			return 0, fmt.Errorf("create stack %q: %w", d.Stack.Name, err)
		}
		x.logger.Info("stack created", "stack", d.Stack.Name, "stack_id", stack.ID)
		return stack.ID, nil
	case StackUpdate:
		if _, err := client.UpdateStack(ctx, d.Stack.StackID, plan.EndpointID, portainer.UpdateStackRequest{
			StackFileContent: string(compose),
			Env:              vars,
			Prune:            true,
		}); err != nil {
			return 0, fmt.Errorf("update stack %q: %w", d.Stack.Name, err)
		}
		x.logger.Info("stack updated", "stack", d.Stack.Name, "stack_id", d.Stack.StackID)
		return d.Stack.StackID, nil
	default:
		return 0, fmt.Errorf("unknown stack disposition %d", d.Stack.Disposition)
	}
}

// destroy deletes stacks before the configs and secrets they may reference.
func (x *Executor) destroy(ctx context.Context, plan *Plan) error {
	d := plan.Destroy
	client := plan.client

	for _, s := range d.Stacks {
		if err := client.DeleteStack(ctx, s.ID, plan.EndpointID); err != nil {
			return fmt.Errorf("delete stack %q: %w", s.Name, err)
		}
		x.logger.Info("stack deleted", "stack", s.Name, "stack_id", s.ID)
	}
	for _, c := range d.Configs {
		if err := client.DeleteConfig(ctx, plan.EndpointID, c.ID); err != nil {
			return fmt.Errorf("delete config %q: %w", c.Name, err)
		}
		x.logger.Info("config deleted", "name", c.Name, "id", c.ID)
	}
	for _, s := range d.Secrets {
		if err := client.DeleteSecret(ctx, plan.EndpointID, s.ID); err != nil {
			return fmt.Errorf("delete secret %q: %w", s.Name, err)
		}
		x.logger.Info("secret deleted", "name", s.Name, "id", s.ID)
	}
	return nil
}

func stackEnv(pairs env.Pairs) []portainer.EnvPair {
	out := make([]portainer.EnvPair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, portainer.EnvPair{Name: p.Key, Value: p.Value})
	}
	return out
}
