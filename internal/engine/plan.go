package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hnaderi/pctl/internal/env"
	"github.com/hnaderi/pctl/internal/portainer"
)

// PlanKind discriminates Plan.
type PlanKind int

const (
	// PlanDeploy creates or updates one stack.
	PlanDeploy PlanKind = iota + 1
	// PlanDestroy deletes stacks, configs and secrets.
	PlanDestroy
)

func (k PlanKind) String() string {
	switch k {
	case PlanDeploy:
		return "deploy"
	case PlanDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// StackDisposition tells whether a deploy creates a new stack or updates an existing one.
type StackDisposition int

const (
	// StackCreate creates a new swarm stack.
	StackCreate StackDisposition = iota + 1
	// StackUpdate updates an existing stack and prunes removed services.
	StackUpdate
)

func (d StackDisposition) String() string {
	switch d {
	case StackCreate:
		return "create"
	case StackUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// StackAction is the stack operation of a deploy.
type StackAction struct {
	Disposition StackDisposition
	// Name is the stack name.
	Name string
	// SwarmID scopes a created stack.
	SwarmID string
	// StackID is the existing stack for StackUpdate.
	StackID int
}

// FileMapping binds a config or secret name to a local file.
type FileMapping struct {
	Name string
	Path string
}

// DeployRequest is the input of a deploy plan.
type DeployRequest struct {
	StackName   string
	ComposePath string
	// Env is merged at execute time; later pairs win.
	Env     env.Pairs
	Configs []FileMapping
	Secrets []FileMapping
}

// Validate checks required fields and duplicate names.
func (r DeployRequest) Validate() error {
	if strings.TrimSpace(r.StackName) == "" {
		return fmt.Errorf("stack name is required")
	}
	if strings.TrimSpace(r.ComposePath) == "" {
		return fmt.Errorf("compose file is required")
	}
	if err := validateMappings("config", r.Configs); err != nil {
		return err
	}
	return validateMappings("secret", r.Secrets)
}

func validateMappings(role string, mappings []FileMapping) error {
	seen := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		if m.Name == "" || m.Path == "" {
			return fmt.Errorf("%s mapping needs a name and a path", role)
		}
		if _, ok := seen[m.Name]; ok {
			return fmt.Errorf("%s %q given more than once", role, m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}

// DeployPlan holds what a deploy will do. Files are read only when it executes.
type DeployPlan struct {
	Stack       StackAction
	ComposePath string
	Env         env.Pairs
	Configs     []FileMapping
	Secrets     []FileMapping
}

// DestroyRequest is the input of a destroy plan.
type DestroyRequest struct {
	Stacks  []string
	Configs []string
	Secrets []string
}

// Validate checks that at least one name was requested.
func (r DestroyRequest) Validate() error {
	if len(r.Stacks)+len(r.Configs)+len(r.Secrets) == 0 {
		return fmt.Errorf("nothing to destroy: give at least one stack, config or secret")
	}
	return nil
}

// StackRef identifies a stack on the server.
type StackRef struct {
	ID   int
	Name string
}

// ObjectRef identifies a swarm config or secret on the server.
type ObjectRef struct {
	ID   string
	Name string
}

// Missing lists requested names that matched nothing on the server.
type Missing struct {
	Stacks  []string
	Configs []string
	Secrets []string
}

// Empty reports whether every requested name matched.
func (m Missing) Empty() bool {
	return len(m.Stacks)+len(m.Configs)+len(m.Secrets) == 0
}

// DestroyPlan holds the entities resolved at build time. They are not re-resolved on execute.
type DestroyPlan struct {
	Stacks  []StackRef
	Configs []ObjectRef
	Secrets []ObjectRef
	Missing Missing
}

// Empty reports whether the plan deletes nothing.
func (p *DestroyPlan) Empty() bool {
	return len(p.Stacks)+len(p.Configs)+len(p.Secrets) == 0
}

// Plan is a built deploy or destroy plan bound to one endpoint. Exactly one of
// Deploy and Destroy is set, according to Kind.
type Plan struct {
	Kind       PlanKind
	EndpointID int
	Deploy     *DeployPlan
	Destroy    *DestroyPlan

	client   *portainer.Client
	logger   *slog.Logger
	consumed bool
}

// BuildDeploy consumes e and decides whether req creates or updates its stack.
func (e *Endpoint) BuildDeploy(ctx context.Context, req DeployRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	client, err := e.take()
	if err != nil {
		return nil, err
	}

	swarmID, err := e.SwarmID(ctx)
	if err != nil {
		return nil, err
	}
	stacks, err := client.ListStacks(ctx, portainer.StackFilter{EndpointID: e.id, SwarmID: swarmID})
	if err != nil {
		return nil, fmt.Errorf("list stacks: %w", err)
	}

	action := StackAction{Disposition: StackCreate, Name: req.StackName, SwarmID: swarmID}
	var matches int
	for _, s := range stacks {
		if s.Name != req.StackName {
			continue
		}
		if matches == 0 {
			action = StackAction{Disposition: StackUpdate, Name: s.Name, SwarmID: swarmID, StackID: s.ID}
		}
		matches++
	}
	if matches > 1 {
		e.logger.Warn("several stacks share the name, updating the first", "stack", req.StackName, "stack_id", action.StackID, "count", matches)
	}

	plan := &Plan{
		Kind:       PlanDeploy,
		EndpointID: e.id,
		Deploy: &DeployPlan{
			Stack:       action,
			ComposePath: req.ComposePath,
			Env:         append(env.Pairs(nil), req.Env...),
			Configs:     append([]FileMapping(nil), req.Configs...),
			Secrets:     append([]FileMapping(nil), req.Secrets...),
		},
		client: client,
		logger: e.logger,
	}
	e.logger.Info("deploy plan built", "stack", action.Name, "action", action.Disposition.String(), "endpoint_id", e.id)
	return plan, nil
}

// BuildDestroy consumes e and resolves the requested names against live server state.
// Names that match nothing are recorded in DestroyPlan.Missing, not reported as errors.
func (e *Endpoint) BuildDestroy(ctx context.Context, req DestroyRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	client, err := e.take()
	if err != nil {
		return nil, err
	}

	out := &DestroyPlan{}

	if len(req.Stacks) > 0 {
		stacks, err := client.ListStacks(ctx, portainer.StackFilter{EndpointID: e.id})
		if err != nil {
			return nil, fmt.Errorf("list stacks: %w", err)
		}
		wanted := nameSet(req.Stacks)
		for _, s := range stacks {
			if _, ok := wanted[s.Name]; ok {
				out.Stacks = append(out.Stacks, StackRef{ID: s.ID, Name: s.Name})
			}
		}
		out.Missing.Stacks = unmatched(req.Stacks, stackNames(out.Stacks))
	}

	if len(req.Configs) > 0 {
		configs, err := client.ListConfigs(ctx, e.id, req.Configs)
		if err != nil {
			return nil, fmt.Errorf("list configs: %w", err)
		}
		wanted := nameSet(req.Configs)
		for _, c := range configs {
			if _, ok := wanted[c.Spec.Name]; ok {
				out.Configs = append(out.Configs, ObjectRef{ID: c.ID, Name: c.Spec.Name})
			}
		}
		out.Missing.Configs = unmatched(req.Configs, objectNames(out.Configs))
	}

	if len(req.Secrets) > 0 {
		secrets, err := client.ListSecrets(ctx, e.id, req.Secrets)
		if err != nil {
			return nil, fmt.Errorf("list secrets: %w", err)
		}
		wanted := nameSet(req.Secrets)
		for _, s := range secrets {
			if _, ok := wanted[s.Spec.Name]; ok {
				out.Secrets = append(out.Secrets, ObjectRef{ID: s.ID, Name: s.Spec.Name})
			}
		}
		out.Missing.Secrets = unmatched(req.Secrets, objectNames(out.Secrets))
	}

	if !out.Missing.Empty() {
		e.logger.Warn("requested names not found on endpoint",
			"endpoint_id", e.id,
			"stacks", out.Missing.Stacks,
			"configs", out.Missing.Configs,
			"secrets", out.Missing.Secrets,
		)
	}
	e.logger.Info("destroy plan built",
		"endpoint_id", e.id,
		"stacks", len(out.Stacks),
		"configs", len(out.Configs),
		"secrets", len(out.Secrets),
	)
	return &Plan{Kind: PlanDestroy, EndpointID: e.id, Destroy: out, client: client, logger: e.logger}, nil
}

func nameSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// unmatched returns the requested names absent from found, in request order.
func unmatched(requested, found []string) []string {
	have := nameSet(found)
	seen := make(map[string]struct{}, len(requested))
	var out []string
	for _, n := range requested {
		if _, ok := have[n]; ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func stackNames(refs []StackRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}

func objectNames(refs []ObjectRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}
