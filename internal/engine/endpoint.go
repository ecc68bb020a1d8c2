package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/hnaderi/pctl/internal/portainer"
)

// SelectorKind tells how an endpoint is selected.
type SelectorKind int

const (
	// SelectByID uses a known endpoint id.
	SelectByID SelectorKind = iota + 1
	// SelectByName matches the endpoint name exactly.
	SelectByName
	// SelectByTagIDs matches endpoints carrying all given tag ids.
	SelectByTagIDs
	// SelectByTagNames matches endpoints carrying all tags with the given names.
	SelectByTagNames
)

// Selector picks one endpoint.
type Selector struct {
	Kind     SelectorKind
	ID       int
	Name     string
	TagIDs   []int
	TagNames []string
}

// ByID selects endpoint id without querying the server.
func ByID(id int) Selector { return Selector{Kind: SelectByID, ID: id} }

// ByName selects the endpoint called name.
func ByName(name string) Selector { return Selector{Kind: SelectByName, Name: name} }

// ByTagIDs selects the endpoint carrying all of ids.
func ByTagIDs(ids ...int) Selector { return Selector{Kind: SelectByTagIDs, TagIDs: ids} }

// ByTagNames selects the endpoint carrying all tags named in names.
func ByTagNames(names ...string) Selector { return Selector{Kind: SelectByTagNames, TagNames: names} }

// Validate checks that the selector carries a value for its kind.
func (s Selector) Validate() error {
	switch s.Kind {
	case SelectByID:
		if s.ID <= 0 {
			return fmt.Errorf("endpoint id must be positive, got %d", s.ID)
		}
	case SelectByName:
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("endpoint name is empty")
		}
	case SelectByTagIDs:
		if len(s.TagIDs) == 0 {
			return fmt.Errorf("at least one tag id is required")
		}
	case SelectByTagNames:
		if len(s.TagNames) == 0 {
			return fmt.Errorf("at least one tag name is required")
		}
	default:
		return fmt.Errorf("unknown selector kind %d", s.Kind)
	}
	return nil
}

func (s Selector) String() string {
	switch s.Kind {
	case SelectByID:
		return "id=" + strconv.Itoa(s.ID)
	case SelectByName:
		return strconv.Quote(s.Name)
	case SelectByTagIDs:
		ids := make([]string, 0, len(s.TagIDs))
		for _, id := range s.TagIDs {
			ids = append(ids, strconv.Itoa(id))
		}
		return "tag-ids=" + strings.Join(ids, ",")
	case SelectByTagNames:
		return "tags=" + strings.Join(s.TagNames, ",")
	default:
		return "unknown"
	}
}

// Endpoint is a handle on exactly one resolved endpoint.
type Endpoint struct {
	client   *portainer.Client
	id       int
	swarmID  string
	logger   *slog.Logger
	consumed bool
}

// Endpoint consumes s and resolves sel into exactly one endpoint.
// The session cannot be used afterwards, even when resolution fails.
func (s *Session) Endpoint(ctx context.Context, sel Selector) (*Endpoint, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	client, err := s.take()
	if err != nil {
		return nil, err
	}

	id, err := resolveEndpoint(ctx, client, sel, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Info("endpoint resolved", "selector", sel.String(), "endpoint_id", id)
	return &Endpoint{client: client, id: id, logger: s.logger}, nil
}

func resolveEndpoint(ctx context.Context, client *portainer.Client, sel Selector, logger *slog.Logger) (int, error) {
	var candidates []int
	switch sel.Kind {
	case SelectByID:
		return sel.ID, nil
	case SelectByName:
		endpoints, err := client.ListEndpoints(ctx, portainer.EndpointFilter{Name: sel.Name})
		if err != nil {
			return 0, fmt.Errorf("list endpoints: %w", err)
		}
		candidates = endpointIDs(endpoints)
	case SelectByTagIDs:
		endpoints, err := client.ListEndpoints(ctx, portainer.EndpointFilter{TagIDs: sel.TagIDs})
		if err != nil {
			return 0, fmt.Errorf("list endpoints: %w", err)
		}
		candidates = endpointIDs(endpoints)
	case SelectByTagNames:
		tags, err := client.ListTags(ctx)
		if err != nil {
			return 0, fmt.Errorf("list tags: %w", err)
		}
		candidates, err = intersectTags(tags, sel.TagNames, logger)
		if err != nil {
			return 0, err
		}
	}

	if len(candidates) != 1 {
		return 0, &AmbiguousSelectionError{Selector: sel.String(), Candidates: candidates}
	}
	return candidates[0], nil
}

// intersectTags returns the ids of endpoints carrying every tag whose name was requested.
// Requested names with no tag are ignored unless none matched at all.
func intersectTags(tags []portainer.Tag, names []string, logger *slog.Logger) ([]int, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = false
	}

	var result map[int]struct{}
	for _, tag := range tags {
		if _, ok := wanted[tag.Name]; !ok {
			continue
		}
		wanted[tag.Name] = true

		members := make(map[int]struct{})
		for _, id := range tag.EndpointIDs() {
			if result == nil {
				members[id] = struct{}{}
				continue
			}
			if _, ok := result[id]; ok {
				members[id] = struct{}{}
			}
		}
		result = members
	}

	var missing []string
	for _, n := range names {
		if !wanted[n] {
			missing = append(missing, n)
		}
	}
	if result == nil {
		return nil, &NoMatchingTagsError{Names: missing}
	}
	if len(missing) > 0 {
		logger.Warn("tags not found, ignoring", "tags", missing)
	}

	out := make([]int, 0, len(result))
	for id := range result {
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

func endpointIDs(endpoints []portainer.Endpoint) []int {
	out := make([]int, 0, len(endpoints))
	for _, e := range endpoints {
		out = append(out, e.ID)
	}
	return out
}

// ID returns the resolved endpoint id.
func (e *Endpoint) ID() int { return e.id }

// SwarmID returns the endpoint's swarm id, fetching it on first use.
func (e *Endpoint) SwarmID(ctx context.Context) (string, error) {
	if e.swarmID != "" {
		return e.swarmID, nil
	}
	id, err := e.client.SwarmID(ctx, e.id)
	if err != nil {
		return "", fmt.Errorf("fetch swarm id of endpoint %d: %w", e.id, err)
	}
	e.swarmID = id
	return id, nil
}

func (e *Endpoint) take() (*portainer.Client, error) {
	if e.consumed {
		return nil, ErrHandleConsumed
	}
	e.consumed = true
	return e.client, nil
}
