package portainer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/swarm"
)

// Client issues typed control-plane calls over a Transport.
type Client struct {
	transport Transport
}

// NewClient wraps transport.
func NewClient(transport Transport) *Client {
	return &Client{transport: transport}
}

// Transport returns the underlying transport.
func (c *Client) Transport() Transport {
	return c.transport
}

// expect sends req and decodes the response into T.
func expect[T any](ctx context.Context, t Transport, req Request) (T, error) {
	var out T
	raw, err := t.Send(ctx, req)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &DecodeError{Method: req.Method, Path: req.Path, Err: err}
	}
	return out, nil
}

// Login exchanges username and password for a JWT.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := Post("/api/auth", loginRequest{Username: username, Password: password})
	resp, err := expect[loginResponse](ctx, c.transport, req)
	if err != nil {
		return "", err
	}
	if resp.JWT == "" {
		return "", &DecodeError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("response carries no jwt")}
	}
	return resp.JWT, nil
}

// ListEndpoints lists endpoints matching filter.
func (c *Client) ListEndpoints(ctx context.Context, filter EndpointFilter) ([]Endpoint, error) {
	req := Get("/api/endpoints")
	if filter.Name != "" {
		req = req.WithQuery("name", filter.Name)
	}
	if len(filter.TagIDs) > 0 {
		for _, id := range filter.TagIDs {
			req = req.WithQuery("tagIds", strconv.Itoa(id))
		}
		req = req.WithQuery("tagsPartialMatch", "false")
	}
	return expect[[]Endpoint](ctx, c.transport, req)
}

// ListTags lists all tags with their endpoint membership.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	return expect[[]Tag](ctx, c.transport, Get("/api/tags"))
}

// SwarmID returns the swarm cluster id of a Docker endpoint.
func (c *Client) SwarmID(ctx context.Context, endpointID int) (string, error) {
	req := Get(dockerPath(endpointID, "/swarm"))
	info, err := expect[swarm.Swarm](ctx, c.transport, req)
	if err != nil {
		return "", err
	}
	if info.ID == "" {
		return "", &DecodeError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("endpoint %d is not part of a swarm", endpointID)}
	}
	return info.ID, nil
}

// ListStacks lists stacks matching filter.
func (c *Client) ListStacks(ctx context.Context, filter StackFilter) ([]Stack, error) {
	req := Get("/api/stacks")
	if filter != (StackFilter{}) {
		payload, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encode stack filter: %w", err)
		}
		req = req.WithQuery("filters", string(payload))
	}
	return expect[[]Stack](ctx, c.transport, req)
}

// CreateSwarmStack creates a swarm stack on endpointID.
func (c *Client) CreateSwarmStack(ctx context.Context, endpointID int, body CreateSwarmStackRequest) (*Stack, error) {
	req := Post("/api/stacks/create/swarm/string", body).WithQuery("endpointId", strconv.Itoa(endpointID))
	stack, err := expect[Stack](ctx, c.transport, req)
	if err != nil {
		return nil, err
	}
	return &stack, nil
}

// UpdateStack replaces the compose content and env of stackID.
func (c *Client) UpdateStack(ctx context.Context, stackID, endpointID int, body UpdateStackRequest) (*Stack, error) {
	req := Put("/api/stacks/"+strconv.Itoa(stackID), body).WithQuery("endpointId", strconv.Itoa(endpointID))
	stack, err := expect[Stack](ctx, c.transport, req)
	if err != nil {
		return nil, err
	}
	return &stack, nil
}

// DeleteStack removes stackID from endpointID.
func (c *Client) DeleteStack(ctx context.Context, stackID, endpointID int) error {
	req := Delete("/api/stacks/"+strconv.Itoa(stackID)).WithQuery("endpointId", strconv.Itoa(endpointID))
	_, err := c.transport.Send(ctx, req)
	return err
}

// ListConfigs lists swarm configs whose names match the docker name filter.
// The filter is a prefix match; callers needing exact names must re-check.
func (c *Client) ListConfigs(ctx context.Context, endpointID int, names []string) ([]swarm.Config, error) {
	req, err := withNameFilter(Get(dockerPath(endpointID, "/configs")), names)
	if err != nil {
		return nil, err
	}
	return expect[[]swarm.Config](ctx, c.transport, req)
}

// CreateConfig creates a swarm config and returns its id.
func (c *Client) CreateConfig(ctx context.Context, endpointID int, name string, data []byte) (string, error) {
	spec := swarm.ConfigSpec{Annotations: swarm.Annotations{Name: name}, Data: data}
	resp, err := expect[createResponse](ctx, c.transport, Post(dockerPath(endpointID, "/configs/create"), spec))
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteConfig removes a swarm config by id.
func (c *Client) DeleteConfig(ctx context.Context, endpointID int, id string) error {
	_, err := c.transport.Send(ctx, Delete(dockerPath(endpointID, "/configs/"+url.PathEscape(id))))
	return err
}

// ListSecrets lists swarm secrets whose names match the docker name filter.
func (c *Client) ListSecrets(ctx context.Context, endpointID int, names []string) ([]swarm.Secret, error) {
	req, err := withNameFilter(Get(dockerPath(endpointID, "/secrets")), names)
	if err != nil {
		return nil, err
	}
	return expect[[]swarm.Secret](ctx, c.transport, req)
}

// CreateSecret creates a swarm secret and returns its id.
func (c *Client) CreateSecret(ctx context.Context, endpointID int, name string, data []byte) (string, error) {
	spec := swarm.SecretSpec{Annotations: swarm.Annotations{Name: name}, Data: data}
	resp, err := expect[createResponse](ctx, c.transport, Post(dockerPath(endpointID, "/secrets/create"), spec))
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteSecret removes a swarm secret by id.
func (c *Client) DeleteSecret(ctx context.Context, endpointID int, id string) error {
	_, err := c.transport.Send(ctx, Delete(dockerPath(endpointID, "/secrets/"+url.PathEscape(id))))
	return err
}

// dockerPath builds a path proxied to the endpoint's Docker API.
func dockerPath(endpointID int, suffix string) string {
	return "/api/endpoints/" + strconv.Itoa(endpointID) + "/docker" + suffix
}

func withNameFilter(req Request, names []string) (Request, error) {
	if len(names) == 0 {
		return req, nil
	}
	args := filters.NewArgs()
	for _, name := range names {
		args.Add("name", name)
	}
	encoded, err := filters.ToJSON(args)
	if err != nil {
		return req, fmt.Errorf("encode name filter: %w", err)
	}
	return req.WithQuery("filters", encoded), nil
}
