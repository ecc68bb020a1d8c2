package portainer

import "sort"

// Field names below follow the control plane's REST schema; they are a
// compatibility contract and must not be renamed.

// Endpoint is a registered Docker environment.
type Endpoint struct {
	// ID is the numeric endpoint identifier.
	ID int `json:"Id"`
	// Name is the display name, unique per installation.
	Name string `json:"Name"`
	// Type is the endpoint kind (Docker, agent, edge agent, ...).
	Type int `json:"Type"`
	// URL is the engine address as registered.
	URL string `json:"URL,omitempty"`
	// TagIDs lists tags attached to the endpoint.
	TagIDs []int `json:"TagIds"`
}

// Tag labels endpoints. Endpoints maps endpoint ids to whether the tag applies to them.
type Tag struct {
	ID        int          `json:"ID"`
	Name      string       `json:"Name"`
	Endpoints map[int]bool `json:"Endpoints"`
}

// EndpointIDs returns the sorted ids of endpoints the tag currently applies to.
func (t Tag) EndpointIDs() []int {
	out := make([]int, 0, len(t.Endpoints))
	for id, applied := range t.Endpoints {
		if applied {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// Stack is a deployed compose bundle.
type Stack struct {
	ID         int       `json:"Id"`
	Name       string    `json:"Name"`
	Type       int       `json:"Type"`
	EndpointID int       `json:"EndpointId"`
	SwarmID    string    `json:"SwarmId"`
	Env        []EnvPair `json:"Env,omitempty"`
}

// EnvPair is a stack environment variable.
type EnvPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StackFilter narrows stack listings.
type StackFilter struct {
	EndpointID int    `json:"EndpointID,omitempty"`
	SwarmID    string `json:"SwarmID,omitempty"`
}

// EndpointFilter narrows endpoint listings. Zero value lists all endpoints.
type EndpointFilter struct {
	// Name selects endpoints with this exact name.
	Name string
	// TagIDs selects endpoints carrying all of these tags.
	TagIDs []int
}

// CreateSwarmStackRequest is the body for creating a swarm stack from file content.
type CreateSwarmStackRequest struct {
	Name             string    `json:"name"`
	SwarmID          string    `json:"swarmID"`
	StackFileContent string    `json:"stackFileContent"`
	Env              []EnvPair `json:"env"`
}

// UpdateStackRequest is the body for updating an existing stack.
type UpdateStackRequest struct {
	StackFileContent string    `json:"stackFileContent"`
	Env              []EnvPair `json:"env"`
	Prune            bool      `json:"prune"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	JWT string `json:"jwt"`
}

type createResponse struct {
	ID string `json:"ID"`
}
