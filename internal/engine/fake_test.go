package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hnaderi/pctl/internal/portainer"
	"github.com/hnaderi/pctl/internal/session"
)

// fakeTransport answers requests from routes keyed by "METHOD /path" and records every call.
// A route value that is an error is returned as the failure; anything else is marshalled.
// Unrouted requests answer JSON null.
type fakeTransport struct {
	mu     sync.Mutex
	routes map[string]any
	calls  []portainer.Request
}

func newFakeTransport(routes map[string]any) *fakeTransport {
	if routes == nil {
		routes = map[string]any{}
	}
	return &fakeTransport{routes: routes}
}

func (f *fakeTransport) Send(_ context.Context, req portainer.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)
	resp, ok := f.routes[req.Method+" "+req.Path]
	if !ok {
		return json.RawMessage("null"), nil
	}
	if err, isErr := resp.(error); isErr {
		return nil, err
	}
	return json.Marshal(resp)
}

// keys returns "METHOD /path" of every recorded call in order.
func (f *fakeTransport) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

func (f *fakeTransport) last() portainer.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

type factoryCall struct {
	address    string
	credential portainer.Credential
}

// recordingFactory hands out ft for every address and records what was bound.
type recordingFactory struct {
	ft    *fakeTransport
	calls []factoryCall
}

func (r *recordingFactory) build(address string, credential portainer.Credential) (portainer.Transport, error) {
	r.calls = append(r.calls, factoryCall{address: address, credential: credential})
	return r.ft, nil
}

type memStore struct {
	data    map[string]session.Data
	saves   int
	getErr  error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]session.Data{}}
}

func (m *memStore) Get(name string) (session.Data, error) {
	if m.getErr != nil {
		return session.Data{}, m.getErr
	}
	d, ok := m.data[name]
	if !ok {
		return session.Data{}, session.ErrNotFound
	}
	return d, nil
}

func (m *memStore) Save(name string, data session.Data) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[name] = data
	return nil
}

func (m *memStore) Remove(name string) error {
	delete(m.data, name)
	return nil
}

func tokenSession(ft *fakeTransport) *Session {
	return NewSession("https://portainer.test", portainer.APIToken("ptr_token"), ft, nil)
}
