package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

const (
	goodPassword = "pw"
	goodJWT      = "jwt-1"
	goodToken    = "ptr_ok"
)

// fakePortainer emulates the control-plane routes pctl uses and records mutating calls.
type fakePortainer struct {
	mu      sync.Mutex
	calls   []string
	bodies  map[string]map[string]any
	stacks  []map[string]any
	configs []map[string]any
	secrets []map[string]any
	tags    []map[string]any
}

func newFakePortainer(t *testing.T) (*fakePortainer, *httptest.Server) {
	t.Helper()
	f := &fakePortainer{
		bodies: map[string]map[string]any{},
		stacks: []map[string]any{
			{"Id": 5, "Name": "api", "EndpointId": 7, "SwarmId": "swarm-1"},
			{"Id": 6, "Name": "worker", "EndpointId": 7, "SwarmId": "swarm-1"},
		},
		configs: []map[string]any{
			{"ID": "cfg-a", "Spec": map[string]any{"Name": "app.conf"}},
			{"ID": "cfg-b", "Spec": map[string]any{"Name": "app.conf.bak"}},
		},
		secrets: []map[string]any{
			{"ID": "sec-a", "Spec": map[string]any{"Name": "db.pass"}},
		},
		tags: []map[string]any{
			{"ID": 1, "Name": "prod", "Endpoints": map[string]bool{"1": true, "2": true, "7": true}},
			{"ID": 2, "Name": "eu", "Endpoints": map[string]bool{"2": true, "7": true}},
			{"ID": 3, "Name": "swarm", "Endpoints": map[string]bool{"7": true, "2": false}},
		},
	}

	r := chi.NewRouter()
	r.Post("/api/auth", f.login)
	r.Group(func(r chi.Router) {
		r.Use(f.requireAuth)
		r.Get("/api/endpoints", f.listEndpoints)
		r.Get("/api/tags", f.reply(func() any { return f.tags }))
		r.Get("/api/endpoints/{id}/docker/swarm", f.reply(func() any { return map[string]string{"ID": "swarm-1"} }))
		r.Get("/api/stacks", f.reply(func() any { return f.stacks }))
		r.Post("/api/stacks/create/swarm/string", f.record(map[string]any{"Id": 9, "Name": "web"}))
		r.Put("/api/stacks/{id}", f.record(map[string]any{"Id": 5, "Name": "api"}))
		r.Delete("/api/stacks/{id}", f.record(nil))
		r.Get("/api/endpoints/{id}/docker/configs", f.reply(func() any { return f.configs }))
		r.Post("/api/endpoints/{id}/docker/configs/create", f.record(map[string]string{"ID": "cfg-new"}))
		r.Delete("/api/endpoints/{id}/docker/configs/{cid}", f.record(nil))
		r.Get("/api/endpoints/{id}/docker/secrets", f.reply(func() any { return f.secrets }))
		r.Post("/api/endpoints/{id}/docker/secrets/create", f.record(map[string]string{"ID": "sec-new"}))
		r.Delete("/api/endpoints/{id}/docker/secrets/{sid}", f.record(nil))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakePortainer) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Password != goodPassword {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
		return
	}
	writeJSON(w, map[string]string{"jwt": goodJWT})
}

func (f *fakePortainer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != goodToken && r.Header.Get("Authorization") != "Bearer "+goodJWT {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakePortainer) listEndpoints(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("name") == "prod-swarm" {
		writeJSON(w, []map[string]any{{"Id": 7, "Name": "prod-swarm", "Type": 2}})
		return
	}
	writeJSON(w, []map[string]any{})
}

func (f *fakePortainer) reply(value func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, value())
	}
}

func (f *fakePortainer) record(resp any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.bodies[key] = body
		f.mu.Unlock()

		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, resp)
	}
}

func (f *fakePortainer) mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakePortainer) body(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
