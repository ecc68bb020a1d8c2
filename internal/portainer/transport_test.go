package portainer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(t *testing.T, handler http.Handler, cred Credential) *HTTPTransport {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tr, err := NewHTTPTransport(server.URL+"/", cred, Options{})
	require.NoError(t, err)
	return tr
}

func TestNewHTTPTransport_ValidatesAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr string
	}{
		{name: "empty", address: "  ", wantErr: "empty"},
		{name: "no scheme", address: "portainer.local:9000", wantErr: "scheme"},
		{name: "ftp", address: "ftp://portainer.local", wantErr: "scheme"},
		{name: "no host", address: "https://", wantErr: "host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPTransport(tt.address, Anonymous(), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	tr, err := NewHTTPTransport("https://portainer.local:9443///", Anonymous(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://portainer.local:9443", tr.BaseURL())
	assert.NotNil(t, tr.logger)
}

func TestHTTPTransport_AuthHeaders(t *testing.T) {
	tests := []struct {
		name       string
		cred       Credential
		wantAPIKey string
		wantAuth   string
	}{
		{name: "anonymous", cred: Anonymous()},
		{name: "api token", cred: APIToken("ptr_abc"), wantAPIKey: "ptr_abc"},
		{name: "bearer", cred: Bearer("jwt-1"), wantAuth: "Bearer jwt-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/api/status", func(w http.ResponseWriter, req *http.Request) {
				assert.Equal(t, tt.wantAPIKey, req.Header.Get("X-API-Key"))
				assert.Equal(t, tt.wantAuth, req.Header.Get("Authorization"))
				assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
				_, _ = w.Write([]byte(`{"Version":"2.21.0"}`))
			})
			tr := newTestTransport(t, r, tt.cred)

			raw, err := tr.Send(context.Background(), Get("/api/status"))
			require.NoError(t, err)
			assert.JSONEq(t, `{"Version":"2.21.0"}`, string(raw))
		})
	}
}

func TestHTTPTransport_SendsJSONBodyAndQuery(t *testing.T) {
	r := chi.NewRouter()
	r.Put("/api/stacks/{id}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "5", chi.URLParam(req, "id"))
		assert.Equal(t, "7", req.URL.Query().Get("endpointId"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

		var body UpdateStackRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "services: {}", body.StackFileContent)
		assert.True(t, body.Prune)
		_, _ = w.Write([]byte(`{"Id":5,"Name":"web"}`))
	})
	tr := newTestTransport(t, r, Anonymous())

	req := Put("/api/stacks/5", UpdateStackRequest{StackFileContent: "services: {}", Prune: true}).WithQuery("endpointId", "7")
	raw, err := tr.Send(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Id":5,"Name":"web"}`, string(raw))
}

func TestHTTPTransport_EmptyBodyIsNull(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/api/stacks/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	tr := newTestTransport(t, r, Anonymous())

	raw, err := tr.Send(context.Background(), Delete("/api/stacks/1"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestHTTPTransport_StatusError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/stacks", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Access denied","details":"Unauthorized"}`))
	})
	r.Get("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})
	tr := newTestTransport(t, r, Anonymous())

	_, err := tr.Send(context.Background(), Get("/api/stacks"))
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
	assert.Contains(t, err.Error(), "Access denied: Unauthorized")

	_, err = tr.Send(context.Background(), Get("/api/tags"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Contains(t, err.Error(), "upstream down")
}

func TestHTTPTransport_MalformedBody(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})
	tr := newTestTransport(t, r, Anonymous())

	_, err := tr.Send(context.Background(), Get("/api/tags"))
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
	assert.False(t, IsTransportError(err))
}

func TestHTTPTransport_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	address := server.URL
	server.Close()

	tr, err := NewHTTPTransport(address, Anonymous(), Options{})
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), Get("/api/tags"))
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Equal(t, 0, StatusOf(err))
}

func TestRequestWithQueryDoesNotAlias(t *testing.T) {
	base := Get("/api/endpoints").WithQuery("tagIds", "1")
	first := base.WithQuery("tagIds", "2")
	second := base.WithQuery("tagIds", "3")

	assert.Equal(t, []string{"1"}, base.Query["tagIds"])
	assert.Equal(t, []string{"1", "2"}, first.Query["tagIds"])
	assert.Equal(t, []string{"1", "3"}, second.Query["tagIds"])
}

func TestCredentialKindString(t *testing.T) {
	assert.Equal(t, "anonymous", Anonymous().Kind.String())
	assert.Equal(t, "api-token", APIToken("x").Kind.String())
	assert.Equal(t, "bearer-token", Bearer("x").Kind.String())
}
