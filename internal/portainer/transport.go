// Package portainer implements the wire layer towards a Portainer control plane:
// the request transport, the REST payload shapes and typed calls built on top of them.
package portainer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hnaderi/pctl/internal/logging"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 8 << 10

	headerAPIKey    = "X-API-Key"
	headerRequestID = "X-Request-ID"
)

// CredentialKind tells how requests are authenticated.
type CredentialKind int

const (
	// CredentialAnonymous sends no authentication header.
	CredentialAnonymous CredentialKind = iota
	// CredentialAPIToken sends the token in the X-API-Key header.
	CredentialAPIToken
	// CredentialBearer sends a JWT in the Authorization header.
	CredentialBearer
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialAPIToken:
		return "api-token"
	case CredentialBearer:
		return "bearer-token"
	default:
		return "anonymous"
	}
}

// Credential is the authentication bound to a transport.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// Anonymous returns a credential that sends no authentication header.
func Anonymous() Credential { return Credential{Kind: CredentialAnonymous} }

// APIToken returns an API-key credential.
func APIToken(token string) Credential { return Credential{Kind: CredentialAPIToken, Value: token} }

// Bearer returns a JWT bearer credential.
func Bearer(token string) Credential { return Credential{Kind: CredentialBearer, Value: token} }

// Request describes a single call to the control plane.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE).
	Method string
	// Path is relative to the base address, starting with a slash.
	Path string
	// Query holds optional query parameters.
	Query url.Values
	// Body is marshalled to JSON when not nil.
	Body any
}

// Get builds a GET request.
func Get(path string) Request { return Request{Method: http.MethodGet, Path: path} }

// Delete builds a DELETE request.
func Delete(path string) Request { return Request{Method: http.MethodDelete, Path: path} }

// Post builds a POST request with a JSON body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

// Put builds a PUT request with a JSON body.
func Put(path string, body any) Request {
	return Request{Method: http.MethodPut, Path: path, Body: body}
}

// WithQuery returns a copy of r with key=value appended to its query.
func (r Request) WithQuery(key, value string) Request {
	q := url.Values{}
	for k, v := range r.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Add(key, value)
	r.Query = q
	return r
}

// Transport sends requests to one control plane and returns the raw JSON response.
// An empty response body is returned as JSON null.
type Transport interface {
	Send(ctx context.Context, req Request) (json.RawMessage, error)
}

// TransportFactory builds a Transport bound to an address and credential.
type TransportFactory func(address string, credential Credential) (Transport, error)

// Options configures HTTP transports.
type Options struct {
	// Timeout bounds each request; zero means the default.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// Logger receives per-request debug records.
	Logger *slog.Logger
	// RoundTripper overrides the HTTP transport, mostly for tests.
	RoundTripper http.RoundTripper
}

// HTTPFactory returns a TransportFactory producing HTTP transports with opts.
func HTTPFactory(opts Options) TransportFactory {
	return func(address string, credential Credential) (Transport, error) {
		return NewHTTPTransport(address, credential, opts)
	}
}

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	client     *http.Client
	baseURL    string
	credential Credential
	logger     *slog.Logger
}

// NewHTTPTransport validates address and builds a transport bound to it.
func NewHTTPTransport(address string, credential Credential, opts Options) (*HTTPTransport, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(address), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("server address is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", address, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server address %q: scheme must be http or https", address)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server address %q: host is empty", address)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &http.Client{Timeout: timeout}
	switch {
	case opts.RoundTripper != nil:
		client.Transport = opts.RoundTripper
	case opts.InsecureSkipVerify:
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		client.Transport = tr
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &HTTPTransport{
		client:     client,
		baseURL:    trimmed,
		credential: credential,
		logger:     logger,
	}, nil
}

// BaseURL returns the normalized base address.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// Send performs req and returns the response body.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (json.RawMessage, error) {
	var body io.Reader = http.NoBody
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s body: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(payload)
	}

	target := t.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, requestID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	t.authorize(httpReq)

	t.logger.Debug("portainer request", "method", req.Method, "path", req.Path, "request_id", requestID)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	t.logger.Debug("portainer response", "method", req.Method, "path", req.Path, "request_id", requestID, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Method:     req.Method,
			Path:       req.Path,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, StatusCode: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(raw) {
		return nil, &DecodeError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("response is not valid JSON")}
	}
	return json.RawMessage(raw), nil
}

func (t *HTTPTransport) authorize(req *http.Request) {
	switch t.credential.Kind {
	case CredentialAPIToken:
		req.Header.Set(headerAPIKey, t.credential.Value)
	case CredentialBearer:
		req.Header.Set("Authorization", "Bearer "+t.credential.Value)
	}
}

// readErrorMessage extracts the control plane's {"message","details"} payload,
// falling back to the trimmed raw body.
func readErrorMessage(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Message string `json:"message"`
			Details string `json:"details"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			msg := strings.TrimSpace(payload.Message)
			details := strings.TrimSpace(payload.Details)
			switch {
			case msg != "" && details != "" && details != msg:
				return msg + ": " + details
			case msg != "":
				return msg
			case details != "":
				return details
			}
		}
	}
	return trimmed
}
