// Package engine implements the pctl pipeline: authenticate a session, resolve one
// endpoint, build a deploy or destroy plan against live server state and execute it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hnaderi/pctl/internal/logging"
	"github.com/hnaderi/pctl/internal/portainer"
	"github.com/hnaderi/pctl/internal/session"
)

// CredentialsKind selects how a server is authenticated against.
type CredentialsKind int

const (
	// CredentialsPassword logs in with a username and password.
	CredentialsPassword CredentialsKind = iota + 1
	// CredentialsToken uses an API token without a login call.
	CredentialsToken
	// CredentialsSaved restores a session from the store.
	CredentialsSaved
)

// Credentials describes how to obtain a Session.
type Credentials struct {
	Kind     CredentialsKind
	Address  string
	Username string
	Password string
	Token    string
	// SessionName is the stored session for CredentialsSaved.
	SessionName string
}

// WithPassword describes a username and password login against address.
func WithPassword(address, username, password string) Credentials {
	return Credentials{Kind: CredentialsPassword, Address: address, Username: username, Password: password}
}

// WithToken describes an API token bound to address.
func WithToken(address, token string) Credentials {
	return Credentials{Kind: CredentialsToken, Address: address, Token: token}
}

// FromSession describes a previously saved session.
func FromSession(name string) Credentials {
	return Credentials{Kind: CredentialsSaved, SessionName: name}
}

// Validate checks that the fields required by Kind are present.
func (c Credentials) Validate() error {
	switch c.Kind {
	case CredentialsPassword:
		if strings.TrimSpace(c.Address) == "" {
			return fmt.Errorf("server address is required")
		}
		if c.Username == "" {
			return fmt.Errorf("username is required")
		}
	case CredentialsToken:
		if strings.TrimSpace(c.Address) == "" {
			return fmt.Errorf("server address is required")
		}
		if c.Token == "" {
			return fmt.Errorf("api token is required")
		}
	case CredentialsSaved:
		if err := session.ValidateName(c.SessionName); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown credentials kind %d", c.Kind)
	}
	return nil
}

// Authenticator turns Credentials into a Session.
type Authenticator struct {
	factory portainer.TransportFactory
	store   session.Store
	logger  *slog.Logger
}

// NewAuthenticator returns an Authenticator that builds transports with factory
// and restores saved sessions from store.
func NewAuthenticator(factory portainer.TransportFactory, store session.Store, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Authenticator{factory: factory, store: store, logger: logger}
}

// Authenticate resolves creds into a Session. A password login performs one call and
// binds the returned JWT; the password is not kept and the session cannot be saved.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	switch creds.Kind {
	case CredentialsPassword:
		return a.login(ctx, creds)
	case CredentialsToken:
		a.logger.Debug("using api token", "address", creds.Address)
		return a.bind(creds.Address, portainer.APIToken(creds.Token))
	default:
		return a.restore(creds.SessionName)
	}
}

func (a *Authenticator) login(ctx context.Context, creds Credentials) (*Session, error) {
	anon, err := a.factory(creds.Address, portainer.Anonymous())
	if err != nil {
		return nil, err
	}
	jwt, err := portainer.NewClient(anon).Login(ctx, creds.Username, creds.Password)
	if err != nil {
		if rejectedLogin(err) {
			return nil, &AuthError{Address: creds.Address, Err: err}
		}
		return nil, fmt.Errorf("login to %s: %w", creds.Address, err)
	}
	a.logger.Info("logged in", "address", creds.Address, "username", creds.Username)
	s, err := a.bind(creds.Address, portainer.Bearer(jwt))
	if err != nil {
		return nil, err
	}
	s.fromPassword = true
	return s, nil
}

func (a *Authenticator) restore(name string) (*Session, error) {
	if a.store == nil {
		return nil, &UnknownSessionError{Name: name}
	}
	data, err := a.store.Get(name)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, &UnknownSessionError{Name: name}
		}
		return nil, &PersistError{Op: "load", Name: name, Err: err}
	}

	var cred portainer.Credential
	switch data.Credential.Kind {
	case session.KindAPIToken:
		cred = portainer.APIToken(data.Credential.Value)
	case session.KindBearerToken:
		cred = portainer.Bearer(data.Credential.Value)
	default:
		return nil, &PersistError{Op: "load", Name: name, Err: fmt.Errorf("unsupported credential kind %q", data.Credential.Kind)}
	}
	a.logger.Debug("restored session", "session", name, "address", data.Address)
	return a.bind(data.Address, cred)
}

func (a *Authenticator) bind(address string, cred portainer.Credential) (*Session, error) {
	t, err := a.factory(address, cred)
	if err != nil {
		return nil, err
	}
	return NewSession(address, cred, t, a.logger), nil
}

func rejectedLogin(err error) bool {
	switch portainer.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

// Session is an authenticated handle bound to one control plane address.
type Session struct {
	client       *portainer.Client
	address      string
	credential   portainer.Credential
	logger       *slog.Logger
	consumed     bool
	fromPassword bool
}

// NewSession binds credential and transport to address.
func NewSession(address string, credential portainer.Credential, transport portainer.Transport, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		client:     portainer.NewClient(transport),
		address:    address,
		credential: credential,
		logger:     logger,
	}
}

// Address returns the control plane address.
func (s *Session) Address() string { return s.address }

// Credential returns the credential bound to the session.
func (s *Session) Credential() portainer.Credential { return s.credential }

// Data returns the persistable projection of s.
// Anonymous and password-login sessions have none.
func (s *Session) Data() (session.Data, error) {
	if s.fromPassword {
		return session.Data{}, &UnsavableCredentialError{Kind: "password"}
	}
	var kind session.CredentialKind
	switch s.credential.Kind {
	case portainer.CredentialAPIToken:
		kind = session.KindAPIToken
	case portainer.CredentialBearer:
		kind = session.KindBearerToken
	default:
		return session.Data{}, &UnsavableCredentialError{Kind: s.credential.Kind.String()}
	}
	return session.Data{
		Address:    s.address,
		Credential: session.Credential{Kind: kind, Value: s.credential.Value},
	}, nil
}

// Save persists s under name. Nothing is written for unsavable sessions.
func (s *Session) Save(store session.Store, name string) error {
	data, err := s.Data()
	if err != nil {
		return err
	}
	if err := store.Save(name, data); err != nil {
		return &PersistError{Op: "save", Name: name, Err: err}
	}
	s.logger.Info("session saved", "session", name, "address", s.address)
	return nil
}

func (s *Session) take() (*portainer.Client, error) {
	if s.consumed {
		return nil, ErrHandleConsumed
	}
	s.consumed = true
	return s.client, nil
}
