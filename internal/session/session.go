// Package session defines the persisted form of an authenticated session and the store contract for it.
package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Store.Get when no session exists under the name.
var ErrNotFound = errors.New("session not found")

// CredentialKind tags a persisted credential.
type CredentialKind string

const (
	// KindAPIToken is a long-lived API key.
	KindAPIToken CredentialKind = "api-token"
	// KindBearerToken is a JWT sent as a bearer token.
	KindBearerToken CredentialKind = "bearer-token"
)

// Credential is a token-bearing credential. Passwords are never persisted.
type Credential struct {
	// Kind tells how the token is sent.
	Kind CredentialKind `yaml:"kind"`
	// Value is the token itself.
	Value string `yaml:"value"`
}

// Data is the persistable projection of a session.
type Data struct {
	// Address is the control-plane base address.
	Address string `yaml:"address"`
	// Credential is the token bound to the address.
	Credential Credential `yaml:"credential"`
}

// Validate checks that d can be stored and restored.
func (d Data) Validate() error {
	if strings.TrimSpace(d.Address) == "" {
		return fmt.Errorf("session address is empty")
	}
	switch d.Credential.Kind {
	case KindAPIToken, KindBearerToken:
	default:
		return fmt.Errorf("unsupported credential kind %q", d.Credential.Kind)
	}
	if d.Credential.Value == "" {
		return fmt.Errorf("session credential is empty")
	}
	return nil
}

// Store saves, loads and removes named sessions.
type Store interface {
	// Get returns the session stored under name or ErrNotFound.
	Get(name string) (Data, error)
	// Save stores data under name, replacing any previous value.
	Save(name string, data Data) error
	// Remove deletes name. Removing an absent name is not an error.
	Remove(name string) error
}

// ValidateName rejects empty or padded session names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("session name is empty")
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("session name %q has leading or trailing spaces", name)
	}
	return nil
}
