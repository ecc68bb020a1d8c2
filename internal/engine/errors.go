package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHandleConsumed is returned when a Session, Endpoint or Plan is used after it
// was turned into the next pipeline stage.
var ErrHandleConsumed = errors.New("handle already consumed")

// ErrNoAnswer is returned when the confirmation input ends before a yes or no answer.
var ErrNoAnswer = errors.New("confirmation input closed without an answer")

// AuthError indicates that the control plane rejected the supplied credentials.
type AuthError struct {
	// Address is the control plane the login was attempted against.
	Address string
	// Err is the underlying transport failure.
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login to %s rejected: %v", e.Address, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is or wraps an AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// AmbiguousSelectionError indicates that an endpoint selector matched zero or several endpoints.
type AmbiguousSelectionError struct {
	// Selector describes what was asked for.
	Selector string
	// Candidates lists the matching endpoint ids.
	Candidates []int
}

// Count returns the number of matching endpoints.
func (e *AmbiguousSelectionError) Count() int {
	return len(e.Candidates)
}

func (e *AmbiguousSelectionError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("endpoint selector %s matched no endpoint", e.Selector)
	}
	return fmt.Sprintf("endpoint selector %s matched %d endpoints %v, expected exactly one", e.Selector, len(e.Candidates), e.Candidates)
}

// IsAmbiguousSelectionError reports whether err is or wraps an AmbiguousSelectionError.
func IsAmbiguousSelectionError(err error) bool {
	var target *AmbiguousSelectionError
	return errors.As(err, &target)
}

// NoMatchingTagsError indicates that none of the requested tag names exist.
type NoMatchingTagsError struct {
	Names []string
}

func (e *NoMatchingTagsError) Error() string {
	return fmt.Sprintf("no tag named %s", strings.Join(e.Names, ", "))
}

// IsNoMatchingTagsError reports whether err is or wraps a NoMatchingTagsError.
func IsNoMatchingTagsError(err error) bool {
	var target *NoMatchingTagsError
	return errors.As(err, &target)
}

// UnknownSessionError indicates that a named session is absent from the store.
type UnknownSessionError struct {
	Name string
}

func (e *UnknownSessionError) Error() string {
	return fmt.Sprintf("unknown session %q", e.Name)
}

// IsUnknownSessionError reports whether err is or wraps an UnknownSessionError.
func IsUnknownSessionError(err error) bool {
	var target *UnknownSessionError
	return errors.As(err, &target)
}

// UnsavableCredentialError indicates an attempt to persist a session that has no storable token.
type UnsavableCredentialError struct {
	// Kind names the credential that cannot be stored.
	Kind string
}

func (e *UnsavableCredentialError) Error() string {
	return fmt.Sprintf("cannot save a session with %s credential, only token sessions can be saved", e.Kind)
}

// IsUnsavableCredentialError reports whether err is or wraps an UnsavableCredentialError.
func IsUnsavableCredentialError(err error) bool {
	var target *UnsavableCredentialError
	return errors.As(err, &target)
}

// PersistError wraps a session store failure.
type PersistError struct {
	// Op is the store operation: load, save or remove.
	Op string
	// Name is the session name.
	Name string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s session %q: %v", e.Op, e.Name, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistError reports whether err is or wraps a PersistError.
func IsPersistError(err error) bool {
	var target *PersistError
	return errors.As(err, &target)
}

// LocalFileError indicates that a compose, config or secret file could not be read.
type LocalFileError struct {
	// Role is compose, config or secret.
	Role string
	Path string
	Err  error
}

func (e *LocalFileError) Error() string {
	return fmt.Sprintf("read %s file %q: %v", e.Role, e.Path, e.Err)
}

func (e *LocalFileError) Unwrap() error { return e.Err }

// IsLocalFileError reports whether err is or wraps a LocalFileError.
func IsLocalFileError(err error) bool {
	var target *LocalFileError
	return errors.As(err, &target)
}
