// Package apperr defines the error taxonomy shared by the client core.
//
// Validation errors are produced locally and never reach the network.
// Auth, remote and network errors describe how a call to the remote
// authority failed. None of them are retried automatically.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoSession is returned when an operation needs a bearer token and no
	// session is active. Nothing is sent.
	ErrNoSession = errors.New("not logged in")
	// ErrNotFound is returned when an id is not present in the local mirror.
	ErrNotFound = errors.New("entity not found")
	// ErrNotEditing is returned when a draft operation runs while idle.
	ErrNotEditing = errors.New("no edit in progress")
)

// ValidationError reports input rejected before any network call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Invalid is shorthand for a ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// AuthError reports that the server rejected credentials or a registration.
type AuthError struct {
	Status int
	Msg    string
}

func (e *AuthError) Error() string {
	return e.Msg
}

// RemoteError is a non-2xx response from a CRUD call, or a 2xx response
// the client cannot use. Status is zero in the latter case.
type RemoteError struct {
	Op     string
	Status int
	Msg    string
}

func (e *RemoteError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, msg)
}

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsRemote(err error) bool {
	var target *RemoteError
	return errors.As(err, &target)
}

func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// Unauthorized reports whether err is a 401 from the remote authority,
// meaning the session token is no longer accepted.
func Unauthorized(err error) bool {
	var target *RemoteError
	if errors.As(err, &target) {
		return target.Status == http.StatusUnauthorized
	}
	return false
}
