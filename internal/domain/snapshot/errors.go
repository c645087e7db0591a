package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when no sync token is configured.
	ErrMissingCredential = errors.New("sync credential is missing")
	// ErrInvalidCredential is returned when the remote rejects the token.
	ErrInvalidCredential = errors.New("sync credential was rejected by the remote store")
	// ErrTargetNotFound is returned when the remote has no such document.
	ErrTargetNotFound = errors.New("remote snapshot not found")
	// ErrUnknownTarget is returned for target names that are not configured.
	ErrUnknownTarget = errors.New("unknown sync target")
	// ErrMalformedSnapshot is returned when a pulled document cannot be decoded.
	ErrMalformedSnapshot = errors.New("remote snapshot is malformed")
)

// NetworkError wraps a transport failure talking to the remote store.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteError is a non-success response from the remote store.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: remote store responded %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: remote store responded %d: %s", e.Op, e.StatusCode, e.Message)
}
