package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is a transport-level failure: the server could not be reached
	// or the response could not be read.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized means the server rejected the credentials or the token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAuthRequired is returned before any network call when an authenticated
	// operation is attempted without a token.
	ErrAuthRequired = errors.New("authentication required")
	// ErrNotFound means the server reported that the resource does not exist.
	ErrNotFound = errors.New("not found")
)

// ServerError is any other non-2xx response. Message is taken from the
// response payload when present.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// IsClientError reports whether the server rejected the request payload (4xx).
func (e *ServerError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
