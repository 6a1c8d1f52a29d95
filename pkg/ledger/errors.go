package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across the client library.
var (
	// ErrUnauthorized is returned when the server rejects the session
	// cookie with a 401. It is handled by the session gate; callers
	// should not display it as an inline request error.
	ErrUnauthorized = errors.New("session is not authenticated")

	// ErrConcurrentMutation is returned when a create/update/delete is
	// requested while another mutation on the same store is still in
	// flight.
	ErrConcurrentMutation = errors.New("another mutation is already in flight")

	// ErrStaleQuery is returned when a listing response arrives after
	// the store's query has moved on. The result was discarded.
	ErrStaleQuery = errors.New("listing discarded: query changed while request was in flight")

	// ErrStoreClosed is returned from any operation on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// FetchError is a transport failure or a non-2xx response. Message holds
// the server-provided error text when the body carried one.
type FetchError struct {
	StatusCode int // zero when the request never reached the server
	Message    string
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// ValidationError reports form-level payload problems. It is raised
// before a request is issued and never reaches the store.
type ValidationError struct {
	Kind   string
	Causes []string
}

func (e *ValidationError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("%s payload is invalid", e.Kind)
	}
	return fmt.Sprintf("%s payload is invalid: %s", e.Kind, strings.Join(e.Causes, "; "))
}
