package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredentials is returned, before any network I/O, when an
	// authenticated operation is called without a token.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrUnauthorized matches any APIError carrying a 401 or 403 status.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a response the backend produced on purpose: a success:false
// envelope or a non-2xx status with a readable message.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// TransportError covers network failures and bodies that are not a
// decodable envelope.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message returns the backend message carried by err, or "" when err is not
// an APIError.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
