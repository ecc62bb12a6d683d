package rancher

import (
	"errors"
	"fmt"
)

// Sentinel kinds for dispatcher errors.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrRequestFailed = errors.New("request failed")
	ErrDecode        = errors.New("decode response failed")
	ErrUnknownStore  = errors.New("unknown store")
	ErrUnsafePath    = errors.New("unsafe request path")
)

// StatusError describes a non-2xx answer from the Rancher API.
type StatusError struct {
	StatusCode int
	URL        string
	RequestID  string
	Kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d (request %s)", e.Kind, e.URL, e.StatusCode, e.RequestID)
}

func (e *StatusError) Unwrap() error { return e.Kind }

func kindForStatus(code int) error {
	switch {
	case code == 401:
		return ErrUnauthorized
	case code == 404:
		return ErrNotFound
	default:
		return ErrRequestFailed
	}
}
