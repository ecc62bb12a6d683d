package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrMissingEmbedURL = fmt.Errorf("%w: missing embedUrl", ErrBadRequest)
	ErrUpstream        = errors.New("upstream query failed")
	ErrUnknownCluster  = errors.New("unknown cluster")
)
