package rancher

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/monprobe/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds each request, including the body read.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit throttles outbound requests. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.insecure = skip
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its CheckRedirect is overridden.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnUnauthorized sets the hook run when a request that asked for
// unauthorized redirects receives a 401.
func WithOnUnauthorized(fn func(ctx context.Context, err *StatusError)) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithCountType sets the Rancher resource type served when the count
// aggregate is listed.
func WithCountType(resourceType string) Option {
	return func(c *Client) {
		if resourceType != "" {
			c.countType = resourceType
		}
	}
}
