// Package config defines service configuration and its loading hooks.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RancherURL is the base URL of the Rancher API, e.g. "https://rancher.example.com".
	RancherURL string `koanf:"rancher_url"`

	// RancherToken is sent as a bearer token on every request.
	RancherToken string `koanf:"rancher_token"`

	// Store is the dispatcher store checks run against.
	Store string `koanf:"store"`

	// CountType is the resource type listed by the install guard.
	CountType string `koanf:"count_type"`

	// RequestTimeoutMS bounds each outbound request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RateLimitRPS and RateLimitBurst throttle outbound requests. RPS <= 0 disables throttling.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// InsecureSkipVerify disables TLS verification for self-signed Rancher installs.
	InsecureSkipVerify bool `koanf:"insecure_skip_verify"`

	// Clusters limits the API to these cluster ids. Empty allows any well-formed id.
	// From env: MONPROBE_CLUSTERS=local,c-m-abc123.
	Clusters []string `koanf:"clusters"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		RancherURL:       "https://localhost:8443",
		Store:            "cluster",
		CountType:        "count",
		RequestTimeoutMS: 10_000,
		RateLimitRPS:     20,
		RateLimitBurst:   40,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
