// Package rancher implements the grafana.Dispatcher capability over the
// Rancher HTTP API.
package rancher

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/okian/monprobe/internal/domain/grafana"
	"github.com/okian/monprobe/pkg/logger"
	"github.com/okian/monprobe/pkg/metrics"
	"github.com/okian/monprobe/pkg/safe"
)

// Store keys understood by the client.
const (
	StoreCluster    = "cluster"
	StoreManagement = "management"

	requestIDHeader = "X-Request-Id"
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 16 << 20
	errorBodyBytes  = 512
)

// Client talks to one Rancher server.
type Client struct {
	base           *url.URL
	token          string
	timeout        time.Duration
	insecure       bool
	http           *http.Client
	limiter        *rate.Limiter
	countType      string
	logger         logger.Logger
	onUnauthorized func(ctx context.Context, err *StatusError)
}

// New creates a client for the Rancher server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse rancher url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("rancher url %q must be absolute", baseURL)
	}

	c := &Client{
		base:      u,
		timeout:   defaultTimeout,
		countType: grafana.CountType,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed installs
		}
		c.http = &http.Client{Transport: transport}
	} else {
		// Timeout and CheckRedirect are set below; leave the caller's client untouched.
		hc := *c.http
		c.http = &hc
	}
	c.http.Timeout = c.timeout
	// Redirects usually point at the login page; surface them as failures.
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c, nil
}

// ForCluster returns a dispatcher whose cluster store routes to clusterID.
func (c *Client) ForCluster(clusterID string) grafana.Dispatcher {
	return &clusterDispatcher{client: c, clusterID: clusterID}
}

type clusterDispatcher struct {
	client    *Client
	clusterID string
}

// Request fetches opts.URL, an absolute path on the Rancher server.
func (d *clusterDispatcher) Request(ctx context.Context, store string, opts grafana.RequestOptions) (any, error) {
	if err := d.checkCluster(); err != nil {
		return nil, err
	}
	return d.client.get(ctx, store, opts.URL, opts.RedirectUnauthorized)
}

// FindAll lists every resource of resourceType in store and returns the
// collection's data array.
func (d *clusterDispatcher) FindAll(ctx context.Context, store, resourceType string) ([]any, error) {
	if err := d.checkCluster(); err != nil {
		return nil, err
	}
	base, err := d.storeBase(store)
	if err != nil {
		return nil, err
	}
	if resourceType == grafana.CountType {
		resourceType = d.client.countType
	}
	path := base + "/" + url.PathEscape(resourceType)
	if strings.ContainsAny(path, "?#") {
		return nil, fmt.Errorf("%w: %q", ErrUnsafePath, path)
	}
	resp, err := d.client.get(ctx, store, path, true)
	if err != nil {
		return nil, err
	}
	got, ok := safe.Get(resp, "data")
	if !ok {
		return nil, nil
	}
	data, ok := got.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s collection data is %T", ErrDecode, resourceType, got)
	}
	return data, nil
}

func (d *clusterDispatcher) checkCluster() error {
	if !grafana.ValidClusterID(d.clusterID) {
		return fmt.Errorf("%w: cluster id %q", ErrUnsafePath, d.clusterID)
	}
	return nil
}

func (d *clusterDispatcher) storeBase(store string) (string, error) {
	switch store {
	case StoreCluster, "":
		return grafana.ClusterPrefix(d.clusterID) + "/v1", nil
	case StoreManagement:
		return "/v1", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStore, store)
	}
}

func (c *Client) get(ctx context.Context, store, path string, redirectUnauthorized bool) (any, error) {
	if hasDotSegment(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsafePath, path)
	}

	requestID := uuid.NewString()
	log := c.logger.With(logger.String("request_id", requestID), logger.String("store", store))

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	target := c.base.String() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build %s: %w", ErrRequestFailed, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordDispatch(store, "0", elapsedMs)
		log.Debug(ctx, "rancher request failed", logger.String("path", path), logger.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordDispatch(store, strconv.Itoa(resp.StatusCode), elapsedMs)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		serr := &StatusError{
			StatusCode: resp.StatusCode,
			URL:        path,
			RequestID:  requestID,
			Kind:       kindForStatus(resp.StatusCode),
		}
		log.Debug(ctx, "rancher request rejected",
			logger.String("path", path),
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(snippet)),
		)
		if errors.Is(serr, ErrUnauthorized) && redirectUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx, serr)
		}
		return nil, serr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrRequestFailed, path, err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	log.Debug(ctx, "rancher request ok", logger.String("path", path), logger.Float64("elapsed_ms", elapsedMs))
	return out, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrRequestFailed, err)
	}
	metrics.RecordDispatchThrottle(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// hasDotSegment reports whether the path part of p contains a "." or ".."
// segment, which the server would resolve to a different resource.
func hasDotSegment(p string) bool {
	p, _, _ = strings.Cut(p, "?")
	for _, seg := range strings.Split(p, "/") {
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}
