// Package grafana builds cluster-scoped Grafana URLs and reads monitoring
// state through the Rancher API proxy.
//
// Every operation receives a Dispatcher explicitly; the package holds no
// process-wide state and never talks to the network on its own.
package grafana

import "context"

// Fixed routing constants for the rancher-monitoring chart.
const (
	// LocalClusterID is the cluster served by the Rancher API directly, without a /k8s/clusters prefix.
	LocalClusterID = "local"

	// DefaultStore is the store used when callers pass an empty store key.
	DefaultStore = "cluster"

	// CountType is the aggregate resource type whose counts reveal installed apps.
	CountType = "count"

	MonitoringNamespace = "cattle-monitoring-system"
	grafanaService      = "http:rancher-monitoring-grafana:80"
	appCountKey         = "catalog.cattle.io.app"

	// proxyDelimiter separates the service proxy path from the Grafana-relative path in embed URLs.
	proxyDelimiter = grafanaService + "/proxy/"
)

// RequestOptions describes a single dispatched request.
type RequestOptions struct {
	URL string

	// RedirectUnauthorized asks the dispatcher to send the user to login on 401.
	RedirectUnauthorized bool
}

// Dispatcher is the request capability owned by the surrounding application.
// It authenticates, routes by store and decodes JSON bodies.
type Dispatcher interface {
	Request(ctx context.Context, store string, opts RequestOptions) (any, error)
	FindAll(ctx context.Context, store, resourceType string) ([]any, error)
}

func storeOrDefault(store string) string {
	if store == "" {
		return DefaultStore
	}
	return store
}
