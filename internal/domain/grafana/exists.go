package grafana

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/okian/monprobe/pkg/urlutil"
)

// DashboardExists reports whether the dashboard behind embedURL can be
// fetched from the cluster's Grafana. It answers false without a lookup
// when monitoring is not installed, and collapses every failure (network,
// auth, 404, unparseable URL) into false.
func DashboardExists(ctx context.Context, d Dispatcher, clusterID, embedURL, store string) bool {
	store = storeOrDefault(store)
	if !IsMonitoringInstalled(ctx, d, store) {
		return false
	}

	uid, ok := DashboardUID(embedURL)
	if !ok {
		return false
	}

	_, err := d.Request(ctx, store, RequestOptions{
		URL:                  grafanaProxyBase(clusterID) + "api/dashboards/uid/" + uid,
		RedirectUnauthorized: false,
	})
	return err == nil
}

// AllDashboardsExist checks every URL concurrently and reports true only if
// all of them exist. Every check runs to completion. An empty list is true.
func AllDashboardsExist(ctx context.Context, d Dispatcher, clusterID string, embedURLs []string, store string) bool {
	results := make([]bool, len(embedURLs))

	var g errgroup.Group
	for i, embedURL := range embedURLs {
		g.Go(func() error {
			results[i] = DashboardExists(ctx, d, clusterID, embedURL, store)
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range results {
		if !ok {
			return false
		}
	}
	return true
}

// DashboardUID extracts the dashboard uid from an embed URL of the form
// .../http:rancher-monitoring-grafana:80/proxy/d/<uid>/<slug>?...
func DashboardUID(embedURL string) (string, bool) {
	path := urlutil.Parse(embedURL).Path
	_, rest, found := strings.Cut(path, proxyDelimiter)
	if !found {
		return "", false
	}
	segments := strings.Split(rest, "/")
	if len(segments) < 2 || segments[1] == "" {
		return "", false
	}
	return segments[1], true
}
