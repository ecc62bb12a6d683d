package grafana

import (
	"regexp"

	"github.com/okian/monprobe/pkg/urlutil"
)

var clusterIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`) //nolint:gochecknoglobals // compiled once

// ValidClusterID reports whether id can be placed in a request path as a
// single segment: letters, digits, '.', '_' and '-', and not "." or "..".
func ValidClusterID(id string) bool {
	return id != "." && id != ".." && clusterIDPattern.MatchString(id)
}

// ClusterPrefix returns the API path prefix routing to clusterID.
func ClusterPrefix(clusterID string) string {
	if clusterID == LocalClusterID {
		return ""
	}
	return "/k8s/clusters/" + clusterID
}

// grafanaProxyBase is the service proxy root for the monitoring Grafana of clusterID.
func grafanaProxyBase(clusterID string) string {
	return ClusterPrefix(clusterID) + "/api/v1/namespaces/" + MonitoringNamespace + "/services/" + proxyDelimiter
}

// ComputeDashboardURL rewrites an embed URL so it is served through the
// cluster's proxy in kiosk mode. viewPanel is kept only when the source has
// it; orgId is always copied (empty when missing). params are appended last,
// in order.
func ComputeDashboardURL(embedURL, clusterID string, params []urlutil.Param) string {
	u := urlutil.Parse(embedURL)
	out := ClusterPrefix(clusterID) + u.Path

	if panel, ok := u.Get("viewPanel"); ok {
		out = urlutil.AddParam(out, "viewPanel", &panel)
	}
	orgID, _ := u.Get("orgId")
	out = urlutil.AddParam(out, "orgId", &orgID)
	out = urlutil.AddParam(out, "kiosk", nil)

	for _, p := range params {
		out = urlutil.AddParam(out, p.Key, p.Value)
	}
	return out
}
