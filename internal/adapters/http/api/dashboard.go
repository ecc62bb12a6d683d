package api

import (
	"net/http"

	"github.com/okian/monprobe/pkg/urlutil"
)

const embedURLParam = "embedUrl"

// DashboardHandler rewrites and checks Grafana dashboard links.
type DashboardHandler struct {
	deps  Dependencies
	guard *ClusterGuard
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies, guard *ClusterGuard) *DashboardHandler {
	return &DashboardHandler{deps: deps, guard: guard}
}

// HandleURL handles GET /v1/clusters/{cluster}/dashboards/url?embedUrl=...
// Every other query parameter is appended to the result in request order.
func (h *DashboardHandler) HandleURL(w http.ResponseWriter, r *http.Request) {
	cluster, ok := h.guard.Resolve(w, r)
	if !ok {
		return
	}
	embedURL := r.URL.Query().Get(embedURLParam)
	if embedURL == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingEmbedURL)
		return
	}

	var extras []urlutil.Param
	for _, p := range urlutil.Parse("?" + r.URL.RawQuery).Query {
		if p.Key != embedURLParam {
			extras = append(extras, p)
		}
	}

	out := h.deps.DashboardURL(embedURL, cluster, extras)
	writeJSON(w, http.StatusOK, urlResponse{URL: out})
}

// HandleExists handles GET /v1/clusters/{cluster}/dashboards/exists?embedUrl=a&embedUrl=b
func (h *DashboardHandler) HandleExists(w http.ResponseWriter, r *http.Request) {
	cluster, ok := h.guard.Resolve(w, r)
	if !ok {
		return
	}
	embedURLs := r.URL.Query()[embedURLParam]
	if len(embedURLs) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingEmbedURL)
		return
	}

	var exists bool
	if len(embedURLs) == 1 {
		exists = h.deps.DashboardExists(r.Context(), cluster, embedURLs[0])
	} else {
		exists = h.deps.AllDashboardsExist(r.Context(), cluster, embedURLs)
	}
	writeJSON(w, http.StatusOK, existsResponse{Exists: exists})
}
