package api

import (
	"fmt"
	"net/http"

	"github.com/okian/monprobe/pkg/logger"
)

// ClusterHandler serves per-cluster monitoring state.
type ClusterHandler struct {
	deps   Dependencies
	guard  *ClusterGuard
	logger logger.Logger
}

// NewClusterHandler creates a new cluster handler.
func NewClusterHandler(deps Dependencies, guard *ClusterGuard, log logger.Logger) *ClusterHandler {
	return &ClusterHandler{deps: deps, guard: guard, logger: log}
}

// HandleMonitoring handles GET /v1/clusters/{cluster}/monitoring requests.
func (h *ClusterHandler) HandleMonitoring(w http.ResponseWriter, r *http.Request) {
	cluster, ok := h.guard.Resolve(w, r)
	if !ok {
		return
	}
	installed := h.deps.MonitoringInstalled(r.Context(), cluster)
	writeJSON(w, http.StatusOK, installedResponse{Installed: installed})
}

// HandleEtcd handles GET /v1/clusters/{cluster}/etcd requests.
func (h *ClusterHandler) HandleEtcd(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_etcd"
	cluster, ok := h.guard.Resolve(w, r)
	if !ok {
		return
	}

	status, err := h.deps.EtcdStatus(r.Context(), cluster)
	if err != nil {
		h.logger.Warn(r.Context(), "etcd status unavailable", logger.String("cluster", cluster), logger.Error(err))
		writeError(w, http.StatusBadGateway, "upstream_error", fmt.Errorf("%s: %w", op, ErrUpstream))
		return
	}
	writeJSON(w, http.StatusOK, status)
}
