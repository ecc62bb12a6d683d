// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/monprobe/internal/app"
	"github.com/okian/monprobe/pkg/logger"
	"github.com/okian/monprobe/pkg/urlutil"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	DashboardURL(embedURL, clusterID string, params []urlutil.Param) string
	DashboardExists(ctx context.Context, clusterID, embedURL string) bool
	AllDashboardsExist(ctx context.Context, clusterID string, embedURLs []string) bool
	MonitoringInstalled(ctx context.Context, clusterID string) bool
	EtcdStatus(ctx context.Context, clusterID string) (service.EtcdStatus, error)
}

// Server wires HTTP routes for the probe API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *DashboardHandler
	clusterHandler   *ClusterHandler
}

// ServerOption configures NewServer.
type ServerOption func(*serverOptions)

type serverOptions struct {
	clusters []string
}

// WithAllowedClusters limits the cluster routes to ids. Other ids get 404.
func WithAllowedClusters(ids []string) ServerOption {
	return func(o *serverOptions) {
		o.clusters = ids
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger, opts ...ServerOption) *Server {
	if log == nil {
		log = logger.Nop()
	}
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}
	guard := NewClusterGuard(o.clusters)
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		dashboardHandler: NewDashboardHandler(deps, guard),
		clusterHandler:   NewClusterHandler(deps, guard, log.Named("api")),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /v1/clusters/{cluster}/dashboards/url", MetricsMiddleware(s.dashboardHandler.HandleURL, "dashboard_url"))
	mux.HandleFunc("GET /v1/clusters/{cluster}/dashboards/exists", MetricsMiddleware(s.dashboardHandler.HandleExists, "dashboard_exists"))
	mux.HandleFunc("GET /v1/clusters/{cluster}/monitoring", MetricsMiddleware(s.clusterHandler.HandleMonitoring, "monitoring"))
	mux.HandleFunc("GET /v1/clusters/{cluster}/etcd", MetricsMiddleware(s.clusterHandler.HandleEtcd, "etcd"))
}

type urlResponse struct {
	URL string `json:"url"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type installedResponse struct {
	Installed bool `json:"installed"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
