// Package service wires the grafana helpers to a dispatcher and exposes
// them to the HTTP API with logging and metrics.
package service

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/monprobe/internal/domain/grafana"
	"github.com/okian/monprobe/pkg/logger"
	"github.com/okian/monprobe/pkg/metrics"
	"github.com/okian/monprobe/pkg/urlutil"
)

// DispatcherProvider hands out a dispatcher routed to one cluster.
type DispatcherProvider interface {
	ForCluster(clusterID string) grafana.Dispatcher
}

// EtcdStatus is the etcd health summary shown on the cluster dashboard.
type EtcdStatus struct {
	HasLeader       bool    `json:"hasLeader"`
	LeaderChanges   float64 `json:"leaderChanges"`
	FailedProposals float64 `json:"failedProposals"`
}

// Service implements the API dependencies.
type Service struct {
	provider DispatcherProvider
	store    string
	logger   logger.Logger
	started  time.Time

	installChecks   atomic.Int64
	dashboardChecks atomic.Int64
	etcdReads       atomic.Int64
	etcdFailures    atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the store used for install and dashboard checks.
func WithStore(store string) Option {
	return func(s *Service) {
		if store != "" {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service backed by provider.
func New(provider DispatcherProvider, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		store:    grafana.DefaultStore,
		logger:   logger.Nop(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("probe")
	return s
}

// DashboardURL rewrites embedURL for clusterID.
func (s *Service) DashboardURL(embedURL, clusterID string, params []urlutil.Param) string {
	return grafana.ComputeDashboardURL(embedURL, clusterID, params)
}

// MonitoringInstalled reports whether monitoring is installed on clusterID.
func (s *Service) MonitoringInstalled(ctx context.Context, clusterID string) bool {
	s.installChecks.Add(1)
	ok := grafana.IsMonitoringInstalled(ctx, s.provider.ForCluster(clusterID), s.store)
	metrics.RecordInstallCheck(ok)
	s.logger.Debug(ctx, "monitoring install check", logger.String("cluster", clusterID), logger.Bool("installed", ok))
	return ok
}

// DashboardExists reports whether the dashboard behind embedURL exists on clusterID.
func (s *Service) DashboardExists(ctx context.Context, clusterID, embedURL string) bool {
	s.dashboardChecks.Add(1)
	ok := grafana.DashboardExists(ctx, s.provider.ForCluster(clusterID), clusterID, embedURL, s.store)
	metrics.RecordDashboardCheck(ok)
	return ok
}

// AllDashboardsExist reports whether every dashboard in embedURLs exists on clusterID.
func (s *Service) AllDashboardsExist(ctx context.Context, clusterID string, embedURLs []string) bool {
	s.dashboardChecks.Add(int64(len(embedURLs)))
	ok := grafana.AllDashboardsExist(ctx, s.provider.ForCluster(clusterID), clusterID, embedURLs, s.store)
	metrics.RecordDashboardCheck(ok)
	s.logger.Debug(ctx, "dashboard existence check",
		logger.String("cluster", clusterID),
		logger.Int("dashboards", len(embedURLs)),
		logger.Bool("exists", ok),
	)
	return ok
}

// EtcdStatus reads the three etcd health values concurrently. The first
// failing query cancels the others and its error is returned.
func (s *Service) EtcdStatus(ctx context.Context, clusterID string) (EtcdStatus, error) {
	s.etcdReads.Add(1)
	d := s.provider.ForCluster(clusterID)

	var st EtcdStatus
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		st.HasLeader, err = timed(grafana.QueryHasLeader, func() (bool, error) {
			return grafana.HasLeader(gctx, d, clusterID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		st.LeaderChanges, err = timed(grafana.QueryLeaderChanges, func() (float64, error) {
			return grafana.LeaderChanges(gctx, d, clusterID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		st.FailedProposals, err = timed(grafana.QueryFailedProposals, func() (float64, error) {
			return grafana.FailedProposals(gctx, d, clusterID)
		})
		return err
	})

	if err := g.Wait(); err != nil {
		s.etcdFailures.Add(1)
		s.logger.Warn(ctx, "etcd status read failed", logger.String("cluster", clusterID), logger.Error(err))
		return EtcdStatus{}, err
	}

	metrics.UpdateEtcdStatus(clusterID, st.HasLeader, st.LeaderChanges, st.FailedProposals)
	return st, nil
}

// timed runs fn and records its latency and outcome under query.
func timed[T any](query string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	_ = metrics.RecordGrafanaQuery(query, outcome, float64(time.Since(start).Microseconds())/1000)
	return v, err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"store":           s.store,
		"uptimeSeconds":   int64(time.Since(s.started).Seconds()),
		"installChecks":   s.installChecks.Load(),
		"dashboardChecks": s.dashboardChecks.Load(),
		"etcdReads":       s.etcdReads.Load(),
		"etcdFailures":    s.etcdFailures.Load(),
	}
}
