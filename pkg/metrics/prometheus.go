// Package metrics provides Prometheus metrics for the monitoring probe service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by check and query metrics.
const (
	OutcomeTrue    = "true"
	OutcomeFalse   = "false"
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// latencyBuckets are in milliseconds; proxied Grafana calls are slow.
var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // read-only

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Outbound dispatcher
	dispatchRequests *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchThrottle prometheus.Histogram

	// Probe results
	installChecks   *prometheus.CounterVec
	dashboardChecks *prometheus.CounterVec
	grafanaQueries  *prometheus.CounterVec
	grafanaLatency  *prometheus.HistogramVec

	// Last observed etcd health, per cluster
	etcdHasLeader       *prometheus.GaugeVec
	etcdLeaderChanges   *prometheus.GaugeVec
	etcdFailedProposals *prometheus.GaugeVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "monprobe",
		subsystem:        "",
		histogramBuckets: latencyBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total", "HTTP responses with status >= 400 by endpoint and error type", "endpoint", "method", "error_type")

	m.dispatchRequests = m.counterVec("dispatch_requests_total", "Requests sent to the Rancher API by store and status", "store", "status_code")
	m.dispatchDuration = m.histogramVec("dispatch_request_duration_milliseconds", "Rancher API request duration in milliseconds", "store")
	m.dispatchThrottle = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "dispatch_throttle_wait_milliseconds",
		Help:        "Time spent waiting on the client-side rate limiter",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	})

	m.installChecks = m.counterVec("install_checks_total", "Monitoring install checks by result", "result")
	m.dashboardChecks = m.counterVec("dashboard_checks_total", "Dashboard existence checks by result", "result")
	m.grafanaQueries = m.counterVec("grafana_queries_total", "Grafana range queries by query and outcome", "query", "outcome")
	m.grafanaLatency = m.histogramVec("grafana_query_duration_milliseconds", "Grafana range query duration in milliseconds", "query")

	m.etcdHasLeader = m.gaugeVec("etcd_has_leader", "1 when the last etcd has_leader sample was 1", "cluster")
	m.etcdLeaderChanges = m.gaugeVec("etcd_leader_changes", "Last observed etcd leader changes over the past hour", "cluster")
	m.etcdFailedProposals = m.gaugeVec("etcd_failed_proposals", "Last observed etcd failed proposals over the past hour", "cluster")

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Allocated heap bytes",
		ConstLabels: m.constLabels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})
}

// BoolOutcome maps a check result to its outcome label.
func BoolOutcome(ok bool) string {
	if ok {
		return OutcomeTrue
	}
	return OutcomeFalse
}

// RecordHTTPRequest records one served request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordDispatch records an outbound Rancher API request. statusCode is "0"
// when no response was received.
func RecordDispatch(store, statusCode string, durationMs float64) {
	globalManager.dispatchRequests.WithLabelValues(store, statusCode).Inc()
	globalManager.dispatchDuration.WithLabelValues(store).Observe(durationMs)
}

// RecordDispatchThrottle records time spent waiting for the rate limiter.
func RecordDispatchThrottle(waitMs float64) {
	globalManager.dispatchThrottle.Observe(waitMs)
}

// RecordInstallCheck counts a monitoring install check.
func RecordInstallCheck(installed bool) {
	globalManager.installChecks.WithLabelValues(BoolOutcome(installed)).Inc()
}

// RecordDashboardCheck counts a dashboard existence check.
func RecordDashboardCheck(exists bool) {
	globalManager.dashboardChecks.WithLabelValues(BoolOutcome(exists)).Inc()
}

// RecordGrafanaQuery counts a range query. outcome must be OutcomeSuccess or OutcomeError.
func RecordGrafanaQuery(query, outcome string, durationMs float64) error {
	if outcome != OutcomeSuccess && outcome != OutcomeError {
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
	globalManager.grafanaQueries.WithLabelValues(query, outcome).Inc()
	globalManager.grafanaLatency.WithLabelValues(query).Observe(durationMs)
	return nil
}

// UpdateEtcdStatus publishes the last etcd health read for cluster.
func UpdateEtcdStatus(cluster string, hasLeader bool, leaderChanges, failedProposals float64) {
	leader := 0.0
	if hasLeader {
		leader = 1
	}
	globalManager.etcdHasLeader.WithLabelValues(cluster).Set(leader)
	globalManager.etcdLeaderChanges.WithLabelValues(cluster).Set(leaderChanges)
	globalManager.etcdFailedProposals.WithLabelValues(cluster).Set(failedProposals)
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
