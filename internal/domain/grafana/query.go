package grafana

import (
	"context"
	"strconv"
	"time"

	"github.com/okian/monprobe/pkg/safe"
)

// Etcd health queries.
const (
	QueryHasLeader       = "max(etcd_server_has_leader)"
	QueryLeaderChanges   = "max(etcd_server_leader_changes_seen_total)"
	QueryFailedProposals = "sum(etcd_server_proposals_failed_total)"

	defaultStepSeconds = 30
	leaderWindow       = 5 * time.Minute
	historyWindow      = 60 * time.Minute
)

// Now is the clock used for query windows.
var Now = time.Now //nolint:gochecknoglobals // overridable in tests

// TimeRange is a query window in Unix epoch seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// LastWindow returns the window of length d ending at now.
func LastWindow(now time.Time, d time.Duration) TimeRange {
	end := float64(now.Unix()) + float64(now.Nanosecond())/float64(time.Second)
	return TimeRange{Start: end - d.Seconds(), End: end}
}

// QueryGrafana runs promQuery as a range query through Grafana's first
// datasource proxy. The query is embedded verbatim; callers must pass a
// URL-safe expression.
func QueryGrafana(ctx context.Context, d Dispatcher, clusterID, promQuery string, r TimeRange, stepSeconds int) (any, error) {
	u := grafanaProxyBase(clusterID) + "api/datasources/proxy/1/api/v1/query_range" +
		"?query=" + promQuery +
		"&start=" + formatEpoch(r.Start) +
		"&end=" + formatEpoch(r.End) +
		"&step=" + strconv.Itoa(stepSeconds)

	return d.Request(ctx, DefaultStore, RequestOptions{URL: u, RedirectUnauthorized: false})
}

// HasLeader reports whether etcd's most recent has_leader sample is exactly "1".
func HasLeader(ctx context.Context, d Dispatcher, clusterID string) (bool, error) {
	resp, err := QueryGrafana(ctx, d, clusterID, QueryHasLeader, LastWindow(Now(), leaderWindow), defaultStepSeconds)
	if err != nil {
		return false, err
	}
	return latestSample(resp, "") == "1", nil
}

// LeaderChanges returns the most recent leader change count over the last hour, or 0.
func LeaderChanges(ctx context.Context, d Dispatcher, clusterID string) (float64, error) {
	resp, err := QueryGrafana(ctx, d, clusterID, QueryLeaderChanges, LastWindow(Now(), historyWindow), defaultStepSeconds)
	if err != nil {
		return 0, err
	}
	return safe.Float64(resp, 0, samplePath...), nil
}

// FailedProposals returns the most recent failed proposal total over the last hour, or 0.
func FailedProposals(ctx context.Context, d Dispatcher, clusterID string) (float64, error) {
	resp, err := QueryGrafana(ctx, d, clusterID, QueryFailedProposals, LastWindow(Now(), historyWindow), defaultStepSeconds)
	if err != nil {
		return 0, err
	}
	return safe.Float64(resp, 0, samplePath...), nil
}

// samplePath addresses data.result[0].values[0][1].
var samplePath = []any{"data", "result", 0, "values", 0, 1} //nolint:gochecknoglobals // read-only

func latestSample(resp any, def string) string {
	return safe.String(resp, def, samplePath...)
}

func formatEpoch(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}
