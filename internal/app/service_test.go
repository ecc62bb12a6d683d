package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	service "github.com/okian/monprobe/internal/app"
	"github.com/okian/monprobe/internal/domain/grafana"
	"github.com/okian/monprobe/pkg/logger"
	"github.com/okian/monprobe/pkg/urlutil"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const installed = `[{"counts":{"catalog.cattle.io.app":{"namespaces":{"cattle-monitoring-system":{"count":1}}}}}]`

// stubDispatcher answers by URL substring; clusters records which cluster each dispatcher was built for.
type stubDispatcher struct {
	counts string
	bodies map[string]string
	fail   map[string]error
}

func (s *stubDispatcher) Request(_ context.Context, _ string, opts grafana.RequestOptions) (any, error) {
	for sub, err := range s.fail {
		if strings.Contains(opts.URL, sub) {
			return nil, err
		}
	}
	for sub, body := range s.bodies {
		if strings.Contains(opts.URL, sub) {
			var v any
			_ = json.Unmarshal([]byte(body), &v)
			return v, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *stubDispatcher) FindAll(context.Context, string, string) ([]any, error) {
	var v []any
	_ = json.Unmarshal([]byte(s.counts), &v)
	return v, nil
}

type stubProvider struct {
	mu       sync.Mutex
	d        *stubDispatcher
	clusters []string
}

func (p *stubProvider) ForCluster(clusterID string) grafana.Dispatcher {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clusters = append(p.clusters, clusterID)
	return p.d
}

func matrix(v string) string {
	return `{"data":{"result":[{"values":[[1,"` + v + `"]]}]}}`
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(&stubProvider{d: &stubDispatcher{}})

		Convey("Then it reports the default store", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["store"], ShouldEqual, grafana.DefaultStore)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(&stubProvider{d: &stubDispatcher{}},
			service.WithStore("management"),
			service.WithLogger(logger.Get()),
		)

		So(svc.GetStats()["store"], ShouldEqual, "management")
	})
}

func TestService_Checks(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cluster with monitoring installed", t, func() {
		p := &stubProvider{d: &stubDispatcher{
			counts: installed,
			bodies: map[string]string{"uid/etcd": `{}`, "uid/nodes": `{}`},
		}}
		svc := service.New(p)

		Convey("When rewriting a dashboard URL", func() {
			out := svc.DashboardURL("/d/abc?orgId=1", "c-1", []urlutil.Param{urlutil.P("theme", "dark")})
			So(out, ShouldEqual, "/k8s/clusters/c-1/d/abc?orgId=1&kiosk&theme=dark")
		})

		Convey("When checking installation", func() {
			So(svc.MonitoringInstalled(ctx, "c-1"), ShouldBeTrue)
			So(p.clusters, ShouldResemble, []string{"c-1"})
		})

		Convey("When checking dashboards", func() {
			embed := func(uid string) string {
				return "/api/v1/namespaces/cattle-monitoring-system/services/http:rancher-monitoring-grafana:80/proxy/d/" + uid + "/x"
			}
			So(svc.DashboardExists(ctx, "c-1", embed("etcd")), ShouldBeTrue)
			So(svc.AllDashboardsExist(ctx, "c-1", []string{embed("etcd"), embed("nodes")}), ShouldBeTrue)
			So(svc.AllDashboardsExist(ctx, "c-1", []string{embed("etcd"), embed("gone")}), ShouldBeFalse)
			So(svc.AllDashboardsExist(ctx, "c-1", nil), ShouldBeTrue)

			Convey("Then the stats count every dashboard checked", func() {
				So(svc.GetStats()["dashboardChecks"], ShouldEqual, int64(5))
			})
		})
	})
}

func TestService_EtcdStatus(t *testing.T) {
	ctx := context.Background()

	Convey("Given etcd metrics behind grafana", t, func() {
		Convey("When every query succeeds", func() {
			p := &stubProvider{d: &stubDispatcher{bodies: map[string]string{
				"etcd_server_has_leader":                matrix("1"),
				"etcd_server_leader_changes_seen_total": matrix("2"),
				"etcd_server_proposals_failed_total":    `{"data":{"result":[]}}`,
			}}}
			svc := service.New(p)
			st, err := svc.EtcdStatus(ctx, "c-1")

			Convey("Then the summary combines all three reads", func() {
				So(err, ShouldBeNil)
				So(st, ShouldResemble, service.EtcdStatus{HasLeader: true, LeaderChanges: 2, FailedProposals: 0})
				So(svc.GetStats()["etcdFailures"], ShouldEqual, int64(0))
			})
		})

		Convey("When one query fails", func() {
			boom := errors.New("proxy unavailable")
			p := &stubProvider{d: &stubDispatcher{
				bodies: map[string]string{"etcd_server": matrix("1")},
				fail:   map[string]error{"proposals_failed": boom},
			}}
			svc := service.New(p)
			st, err := svc.EtcdStatus(ctx, "c-1")

			Convey("Then the error is returned with an empty summary", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(st, ShouldResemble, service.EtcdStatus{})
				So(svc.GetStats()["etcdFailures"], ShouldEqual, int64(1))
			})
		})
	})
}
