package grafana

import (
	"context"

	"github.com/okian/monprobe/pkg/safe"
)

// IsMonitoringInstalled reports whether the monitoring app has been
// installed into MonitoringNamespace, according to the store's count
// resource. Lookup failures and missing keys both report false.
func IsMonitoringInstalled(ctx context.Context, d Dispatcher, store string) bool {
	counts, err := d.FindAll(ctx, storeOrDefault(store), CountType)
	if err != nil {
		return false
	}
	return safe.Truthy(counts, 0, "counts", appCountKey, "namespaces", MonitoringNamespace)
}
