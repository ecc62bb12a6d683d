package grafana_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/okian/monprobe/internal/domain/grafana"
)

var errBackend = errors.New("backend unavailable")

// fakeDispatcher answers requests from canned JSON keyed by URL substring.
type fakeDispatcher struct {
	mu sync.Mutex

	counts    string
	countsErr error

	// responses maps a URL substring to a JSON body; errs maps one to a failure.
	responses map[string]string
	errs      map[string]error

	requests []grafana.RequestOptions
	stores   []string
	findAll  int
}

func (f *fakeDispatcher) Request(_ context.Context, store string, opts grafana.RequestOptions) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, opts)
	f.stores = append(f.stores, store)
	for sub, err := range f.errs {
		if strings.Contains(opts.URL, sub) {
			return nil, err
		}
	}
	for sub, body := range f.responses {
		if strings.Contains(opts.URL, sub) {
			return decode(body), nil
		}
	}
	return nil, errors.New("404 not found")
}

func (f *fakeDispatcher) FindAll(_ context.Context, store, resourceType string) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findAll++
	f.stores = append(f.stores, store)
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	if resourceType != grafana.CountType || f.counts == "" {
		return nil, nil
	}
	out, _ := decode(f.counts).([]any)
	return out, nil
}

func (f *fakeDispatcher) urls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.URL
	}
	return out
}

func decode(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}

const installedCounts = `[{"counts":{"catalog.cattle.io.app":{"summary":{"count":3},"namespaces":{"cattle-monitoring-system":{"count":2}}}}}]`

const notInstalledCounts = `[{"counts":{"catalog.cattle.io.app":{"summary":{"count":1},"namespaces":{"fleet-system":{"count":1}}}}}]`

func matrix(value string) string {
	return `{"status":"success","data":{"resultType":"matrix","result":[{"metric":{},"values":[[1700000000,"` + value + `"]]}]}}`
}

const emptyMatrix = `{"status":"success","data":{"resultType":"matrix","result":[]}}`
