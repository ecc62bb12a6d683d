package api

import (
	"fmt"
	"net/http"

	"github.com/okian/monprobe/internal/domain/grafana"
)

// ClusterGuard resolves the {cluster} path value. Ids must be a single safe
// path segment and, when an allow-list is set, one of the listed clusters.
type ClusterGuard struct {
	allowed map[string]struct{}
}

// NewClusterGuard creates a guard. An empty allowed list accepts any
// well-formed id.
func NewClusterGuard(allowed []string) *ClusterGuard {
	g := &ClusterGuard{}
	if len(allowed) > 0 {
		g.allowed = make(map[string]struct{}, len(allowed))
		for _, id := range allowed {
			g.allowed[id] = struct{}{}
		}
	}
	return g
}

// Resolve returns the cluster id of r, or writes a 400/404 and returns false.
func (g *ClusterGuard) Resolve(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("cluster")
	if !grafana.ValidClusterID(id) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid cluster id", ErrBadRequest))
		return "", false
	}
	if g.allowed != nil {
		if _, ok := g.allowed[id]; !ok {
			writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: %s", ErrUnknownCluster, id))
			return "", false
		}
	}
	return id, true
}
