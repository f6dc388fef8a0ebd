package impact

import (
	"github.com/impactlens/impact-analyzer/pkg/graph"
	"github.com/impactlens/impact-analyzer/pkg/logging"
	"github.com/impactlens/impact-analyzer/pkg/model"
)

// Thresholds tune the risk tier derivation. Values are configuration, not
// constants, so sensitivity can be adjusted per repository scale.
type Thresholds struct {
	// HighIndirect: indirect impact sets of this size or larger are HIGH
	HighIndirect int

	// HighEdgeWeight: any outgoing edge of a directly impacted service
	// with this weight or more makes the change HIGH
	HighEdgeWeight int
}

// DefaultThresholds returns the documented default tuning
func DefaultThresholds() Thresholds {
	return Thresholds{HighIndirect: 3, HighEdgeWeight: 5}
}

// Resolver computes impact sets and the risk tier from a built graph.
// It only reads the graph and never mutates it.
type Resolver struct {
	thresholds Thresholds
}

// NewResolver creates a Resolver. Non-positive threshold fields fall back
// to the defaults.
func NewResolver(t Thresholds) *Resolver {
	defaults := DefaultThresholds()
	if t.HighIndirect <= 0 {
		t.HighIndirect = defaults.HighIndirect
	}
	if t.HighEdgeWeight <= 0 {
		t.HighEdgeWeight = defaults.HighEdgeWeight
	}
	return &Resolver{thresholds: t}
}

// Resolve maps changed files to their owning services (direct set),
// computes the transitive closure over outgoing edges (indirect set), and
// derives the risk tier. Changed files that match no known service are
// reported as unattributed and do not drive traversal.
func (r *Resolver) Resolve(sg *graph.ServiceGraph, title string, changed []string) *model.ImpactReport {
	report := &model.ImpactReport{
		Title:        title,
		ChangedFiles: changed,
		Direct:       []string{},
		Indirect:     []string{},
		Risk:         model.RiskNone,
		Graph:        sg.Snapshot(),
	}

	direct := r.attribute(sg, changed, report)
	for name := range direct {
		report.Direct = append(report.Direct, name)
	}

	indirect := r.closure(sg, direct)
	for name := range indirect {
		report.Indirect = append(report.Indirect, name)
	}

	report.Risk = r.tier(sg, direct, indirect)
	report.SortSets()
	return report
}

// attribute maps changed files to owning services. A file matching no
// service is informational, not an error.
func (r *Resolver) attribute(sg *graph.ServiceGraph, changed []string, report *model.ImpactReport) map[string]bool {
	direct := make(map[string]bool)
	for _, path := range changed {
		owner := ""
		for _, name := range sg.Services() {
			svc, _ := sg.Service(name)
			if svc.OwnsFile(path) {
				owner = name
				break
			}
		}
		if owner == "" {
			logging.Info("changed file not attributed to any service", "path", path)
			report.Unattributed = append(report.Unattributed, path)
			continue
		}
		direct[owner] = true
	}
	return direct
}

// closure runs a breadth-first traversal over outgoing edges from every
// directly impacted service. The visited set guarantees termination on
// cyclic graphs; services already in the direct set are never added to
// the indirect set.
func (r *Resolver) closure(sg *graph.ServiceGraph, direct map[string]bool) map[string]bool {
	visited := make(map[string]bool)
	queue := make([]string, 0, len(direct))
	for name := range direct {
		visited[name] = true
		queue = append(queue, name)
	}

	indirect := make(map[string]bool)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dep := range sg.Dependencies(current) {
			if visited[dep.Target] {
				continue
			}
			visited[dep.Target] = true
			indirect[dep.Target] = true
			queue = append(queue, dep.Target)
		}
	}
	return indirect
}

// tier derives the risk classification:
//
//	HIGH    indirect set size >= HighIndirect, or any outgoing edge of a
//	        direct service has weight >= HighEdgeWeight
//	MEDIUM  direct and indirect both non-empty, below the HIGH thresholds
//	LOW     direct non-empty, indirect empty
//	NONE    direct empty
func (r *Resolver) tier(sg *graph.ServiceGraph, direct, indirect map[string]bool) model.RiskTier {
	if len(direct) == 0 {
		return model.RiskNone
	}

	if len(indirect) >= r.thresholds.HighIndirect {
		return model.RiskHigh
	}
	for name := range direct {
		for _, dep := range sg.Dependencies(name) {
			if dep.Weight >= r.thresholds.HighEdgeWeight {
				return model.RiskHigh
			}
		}
	}

	if len(indirect) > 0 {
		return model.RiskMedium
	}
	return model.RiskLow
}
