package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/impactlens/impact-analyzer/pkg/model"
)

// ServiceGraph is the directed weighted dependency graph over services.
// Edge weight counts the distinct references from the source service's
// files that resolve to the target service. The graph is mutated only
// during the build phase; afterwards it is shared read-only.
type ServiceGraph struct {
	graph    *simple.WeightedDirectedGraph
	services map[string]*model.Service
	ids      map[string]int64
	names    map[int64]string
	nextID   int64
}

// NewServiceGraph creates an empty graph
func NewServiceGraph() *ServiceGraph {
	return &ServiceGraph{
		graph:    simple.NewWeightedDirectedGraph(0, 0),
		services: make(map[string]*model.Service),
		ids:      make(map[string]int64),
		names:    make(map[int64]string),
	}
}

// AddService registers a service node. Adding the same name twice is a no-op.
func (sg *ServiceGraph) AddService(svc *model.Service) {
	if _, exists := sg.services[svc.Name]; exists {
		return
	}

	sg.services[svc.Name] = svc
	sg.ids[svc.Name] = sg.nextID
	sg.names[sg.nextID] = svc.Name
	sg.graph.AddNode(simple.Node(sg.nextID))
	sg.nextID++
}

// AddReference adds weight to the edge source -> target, creating it if
// needed. Self-references and references involving unknown services are
// ignored: edges only ever connect registered service nodes.
func (sg *ServiceGraph) AddReference(source, target string, weight int) {
	if source == target || weight <= 0 {
		return
	}

	sourceID, ok := sg.ids[source]
	if !ok {
		return
	}
	targetID, ok := sg.ids[target]
	if !ok {
		return
	}

	w := float64(weight)
	if existing := sg.graph.WeightedEdge(sourceID, targetID); existing != nil {
		w += existing.Weight()
	}
	sg.graph.SetWeightedEdge(sg.graph.NewWeightedEdge(
		simple.Node(sourceID), simple.Node(targetID), w))
}

// Service returns a registered service by name
func (sg *ServiceGraph) Service(name string) (*model.Service, bool) {
	svc, ok := sg.services[name]
	return svc, ok
}

// Services returns all service names sorted for stable iteration
func (sg *ServiceGraph) Services() []string {
	names := make([]string, 0, len(sg.services))
	for name := range sg.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Weight returns the edge weight from source to target, 0 if no edge exists
func (sg *ServiceGraph) Weight(source, target string) int {
	sourceID, ok := sg.ids[source]
	if !ok {
		return 0
	}
	targetID, ok := sg.ids[target]
	if !ok {
		return 0
	}
	edge := sg.graph.WeightedEdge(sourceID, targetID)
	if edge == nil {
		return 0
	}
	return int(edge.Weight())
}

// Dependencies returns the outgoing edges of a service sorted by target name
func (sg *ServiceGraph) Dependencies(source string) []model.EdgeWeight {
	sourceID, ok := sg.ids[source]
	if !ok {
		return nil
	}

	var deps []model.EdgeWeight
	iter := sg.graph.From(sourceID)
	for iter.Next() {
		targetID := iter.Node().ID()
		edge := sg.graph.WeightedEdge(sourceID, targetID)
		if edge == nil {
			continue
		}
		deps = append(deps, model.EdgeWeight{
			Target: sg.names[targetID],
			Weight: int(edge.Weight()),
		})
	}

	sort.Slice(deps, func(i, j int) bool { return deps[i].Target < deps[j].Target })
	return deps
}

// EdgeCount returns the total number of edges in the graph
func (sg *ServiceGraph) EdgeCount() int {
	count := 0
	iter := sg.graph.Edges()
	for iter.Next() {
		count++
	}
	return count
}

// Snapshot serializes the graph into the per-service report form,
// sorted by service name
func (sg *ServiceGraph) Snapshot() []model.ServiceDeps {
	out := make([]model.ServiceDeps, 0, len(sg.services))
	for _, name := range sg.Services() {
		deps := sg.Dependencies(name)
		if deps == nil {
			deps = []model.EdgeWeight{}
		}
		out = append(out, model.ServiceDeps{
			Service: name,
			Files:   len(sg.services[name].Files),
			Deps:    deps,
		})
	}
	return out
}
