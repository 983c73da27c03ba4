package mind

import (
	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Strengthen implements §6's strengthen(id, Δ).
func (m *Mind) Strengthen(id types.NodeID, delta float64) error {
	return m.graph.Strengthen(id, delta)
}

// Weaken implements §6's weaken(id, Δ).
func (m *Mind) Weaken(id types.NodeID, delta float64) error {
	return m.graph.Weaken(id, delta)
}

// HebbianStrengthen implements §6's hebbian_strengthen(a, b, Δ).
func (m *Mind) HebbianStrengthen(a, b types.NodeID, delta float64) error {
	return m.graph.HebbianStrengthen(a, b, delta)
}

// Connect implements §6's connect(a, b, edge_type, weight): a direct edge
// between two existing nodes, distinct from ConnectTriplet's subject/
// predicate/object entity-mention form.
func (m *Mind) Connect(a, b types.NodeID, edgeType types.EdgeType, weight float64) error {
	return m.store.PutEdge(a, types.Edge{Target: b, Type: edgeType, Weight: weight})
}

// ConnectTriplet implements §6's connect(subject, predicate, object,
// weight) overload.
func (m *Mind) ConnectTriplet(subject, predicate, object string, weight float64) (subjectID, objectID types.NodeID, err error) {
	return m.graph.ConnectTriplet(subject, predicate, object, weight, m.nowFn())
}

// QueryGraph implements §6's query_graph(s?, p?, o?); empty strings are
// wildcards.
func (m *Mind) QueryGraph(subject, predicate, object string) []types.Triplet {
	return m.graph.QueryGraph(subject, predicate, object)
}

// PropagateConfidence implements §6's propagate_confidence(id, Δ,
// decay_factor, max_depth).
func (m *Mind) PropagateConfidence(id types.NodeID, delta, decayFactor float64, maxDepth int) ([]graph.Applied, float64, error) {
	return m.graph.PropagateConfidence(id, delta, decayFactor, maxDepth)
}

// Forget implements §6's forget(id, cascade, rewire, cascade_strength).
func (m *Mind) Forget(id types.NodeID, cascade, rewire bool, cascadeStrength float64) error {
	return m.graph.Forget(id, cascade, rewire, cascadeStrength, m.nowFn())
}
