package graph

import (
	"fmt"

	"github.com/genomewalker/resonantdb/pkg/rerr"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Strengthen raises id's confidence by the absolute delta Δ (§4.5).
func (g *Graph) Strengthen(id types.NodeID, delta float64) error {
	_, err := g.store.Update(id, func(n *types.Node) error {
		n.Confidence = n.Confidence.Strengthen(delta)
		return nil
	})
	return err
}

// Weaken lowers id's confidence by the absolute delta Δ (§4.5).
func (g *Graph) Weaken(id types.NodeID, delta float64) error {
	_, err := g.store.Update(id, func(n *types.Node) error {
		n.Confidence = n.Confidence.Weaken(delta)
		return nil
	})
	return err
}

// HebbianStrengthen raises the weight of (a→b, Similar) and (b→a, Similar),
// creating either edge if absent, clamped to 1 (§4.5).
func (g *Graph) HebbianStrengthen(a, b types.NodeID, delta float64) error {
	if err := g.bumpEdge(a, b, delta); err != nil {
		return err
	}
	return g.bumpEdge(b, a, delta)
}

func (g *Graph) bumpEdge(from, to types.NodeID, delta float64) error {
	n, ok := g.store.Get(from)
	if !ok {
		return rerr.New(rerr.NotFound, "graph: node %s not found", from)
	}
	weight := delta
	if existing, found := n.FindEdge(to, types.Similar); found {
		weight = existing.Weight + delta
	}
	if weight > 1 {
		weight = 1
	}
	return g.store.PutEdge(from, types.Edge{Target: to, Type: types.Similar, Weight: weight})
}

// ConnectTriplet implements §4.5's connect_triplet: it ensures Entity nodes
// exist for subject and object (creating them with a zero embedding if
// absent), records the triplet, and links the two endpoints with
// bidirectional Mentions edges.
func (g *Graph) ConnectTriplet(subject, predicate, object string, weight float64, nowMs int64) (subjectID, objectID types.NodeID, err error) {
	subjectID, err = g.ensureEntity(subject, nowMs)
	if err != nil {
		return
	}
	objectID, err = g.ensureEntity(object, nowMs)
	if err != nil {
		return
	}

	g.triplets.Add(types.Triplet{Subject: subject, Predicate: predicate, Object: object, Weight: weight})

	if err = g.store.PutEdge(subjectID, types.Edge{Target: objectID, Type: types.Mentions, Weight: weight}); err != nil {
		return
	}
	err = g.store.PutEdge(objectID, types.Edge{Target: subjectID, Type: types.Mentions, Weight: weight})
	return
}

func (g *Graph) ensureEntity(name string, nowMs int64) (types.NodeID, error) {
	if id, ok := g.triplets.EntityNode(name); ok {
		if _, ok := g.store.Get(id); ok {
			return id, nil
		}
	}
	id, err := types.NewNodeID(nowMs)
	if err != nil {
		return types.NodeID{}, err
	}
	n := types.NewNode(id, types.Entity, types.QuantizedVector{}, []byte(name), 0.5, nowMs)
	n.AddTag(fmt.Sprintf("entity:%s", name))
	if err := g.store.Put(n); err != nil {
		return types.NodeID{}, err
	}
	g.triplets.BindEntity(name, id)
	return id, nil
}

// QueryGraph implements §6's query_graph(s?, p?, o?), delegating to the
// triplet index with empty strings treated as wildcards.
func (g *Graph) QueryGraph(subject, predicate, object string) []types.Triplet {
	return g.triplets.Query(subject, predicate, object)
}
