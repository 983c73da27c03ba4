// Package graph implements the reverse-edge index and the graph operations
// of §4.5: strengthen/weaken, hebbian_strengthen, connect_triplet,
// propagate_confidence, and forget. Grounded on the teacher's
// pkg/linkpredict/topology.go for the adjacency-map/BFS idiom (Graph as a
// map keyed by node, traversal via neighbor sets) and pkg/decay/decay.go for
// the confidence-reinforcement shape that strengthen/weaken follow.
package graph

import (
	"sync"

	"github.com/genomewalker/resonantdb/pkg/rlog"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/tripletindex"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// ReverseEdge is one incoming edge, as seen from the target's side.
type ReverseEdge struct {
	Source types.NodeID
	Type   types.EdgeType
	Weight float64
}

// Graph wires the reverse-edge index and triplet/entity bookkeeping off the
// store's mutation hook (§4.5: "a separate reverse-edge index maps target ->
// list of (source, type, weight)").
type Graph struct {
	store    *store.Store
	triplets *tripletindex.Index
	log      *rlog.Logger

	mu      sync.RWMutex
	reverse map[types.NodeID][]ReverseEdge
}

// New builds a Graph over an already-open store, subscribing to its
// mutation stream and backfilling the reverse index from every live node.
func New(s *store.Store, triplets *tripletindex.Index) *Graph {
	g := &Graph{
		store:    s,
		triplets: triplets,
		log:      rlog.New("graph"),
		reverse:  make(map[types.NodeID][]ReverseEdge),
	}
	_ = s.ForEachNode(func(n *types.Node) bool {
		for _, e := range n.Edges {
			g.addReverse(n.ID, e)
		}
		return true
	})
	s.Subscribe(g.onMutation)
	return g
}

func (g *Graph) onMutation(ev store.MutationEvent) {
	switch ev.Kind {
	case store.MutationEdgeAdded:
		g.addReverse(ev.From, *ev.Edge)
	case store.MutationEdgeRemoved:
		g.removeReverse(ev.From, *ev.Edge)
	case store.MutationRemoved:
		g.dropNode(ev.From)
	}
}

func (g *Graph) addReverse(from types.NodeID, e types.Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	list := g.reverse[e.Target]
	for i, re := range list {
		if re.Source == from && re.Type == e.Type {
			list[i].Weight = e.Weight
			return
		}
	}
	g.reverse[e.Target] = append(list, ReverseEdge{Source: from, Type: e.Type, Weight: e.Weight})
}

func (g *Graph) removeReverse(from types.NodeID, e types.Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	list := g.reverse[e.Target]
	for i, re := range list {
		if re.Source == from && re.Type == e.Type {
			g.reverse[e.Target] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (g *Graph) dropNode(id types.NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.reverse, id)
	for target, list := range g.reverse {
		kept := list[:0]
		for _, re := range list {
			if re.Source != id {
				kept = append(kept, re)
			}
		}
		g.reverse[target] = kept
	}
}

// Incoming returns the edges pointing at id (O(deg) per §4.5).
func (g *Graph) Incoming(id types.NodeID) []ReverseEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ReverseEdge, len(g.reverse[id]))
	copy(out, g.reverse[id])
	return out
}

// Outgoing returns id's outgoing edges directly from the node, since edges
// live inside nodes (§4.5).
func (g *Graph) Outgoing(id types.NodeID) []types.Edge {
	n, ok := g.store.Get(id)
	if !ok {
		return nil
	}
	return n.Edges
}
