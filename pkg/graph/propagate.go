package graph

import (
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Applied is one (id, applied_delta) pair from PropagateConfidence.
type Applied struct {
	ID    types.NodeID
	Delta float64
}

// PropagateConfidence implements §4.5's propagate_confidence: a BFS outward
// from id, where the delta applied at depth d is Δ·decay_factor^d·edge.weight.
// Each node is visited at most once, breaking cycles. Returns every applied
// delta and their sum.
func (g *Graph) PropagateConfidence(id types.NodeID, delta, decayFactor float64, maxDepth int) ([]Applied, float64, error) {
	type frontierEntry struct {
		id    types.NodeID
		depth int
	}

	visited := map[types.NodeID]bool{id: true}
	queue := []frontierEntry{{id: id, depth: 0}}
	var applied []Applied
	var sum float64

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, e := range g.Outgoing(cur.id) {
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			depth := cur.depth + 1
			d := delta * pow(decayFactor, depth) * e.Weight
			if err := g.Strengthen(e.Target, d); err != nil {
				return applied, sum, err
			}
			applied = append(applied, Applied{ID: e.Target, Delta: d})
			sum += d
			queue = append(queue, frontierEntry{id: e.Target, depth: depth})
		}
	}
	return applied, sum, nil
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
