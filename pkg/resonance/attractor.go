package resonance

import (
	"math"
	"sort"

	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/types"
)

const (
	attractorMinEffective = 0.6
	attractorMinEdges     = 2
	attractorBasinHops    = 2

	// ageScoreSaturationDays is the age (in days) past which age_score
	// saturates at 1 (§4.6 names the term but not its curve; a year of
	// persistence is treated as "fully established").
	ageScoreSaturationDays = 365.0
)

// Attractor is one of up to 5 gravity wells discovered per §4.6 phase 3.
type Attractor struct {
	ID       types.NodeID
	Strength float64
	Basin    map[types.NodeID]bool
}

// FindAttractors identifies up to max attractors: nodes with effective ≥ 0.6
// and at least 2 (outgoing) edges, scored by
// 0.4·effective + 0.3·log(1+|edges|) + 0.3·age_score, each paired with its
// ≤2-hop basin.
func FindAttractors(s *store.Store, g *graph.Graph, nowMs int64, max int) ([]Attractor, error) {
	type candidate struct {
		id    types.NodeID
		score float64
	}
	var candidates []candidate

	err := s.ForEachNode(func(n *types.Node) bool {
		if n.Tombstoned {
			return true
		}
		eff := n.Confidence.Effective()
		if eff < attractorMinEffective || len(n.Edges) < attractorMinEdges {
			return true
		}
		age := ageScore(n, nowMs)
		score := 0.4*eff + 0.3*math.Log(1+float64(len(n.Edges))) + 0.3*age
		candidates = append(candidates, candidate{id: n.ID, score: score})
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id.Less(candidates[j].id)
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}

	attractors := make([]Attractor, 0, len(candidates))
	for _, c := range candidates {
		attractors = append(attractors, Attractor{
			ID:       c.id,
			Strength: c.score,
			Basin:    basinOf(g, c.id, attractorBasinHops),
		})
	}
	return attractors, nil
}

func ageScore(n *types.Node, nowMs int64) float64 {
	ageDays := float64(nowMs-n.TauCreated) / 86_400_000.0
	if ageDays <= 0 {
		return 0
	}
	v := math.Log1p(ageDays) / math.Log1p(ageScoreSaturationDays)
	if v > 1 {
		v = 1
	}
	return v
}

// basinOf returns the set of nodes reachable from id within hops steps via
// outgoing edges, including id itself.
func basinOf(g *graph.Graph, id types.NodeID, hops int) map[types.NodeID]bool {
	basin := map[types.NodeID]bool{id: true}
	frontier := []types.NodeID{id}
	for h := 0; h < hops; h++ {
		var next []types.NodeID
		for _, cur := range frontier {
			for _, e := range g.Outgoing(cur) {
				if !basin[e.Target] {
					basin[e.Target] = true
					next = append(next, e.Target)
				}
			}
		}
		frontier = next
	}
	return basin
}
