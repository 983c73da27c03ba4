package dynamics

import (
	"context"

	"github.com/genomewalker/resonantdb/pkg/resonance"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// settleAttractors implements §4.7 step 5: detect attractors, then nudge
// every non-attractor node's embedding one bounded step toward its nearest
// attractor, scaled by SettleStrength.
func (e *Engine) settleAttractors(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	attractors, err := resonance.FindAttractors(e.store, e.graph, e.nowFn(), e.config.AttractorMax)
	if err != nil {
		return err
	}
	return SettleToward(e.store, attractors, e.config.SettleStrength)
}

// SettleToward nudges every node outside the given attractors' id set one
// bounded step toward its nearest attractor embedding, scaled by strength.
// Exported so run_attractor_dynamics(max, strength) can invoke the same
// settling logic outside the regular tick, with a caller-chosen strength.
func SettleToward(s *store.Store, attractors []resonance.Attractor, strength float64) error {
	if len(attractors) == 0 {
		return nil
	}

	attractorSet := make(map[types.NodeID]types.QuantizedVector, len(attractors))
	for _, a := range attractors {
		n, ok := s.Get(a.ID)
		if !ok {
			continue
		}
		attractorSet[a.ID] = n.Embedding
	}

	var targets []types.NodeID
	err := s.ForEachNode(func(n *types.Node) bool {
		if n.Tombstoned {
			return true
		}
		if _, isAttractor := attractorSet[n.ID]; isAttractor {
			return true
		}
		targets = append(targets, n.ID)
		return true
	})
	if err != nil {
		return err
	}

	for _, id := range targets {
		n, ok := s.Get(id)
		if !ok {
			continue
		}
		nearest, _, found := nearestAttractor(n.Embedding, attractorSet)
		if !found {
			continue
		}
		settled := settleToward(n.Embedding, nearest, strength)
		if _, err := s.Update(id, func(node *types.Node) error {
			node.Embedding = settled
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func nearestAttractor(v types.QuantizedVector, attractors map[types.NodeID]types.QuantizedVector) (types.QuantizedVector, float64, bool) {
	var best types.QuantizedVector
	bestSim := -2.0
	found := false
	for _, av := range attractors {
		sim := v.ApproxCosine(av)
		if sim > bestSim {
			bestSim = sim
			best = av
			found = true
		}
	}
	return best, bestSim, found
}

// settleToward moves v one step toward target by strength, then
// re-quantizes: v' = v + strength·(target − v).
func settleToward(v, target types.QuantizedVector, strength float64) types.QuantizedVector {
	vf := v.Float32()
	tf := target.Float32()
	out := make([]float32, types.EmbeddingDims)
	for i := range out {
		out[i] = vf[i] + float32(strength)*(tf[i]-vf[i])
	}
	return types.Quantize(out)
}
