package dynamics

import (
	"math"

	"github.com/genomewalker/resonantdb/pkg/types"
)

const millisPerDay = 86_400_000.0

// ApplyDecay implements §4.7 step 1: for every hot node,
// mu ← mu·exp(−decay_rate·Δt_days); tau_accessed is left unchanged.
func (e *Engine) ApplyDecay() error {
	now := e.nowFn()
	for _, id := range e.store.HotIDs() {
		n, ok := e.store.Get(id)
		if !ok || n.Tombstoned {
			continue
		}
		deltaDays := float64(now-n.Confidence.Tau) / millisPerDay
		if deltaDays <= 0 {
			continue
		}
		factor := math.Exp(-n.DecayRate * deltaDays)
		if _, err := e.store.Update(id, func(node *types.Node) error {
			node.Confidence.Mu = clamp01(node.Confidence.Mu * factor)
			node.Confidence.Tau = now
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// Prune implements §4.7 step 2: remove nodes whose post-decay effective
// confidence is below PruneThreshold, unless they are Invariant, Identity,
// or Belief (those types are never auto-pruned).
func (e *Engine) Prune() error {
	var toRemove []types.NodeID
	err := e.store.ForEachNode(func(n *types.Node) bool {
		if n.Tombstoned {
			return true
		}
		if n.Type == types.Invariant || n.Type == types.Identity || n.Type == types.Belief {
			return true
		}
		if n.Confidence.Effective() < e.config.PruneThreshold {
			toRemove = append(toRemove, n.ID)
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, id := range toRemove {
		if err := e.store.Remove(id); err != nil {
			return err
		}
	}
	return nil
}
