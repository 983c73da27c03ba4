package mind

import (
	"sort"

	"github.com/genomewalker/resonantdb/pkg/types"
)

const (
	// defaultGlobalSampleSize is §9 Q2's "configurable default (e.g., 64)"
	// for coherence's global component.
	defaultGlobalSampleSize = 64
	// defaultFreshnessWindowMs bounds "recently accessed" for coherence's
	// temporal component and MindHealth's temporal component alike: one day.
	defaultFreshnessWindowMs = int64(24 * 60 * 60 * 1000)
	// defaultEdgeWeightThreshold is the "above weight threshold" cutoff
	// coherence's structural component and an edge's counting toward
	// connectivity both use.
	defaultEdgeWeightThreshold = 0.3
)

// Coherence implements §6's coherence() → Coherence, computing the four
// components spec.md §3 defines in words: local (top-neighbor cosine
// agreement weighted by edge weight), global (pairwise cosine among a
// sampled set of the highest-confidence nodes), temporal (fraction of
// hot-tier nodes accessed within a freshness window), structural (the
// complement of the zero-strong-outgoing-edge fraction).
func (m *Mind) Coherence() (types.Coherence, error) {
	var live []*types.Node
	if err := m.store.ForEachNode(func(n *types.Node) bool {
		if !n.Tombstoned {
			live = append(live, n)
		}
		return true
	}); err != nil {
		return types.Coherence{}, err
	}

	return types.Coherence{
		Local:      m.localCoherence(live),
		Global:     m.globalCoherence(live),
		Temporal:   m.temporalCoherence(),
		Structural: m.structuralCoherence(live),
	}, nil
}

func (m *Mind) localCoherence(live []*types.Node) float64 {
	var weightedSum, weightSum float64
	for _, n := range live {
		for _, e := range n.Edges {
			target, ok := m.store.Get(e.Target)
			if !ok || target.Tombstoned {
				continue
			}
			sim := n.Embedding.ApproxCosine(target.Embedding)
			weightedSum += sim * e.Weight
			weightSum += e.Weight
		}
	}
	if weightSum == 0 {
		return 0
	}
	return weightedSum / weightSum
}

func (m *Mind) globalCoherence(live []*types.Node) float64 {
	sample := make([]*types.Node, len(live))
	copy(sample, live)
	sort.Slice(sample, func(i, j int) bool {
		return sample[i].Confidence.Effective() > sample[j].Confidence.Effective()
	})
	limit := m.cfg.CoherenceSampleSize
	if limit <= 0 {
		limit = defaultGlobalSampleSize
	}
	if len(sample) > limit {
		sample = sample[:limit]
	}
	if len(sample) < 2 {
		return 0
	}

	var sum float64
	var pairs int
	for i := 0; i < len(sample); i++ {
		for j := i + 1; j < len(sample); j++ {
			sum += sample[i].Embedding.ApproxCosine(sample[j].Embedding)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

func (m *Mind) temporalCoherence() float64 {
	ids := m.store.HotIDs()
	if len(ids) == 0 {
		return 0
	}
	now := m.nowFn()
	var fresh int
	for _, id := range ids {
		n, ok := m.store.Get(id)
		if !ok {
			continue
		}
		if now-n.TauAccessed <= defaultFreshnessWindowMs {
			fresh++
		}
	}
	return float64(fresh) / float64(len(ids))
}

func (m *Mind) structuralCoherence(live []*types.Node) float64 {
	if len(live) == 0 {
		return 0
	}
	var withStrongEdge int
	for _, n := range live {
		for _, e := range n.Edges {
			if e.Weight > defaultEdgeWeightThreshold {
				withStrongEdge++
				break
			}
		}
	}
	zeroFraction := 1 - float64(withStrongEdge)/float64(len(live))
	return 1 - zeroFraction
}

// Health implements §6's health() → MindHealth. spec.md defines only the
// scalar ψ = mean(structural, semantic, temporal, capacity) and leaves the
// four components' computation to the implementation; this reading treats
// them as store/index health rather than graph health (Coherence already
// covers the graph): structural = fraction of live nodes present in the
// dense index (I6), semantic = the same local-neighbor cosine agreement
// Coherence.Local computes, temporal = the same freshness fraction
// Coherence.Temporal computes, capacity = hot-tier headroom remaining.
func (m *Mind) Health() (types.MindHealth, error) {
	var live []*types.Node
	var liveCount int
	if err := m.store.ForEachNode(func(n *types.Node) bool {
		if !n.Tombstoned {
			live = append(live, n)
			liveCount++
		}
		return true
	}); err != nil {
		return types.MindHealth{}, err
	}

	structural := 1.0
	if liveCount > 0 {
		var indexed int
		for _, n := range live {
			if m.dense.Has(n.ID) {
				indexed++
			}
		}
		structural = float64(indexed) / float64(liveCount)
	}

	capacity := 1.0
	if m.cfg.HotCapacity > 0 {
		used := float64(m.store.HotLen()) / float64(m.cfg.HotCapacity)
		if used > 1 {
			used = 1
		}
		capacity = 1 - used
	}

	return types.MindHealth{
		Structural: structural,
		Semantic:   m.localCoherence(live),
		Temporal:   m.temporalCoherence(),
		Capacity:   capacity,
	}, nil
}

// State is §6's state() → {total_nodes, hot, warm, cold, yantra_ready}.
type State struct {
	TotalNodes  int
	Hot         int
	Warm        int
	Cold        int
	YantraReady bool
}

// StateSnapshot implements §6's state(). yantra_ready is a term spec.md
// names exactly once with no further definition; this reading treats it as
// "the dense index has been populated enough to serve resonance queries",
// i.e. it holds at least one vector.
func (m *Mind) StateSnapshot() (State, error) {
	cold, err := m.store.ColdLen()
	if err != nil {
		return State{}, err
	}
	hot := m.store.HotLen()
	warm := m.store.WarmLen()
	return State{
		TotalNodes:  hot + warm + cold,
		Hot:         hot,
		Warm:        warm,
		Cold:        cold,
		YantraReady: m.dense.Size() > 0,
	}, nil
}
