package mind

import (
	"context"
	"sort"

	"github.com/genomewalker/resonantdb/pkg/resonance"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Recall implements §6's recall(q, k) → list<Recall>.
func (m *Mind) Recall(ctx context.Context, q string, k int) ([]resonance.Recall, error) {
	return m.resonance.RecallSimple(ctx, q, k)
}

// Resonate implements §6's resonate(q, k, spread).
func (m *Mind) Resonate(ctx context.Context, q string, k int, spread float64) ([]resonance.Recall, error) {
	return m.resonance.Resonate(ctx, q, k, spread, 0)
}

// FullResonate implements §6's full_resonate(q, k, spread, hebbian).
func (m *Mind) FullResonate(ctx context.Context, q string, k int, spread, hebbian float64) ([]resonance.Recall, error) {
	return m.resonance.FullResonate(ctx, q, k, spread, hebbian)
}

// Lens implements §4.6's lens(q, lens, k), exposed on the facade for
// callers that want a specific attention profile directly.
func (m *Mind) Lens(ctx context.Context, q string, lens types.Lens, k int) ([]resonance.Recall, error) {
	return m.resonance.Lens(ctx, q, lens, k)
}

// RecallByTag implements §6's recall_by_tag(tag, k): a direct store scan
// rather than a resonance-engine pipeline, since a tag match carries no
// similarity score to rank by. Results are ordered by confidence effective
// descending, ids ascending on ties, then truncated to k — the same
// deterministic tie-break §4.6 uses elsewhere.
func (m *Mind) RecallByTag(tag string, k int) ([]resonance.Recall, error) {
	var hits []*types.Node
	err := m.store.ForEachNode(func(n *types.Node) bool {
		if n.Tombstoned {
			return true
		}
		if n.HasTag(tag) {
			hits = append(hits, n)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		ei, ej := hits[i].Confidence.Effective(), hits[j].Confidence.Effective()
		if ei != ej {
			return ei > ej
		}
		return hits[i].ID.Less(hits[j].ID)
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]resonance.Recall, len(hits))
	for i, n := range hits {
		out[i] = resonance.Recall{
			ID:         n.ID,
			Text:       string(n.Payload),
			Embedding:  n.Embedding,
			Type:       n.Type,
			Confidence: n.Confidence,
			Similarity: 0,
			Relevance:  n.Confidence.Effective(),
		}
	}
	return out, nil
}
