package resonance

import (
	"context"
	"sort"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// FullResonate runs the complete nine-phase pipeline (§4.6). Callers may
// cancel ctx between phases; partial results are discarded and only the
// Hebbian phase (8) is skipped on cancellation — every mutation that does
// start (priming ring append) still completes, per §5's "every mutation
// completes or is not started" rule.
func (e *Engine) FullResonate(ctx context.Context, q string, k int, spreadStrength, hebbianStrength float64) ([]Recall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seeds, err := e.seedRetrieve(ctx, q, k)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := e.nowFn()
	attractors, err := FindAttractors(e.store, e.graph, now, e.config.AttractorMax)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	activation := e.spreadActivation(seeds, spreadStrength)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := map[types.NodeID]float64{}
	nodes := map[types.NodeID]*types.Node{}
	sims := map[types.NodeID]float64{}
	for id, c := range seeds {
		scores[id] = c.score
		nodes[id] = c.node
		sims[id] = c.similarity
	}
	for id, sum := range activation {
		if _, isSeed := scores[id]; isSeed {
			scores[id] += sum
			continue
		}
		n, ok := e.store.Get(id)
		if !ok || n.Tombstoned {
			continue
		}
		scores[id] = sum
		nodes[id] = n
		sims[id] = 0
	}

	applyAttractorBoost(scores, attractors, e.config.AttractorBoostFactor)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filtered := e.filterByRealm(nodes)

	ranked := make([]rankedCandidate, 0, len(filtered))
	for id := range filtered {
		ranked = append(ranked, rankedCandidate{node: nodes[id], score: scores[id], sim: sims[id]})
	}
	ranked = e.lateralInhibition(ranked)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]Recall, len(ranked))
	for i, r := range ranked {
		out[i] = recallFromNode(r.node, r.sim, r.score)
	}

	if ctx.Err() == nil {
		e.hebbianUpdate(out, hebbianStrength)
	}
	e.session.Observe(idsOf(out)...)

	return out, nil
}

// Resonate runs phases 1-2 + 3-5 + 6-7 + 8-9 (everything but the priming
// score boost of phase 2's multiplier — recall that phase 2's priming term
// is part of full_resonate only, per §4.6's "adds 3-5 and 8-9 but not
// priming boost").
func (e *Engine) Resonate(ctx context.Context, q string, k int, spreadStrength, hebbianStrength float64) ([]Recall, error) {
	seeds, err := e.seedUnprimed(ctx, q, k)
	if err != nil {
		return nil, err
	}

	now := e.nowFn()
	attractors, err := FindAttractors(e.store, e.graph, now, e.config.AttractorMax)
	if err != nil {
		return nil, err
	}

	activation := e.spreadActivation(seeds, spreadStrength)

	scores := map[types.NodeID]float64{}
	nodes := map[types.NodeID]*types.Node{}
	sims := map[types.NodeID]float64{}
	for id, c := range seeds {
		scores[id] = c.score
		nodes[id] = c.node
		sims[id] = c.similarity
	}
	for id, sum := range activation {
		if _, isSeed := scores[id]; isSeed {
			scores[id] += sum
			continue
		}
		n, ok := e.store.Get(id)
		if !ok || n.Tombstoned {
			continue
		}
		scores[id] = sum
		nodes[id] = n
	}
	applyAttractorBoost(scores, attractors, e.config.AttractorBoostFactor)

	filtered := e.filterByRealm(nodes)
	ranked := make([]rankedCandidate, 0, len(filtered))
	for id := range filtered {
		ranked = append(ranked, rankedCandidate{node: nodes[id], score: scores[id], sim: sims[id]})
	}
	ranked = e.lateralInhibition(ranked)
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]Recall, len(ranked))
	for i, r := range ranked {
		out[i] = recallFromNode(r.node, r.sim, r.score)
	}
	e.hebbianUpdate(out, hebbianStrength)
	e.session.Observe(idsOf(out)...)
	return out, nil
}

// RecallSimple runs phases 1-2 + 6-7 only (§4.6's recall(q,k)): seeded,
// primed, lateral-inhibited, truncated — no spreading activation, no
// attractor boost, no Hebbian update, no priming-ring write.
func (e *Engine) RecallSimple(ctx context.Context, q string, k int) ([]Recall, error) {
	seeds, err := e.seedRetrieve(ctx, q, k)
	if err != nil {
		return nil, err
	}

	filtered := e.filterByRealm(nodesOf(seeds))
	ranked := make([]rankedCandidate, 0, len(filtered))
	for id, c := range seeds {
		if _, ok := filtered[id]; !ok {
			continue
		}
		ranked = append(ranked, rankedCandidate{node: c.node, score: c.score, sim: c.similarity})
	}
	ranked = e.lateralInhibition(ranked)
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := make([]Recall, len(ranked))
	for i, r := range ranked {
		out[i] = recallFromNode(r.node, r.sim, r.score)
	}
	return out, nil
}

// Lens runs the seed-retrieval phase with the lens's attention table
// replacing the type-boost table, returning the re-ranked seed list only
// (§4.6's lens(q, lens, k)).
func (e *Engine) Lens(ctx context.Context, q string, lens types.Lens, k int) ([]Recall, error) {
	m := 3 * k
	if m < 10 {
		m = 10
	}
	vec, err := e.embed(q)
	if err != nil {
		return nil, err
	}
	qv := types.Quantize(vec)
	now := e.nowFn()

	denseHits := e.dense.Search(qv, m)
	ranked := make([]rankedCandidate, 0, len(denseHits))
	for _, h := range denseHits {
		n, ok := e.store.Get(h.ID)
		if !ok || n.Tombstoned {
			continue
		}
		score := e.lensScore(n, h.Similarity, now, lens)
		ranked = append(ranked, rankedCandidate{node: n, score: score, sim: h.Similarity})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].node.ID.Less(ranked[j].node.ID)
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]Recall, len(ranked))
	for i, r := range ranked {
		out[i] = recallFromNode(r.node, r.sim, r.score)
	}
	return out, nil
}

// seedUnprimed mirrors seedRetrieve but skips the priming multiplier, for
// Resonate (§4.6: "adds 3-5 and 8-9 but not priming boost").
func (e *Engine) seedUnprimed(ctx context.Context, q string, k int) (map[types.NodeID]*scoredCandidate, error) {
	m := 3 * k
	if m < 10 {
		m = 10
	}
	vec, err := e.embed(q)
	if err != nil {
		return nil, err
	}
	qv := types.Quantize(vec)
	now := e.nowFn()

	denseHits := e.dense.Search(qv, m)
	sparseHits := e.sparse.Search(q, m)

	candidates := map[types.NodeID]*scoredCandidate{}
	for _, h := range denseHits {
		n, ok := e.store.Get(h.ID)
		if !ok || n.Tombstoned {
			continue
		}
		candidates[h.ID] = &scoredCandidate{node: n, similarity: h.Similarity}
	}
	for _, h := range sparseHits {
		if _, exists := candidates[h.ID]; exists {
			continue
		}
		n, ok := e.store.Get(h.ID)
		if !ok || n.Tombstoned {
			continue
		}
		sim := h.Score / (h.Score + 1)
		candidates[h.ID] = &scoredCandidate{node: n, similarity: sim}
	}
	for _, c := range candidates {
		c.score = e.baseScore(c.node, c.similarity, now)
	}
	return candidates, nil
}

// hebbianUpdate implements §4.6 phase 8: strengthen pairwise Similar edges
// among the top-5 emitted results.
func (e *Engine) hebbianUpdate(results []Recall, hebbianStrength float64) {
	n := e.config.HebbianTopN
	if n > len(results) {
		n = len(results)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			_ = e.graph.HebbianStrengthen(results[i].ID, results[j].ID, hebbianStrength)
		}
	}
}

// filterByRealm implements §4.6's realm gating: candidates whose realm:<X>
// tag doesn't satisfy X ⊑ current_realm are dropped. Nodes without a realm
// tag always pass. The ancestor check itself is delegated to a predicate
// supplied by pkg/realm via SetRealmPredicate, since the resonance engine
// has no DAG of its own.
func (e *Engine) filterByRealm(nodes map[types.NodeID]*types.Node) map[types.NodeID]*types.Node {
	if e.realmAllowed == nil {
		return nodes
	}
	out := make(map[types.NodeID]*types.Node, len(nodes))
	for id, n := range nodes {
		tag, ok := realmTagOf(n)
		if !ok || e.realmAllowed(tag) {
			out[id] = n
		}
	}
	return out
}

func realmTagOf(n *types.Node) (string, bool) {
	const prefix = "realm:"
	for tag := range n.Tags {
		if len(tag) > len(prefix) && tag[:len(prefix)] == prefix {
			return tag[len(prefix):], true
		}
	}
	return "", false
}

func idsOf(rs []Recall) []types.NodeID {
	out := make([]types.NodeID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func nodesOf(seeds map[types.NodeID]*scoredCandidate) map[types.NodeID]*types.Node {
	out := make(map[types.NodeID]*types.Node, len(seeds))
	for id, c := range seeds {
		out[id] = c.node
	}
	return out
}
