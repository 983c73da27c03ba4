package resonance

import (
	"context"
	"math"
	"sort"

	"github.com/genomewalker/resonantdb/pkg/denseindex"
	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/sparseindex"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Config holds the resonance engine's tunable weights (§4.6). Every field
// has a spec.md-stated default except GoalBasinTau and LateralInhibitionHard,
// which §4.6 leaves as operator knobs.
type Config struct {
	ConfidenceWeight    float64 // w_c
	RecencyWeight       float64 // w_r
	RecencyHalfLifeDays float64 // H

	PrimingRecentObservation float64 // +0.30
	PrimingActiveIntention   float64 // +0.25
	PrimingGoalBasin         float64 // +0.15
	GoalBasinTau             float64

	AttractorMax            int
	AttractorBoostFactor    float64 // 0.2 in "1 + 0.2·strength"
	SpreadHops              int
	SpreadHaltThreshold     float64 // 0.01
	LateralInhibitionCosine float64 // 0.85
	LateralInhibitionSoft   float64 // suppress factor (1-0.70)=0.30 kept
	LateralInhibitionHard   bool
	HebbianTopN             int
}

// DefaultConfig returns §4.6's literal constants.
func DefaultConfig() Config {
	return Config{
		ConfidenceWeight:         0.5,
		RecencyWeight:            0.5,
		RecencyHalfLifeDays:      30,
		PrimingRecentObservation: 0.30,
		PrimingActiveIntention:   0.25,
		PrimingGoalBasin:         0.15,
		GoalBasinTau:             0.8,
		AttractorMax:             5,
		AttractorBoostFactor:     0.2,
		SpreadHops:               3,
		SpreadHaltThreshold:      0.01,
		LateralInhibitionCosine:  0.85,
		LateralInhibitionSoft:    0.30,
		LateralInhibitionHard:    false,
		HebbianTopN:              5,
	}
}

// Engine is the resonance engine over an already-open store/dense/sparse/graph.
type Engine struct {
	store   *store.Store
	dense   *denseindex.Index
	sparse  *sparseindex.Index
	graph   *graph.Graph
	embed   EmbedFunc
	session *SessionContext
	config  Config
	nowFn   func() int64

	// realmAllowed reports whether a candidate's realm tag satisfies
	// X ⊑ current_realm; nil disables realm gating entirely (single-realm
	// deployments). Wired in by pkg/mind via SetRealmPredicate.
	realmAllowed func(realm string) bool
}

// New wires an Engine over its collaborators.
func New(s *store.Store, dense *denseindex.Index, sparse *sparseindex.Index, g *graph.Graph, embed EmbedFunc, session *SessionContext, config Config, nowFn func() int64) *Engine {
	return &Engine{store: s, dense: dense, sparse: sparse, graph: g, embed: embed, session: session, config: config, nowFn: nowFn}
}

// SetRealmPredicate wires the realm-ancestry check used by phase-filtering
// (§4.6's realm gating). Called once by pkg/mind after both Engine and the
// realm manager are constructed.
func (e *Engine) SetRealmPredicate(fn func(realm string) bool) {
	e.realmAllowed = fn
}

type scoredCandidate struct {
	node       *types.Node
	similarity float64
	score      float64
	spreadOnly bool
}

// seedRetrieve implements §4.6 phase 2: dense + sparse retrieval, scored and
// primed. M is max(3k, 10).
func (e *Engine) seedRetrieve(ctx context.Context, q string, k int) (map[types.NodeID]*scoredCandidate, error) {
	m := 3 * k
	if m < 10 {
		m = 10
	}

	vec, err := e.embed(q)
	if err != nil {
		return nil, err
	}
	qv := types.Quantize(vec)

	denseHits := e.dense.Search(qv, m)
	sparseHits := e.sparse.Search(q, m)

	candidates := map[types.NodeID]*scoredCandidate{}
	now := e.nowFn()

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
		// BM25 scores are unbounded; squash to a similarity-like [0,1) scale
		// so sparse-only seeds compose with the same scoring formula as
		// dense hits rather than needing a second code path.
		sim := h.Score / (h.Score + 1)
		candidates[h.ID] = &scoredCandidate{node: n, similarity: sim}
	}

	for id, c := range candidates {
		c.score = e.baseScore(c.node, c.similarity, now) * e.primingMultiplier(id, c.node)
	}
	return candidates, nil
}

// baseScore implements §4.6 phase 2's s = similarity × conf_factor ×
// recency_factor × type_boost.
func (e *Engine) baseScore(n *types.Node, similarity float64, nowMs int64) float64 {
	effective := n.Confidence.Effective()
	confFactor := (1 - e.config.ConfidenceWeight) + e.config.ConfidenceWeight*effective

	daysSinceAccess := float64(nowMs-n.TauAccessed) / 86_400_000.0
	if daysSinceAccess < 0 {
		daysSinceAccess = 0
	}
	recencyFactor := 1 + e.config.RecencyWeight*math.Exp(-math.Ln2*daysSinceAccess/e.config.RecencyHalfLifeDays)

	typeBoost := types.TypeBoost(n.Type)

	return similarity * confFactor * recencyFactor * typeBoost
}

// primingMultiplier implements the +0.30/+0.25/+0.15 priming bonuses as a
// stacking multiplier (1 + sum of applicable bonuses).
func (e *Engine) primingMultiplier(id types.NodeID, n *types.Node) float64 {
	bonus := 0.0
	if e.session.IsRecentObservation(id) {
		bonus += e.config.PrimingRecentObservation
	}
	if e.session.IsActiveIntention(id) {
		bonus += e.config.PrimingActiveIntention
	}
	if e.session.InGoalBasin(n.Embedding, e.config.GoalBasinTau) {
		bonus += e.config.PrimingGoalBasin
	}
	return 1 + bonus
}

// lensScore replaces phase 2's type_boost table with lens.AttentionFor and
// adds lens.Bias to the resulting score (§4.6 lens variant).
func (e *Engine) lensScore(n *types.Node, similarity float64, nowMs int64, lens types.Lens) float64 {
	effective := n.Confidence.Effective()
	confFactor := (1 - e.config.ConfidenceWeight) + e.config.ConfidenceWeight*effective
	daysSinceAccess := float64(nowMs-n.TauAccessed) / 86_400_000.0
	if daysSinceAccess < 0 {
		daysSinceAccess = 0
	}
	recencyFactor := 1 + e.config.RecencyWeight*math.Exp(-math.Ln2*daysSinceAccess/e.config.RecencyHalfLifeDays)
	return similarity*confFactor*recencyFactor*lens.AttentionFor(n.Type) + lens.Bias
}

// spreadActivation implements §4.6 phase 4: BFS up to SpreadHops from every
// seed, propagating parent·spread_strength·edge.weight along outgoing
// edges, halting below SpreadHaltThreshold.
func (e *Engine) spreadActivation(seeds map[types.NodeID]*scoredCandidate, spreadStrength float64) map[types.NodeID]float64 {
	activation := map[types.NodeID]float64{}
	for id, c := range seeds {
		e.spreadFrom(id, c.score, spreadStrength, e.config.SpreadHops, map[types.NodeID]bool{id: true}, activation)
	}
	return activation
}

func (e *Engine) spreadFrom(id types.NodeID, amount, spreadStrength float64, hopsLeft int, visited map[types.NodeID]bool, activation map[types.NodeID]float64) {
	if hopsLeft <= 0 {
		return
	}
	for _, edge := range e.graph.Outgoing(id) {
		next := amount * spreadStrength * edge.Weight
		if next < e.config.SpreadHaltThreshold {
			continue
		}
		activation[edge.Target] += next
		if visited[edge.Target] {
			continue
		}
		visited[edge.Target] = true
		e.spreadFrom(edge.Target, next, spreadStrength, hopsLeft-1, visited, activation)
	}
}

// applyAttractorBoost implements §4.6 phase 5: every attractor whose basin
// contains the candidate multiplies its score by 1 + boostFactor·strength.
func applyAttractorBoost(scores map[types.NodeID]float64, attractors []Attractor, boostFactor float64) {
	for id, s := range scores {
		for _, a := range attractors {
			if a.Basin[id] {
				s *= 1 + boostFactor*a.Strength
			}
		}
		scores[id] = s
	}
}

type rankedCandidate struct {
	node  *types.Node
	score float64
	sim   float64
}

// lateralInhibition implements §4.6 phase 6: walk candidates in descending
// score order; a winner suppresses later candidates whose embedding cosine
// exceeds LateralInhibitionCosine, either softly (score ×= 1-Soft) or by
// removal (hard mode).
func (e *Engine) lateralInhibition(candidates []rankedCandidate) []rankedCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].node.ID.Less(candidates[j].node.ID)
	})

	suppressed := make([]bool, len(candidates))
	for i := range candidates {
		if suppressed[i] {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			if suppressed[j] {
				continue
			}
			cos := candidates[i].node.Embedding.ApproxCosine(candidates[j].node.Embedding)
			if cos > e.config.LateralInhibitionCosine {
				if e.config.LateralInhibitionHard {
					suppressed[j] = true
				} else {
					candidates[j].score *= 1 - e.config.LateralInhibitionSoft
				}
			}
		}
	}

	out := candidates[:0]
	for i, c := range candidates {
		if !suppressed[i] {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].node.ID.Less(out[j].node.ID)
	})
	return out
}
