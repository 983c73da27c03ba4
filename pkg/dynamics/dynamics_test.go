package dynamics

import (
	"context"
	"math"
	"testing"

	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/sparseindex"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/tripletindex"
	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store  *store.Store
	graph  *graph.Graph
	sparse *sparseindex.Index
	engine *Engine
	now    int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := store.DefaultConfig(t.TempDir())
	cfg.InMemory = true
	s, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	g := graph.New(s, tripletindex.New())
	sparse := sparseindex.New()

	h := &harness{store: s, graph: g, sparse: sparse, now: 10_000_000}
	cfg2 := DefaultConfig()
	h.engine = New(s, g, sparse, "", cfg2, func() int64 { return h.now })
	return h
}

func (h *harness) putNode(t *testing.T, typ types.NodeType, mu float64, tauMs int64, decayRate float64) types.NodeID {
	t.Helper()
	id, err := types.NewNodeID(tauMs)
	require.NoError(t, err)
	n := types.NewNode(id, typ, types.QuantizedVector{}, []byte("payload"), mu, tauMs)
	n.DecayRate = decayRate
	require.NoError(t, h.store.Put(n))
	return id
}

func TestApplyDecayReducesMuOverElapsedTime(t *testing.T) {
	h := newHarness(t)
	id := h.putNode(t, types.Episode, 0.8, 0, 0.05)
	h.now = 30 * 86_400_000 // 30 days later

	require.NoError(t, h.engine.ApplyDecay())

	n, ok := h.store.Get(id)
	require.True(t, ok)
	require.Less(t, n.Confidence.Mu, 0.8)
}

// TestApplyDecayTauAdvancesSoRepeatedTicksDontCompound guards against a
// regression where Confidence.Tau stays frozen at node-creation time: if
// ApplyDecay never advances Tau, each tick's deltaDays is measured from
// creation rather than from the last tick, and the decay exponent compounds
// across ticks instead of applying a fixed per-tick Δt. Three 10-day ticks
// should land at exactly exp(-decay_rate*30), matching one 30-day tick.
func TestApplyDecayTauAdvancesSoRepeatedTicksDontCompound(t *testing.T) {
	h := newHarness(t)
	id := h.putNode(t, types.Episode, 0.8, 0, 0.05)

	for i := 1; i <= 3; i++ {
		h.now = int64(i) * 10 * 86_400_000
		require.NoError(t, h.engine.ApplyDecay())

		n, ok := h.store.Get(id)
		require.True(t, ok)
		require.Equal(t, h.now, n.Confidence.Tau)
	}

	n, ok := h.store.Get(id)
	require.True(t, ok)
	want := 0.8 * math.Exp(-0.05*30)
	require.InDelta(t, want, n.Confidence.Mu, 1e-9)
}

func TestPruneRemovesLowConfidenceNonProtectedNodes(t *testing.T) {
	h := newHarness(t)
	weak := h.putNode(t, types.Episode, 0.01, h.now, 0.05)
	invariant := h.putNode(t, types.Invariant, 0.01, h.now, 0.001)

	require.NoError(t, h.engine.Prune())

	_, weakStillThere := h.store.Get(weak)
	require.False(t, weakStillThere)

	_, invariantStillThere := h.store.Get(invariant)
	require.True(t, invariantStillThere)
}

func TestApplyFeedbackStrengthensAndWeakensQueuedNodes(t *testing.T) {
	h := newHarness(t)
	id := h.putNode(t, types.Belief, 0.5, h.now, 0.02)

	h.engine.QueueFeedback(id, 0.2)
	require.NoError(t, h.engine.ApplyFeedback())

	n, ok := h.store.Get(id)
	require.True(t, ok)
	require.InDelta(t, 0.7, n.Confidence.Mu, 1e-9)

	h.engine.QueueFeedback(id, -0.3)
	require.NoError(t, h.engine.ApplyFeedback())

	n, ok = h.store.Get(id)
	require.True(t, ok)
	require.InDelta(t, 0.4, n.Confidence.Mu, 1e-9)
}

func TestApplyFeedbackDrainsQueueEvenOnceApplied(t *testing.T) {
	h := newHarness(t)
	id := h.putNode(t, types.Belief, 0.5, h.now, 0.02)
	h.engine.QueueFeedback(id, 0.1)

	require.NoError(t, h.engine.ApplyFeedback())
	require.Empty(t, h.engine.feedback)
}

func TestSynthesizeWisdomPromotesClusterOfThreeSimilarEpisodes(t *testing.T) {
	h := newHarness(t)
	vec := types.Quantize(repeat(1.0))
	for i := 0; i < 3; i++ {
		id, err := types.NewNodeID(h.now)
		require.NoError(t, err)
		n := types.NewNode(id, types.Episode, vec, []byte("a recurring observation"), 0.6, h.now)
		require.NoError(t, h.store.Put(n))
	}

	require.NoError(t, h.engine.SynthesizeWisdom())

	var wisdomCount int
	var promotedCount int
	require.NoError(t, h.store.ForEachNode(func(n *types.Node) bool {
		if n.Type == types.Wisdom {
			wisdomCount++
		}
		if n.HasTag("promoted") {
			promotedCount++
		}
		return true
	}))
	require.Equal(t, 1, wisdomCount)
	require.Equal(t, 3, promotedCount)
}

func TestSynthesizeWisdomSkipsClustersBelowMinSize(t *testing.T) {
	h := newHarness(t)
	vec := types.Quantize(repeat(1.0))
	for i := 0; i < 2; i++ {
		id, err := types.NewNodeID(h.now)
		require.NoError(t, err)
		n := types.NewNode(id, types.Episode, vec, []byte("too few to promote"), 0.6, h.now)
		require.NoError(t, h.store.Put(n))
	}

	require.NoError(t, h.engine.SynthesizeWisdom())

	var wisdomCount int
	require.NoError(t, h.store.ForEachNode(func(n *types.Node) bool {
		if n.Type == types.Wisdom {
			wisdomCount++
		}
		return true
	}))
	require.Equal(t, 0, wisdomCount)
}

func TestSettleAttractorsMovesNonAttractorEmbeddingsCloser(t *testing.T) {
	h := newHarness(t)

	attractorVec := types.Quantize(ramp(false))
	attractorID, err := types.NewNodeID(h.now)
	require.NoError(t, err)
	attractor := types.NewNode(attractorID, types.Belief, attractorVec, []byte("strong belief"), 0.9, h.now)
	attractor.Confidence.SigmaSq = 0.01
	require.NoError(t, h.store.Put(attractor))
	other, err := types.NewNodeID(h.now)
	require.NoError(t, err)
	another, err := types.NewNodeID(h.now)
	require.NoError(t, err)
	require.NoError(t, h.store.PutEdge(attractorID, types.Edge{Target: other, Type: types.Supports, Weight: 1.0}))
	require.NoError(t, h.store.PutEdge(attractorID, types.Edge{Target: another, Type: types.Supports, Weight: 1.0}))

	driftVec := types.Quantize(ramp(true))
	driftID, err := types.NewNodeID(h.now)
	require.NoError(t, err)
	drift := types.NewNode(driftID, types.Episode, driftVec, []byte("an unrelated episode"), 0.3, h.now)
	require.NoError(t, h.store.Put(drift))

	before, ok := h.store.Get(driftID)
	require.True(t, ok)
	simBefore := before.Embedding.ApproxCosine(attractorVec)

	require.NoError(t, h.engine.settleAttractors(context.Background()))

	after, ok := h.store.Get(driftID)
	require.True(t, ok)
	simAfter := after.Embedding.ApproxCosine(attractorVec)
	require.GreaterOrEqual(t, simAfter, simBefore)
}

func TestSnapshotCompactsAndRotatesAndPersistsSparseSegment(t *testing.T) {
	h := newHarness(t)
	segmentPath := t.TempDir() + "/sparse.seg"
	h.engine.segmentPath = segmentPath
	h.sparse.Add(types.NodeID{}, "hello world")

	_ = h.putNode(t, types.Episode, 0.5, h.now, 0.02)

	require.NoError(t, h.engine.Snapshot())
	require.Equal(t, 0, h.store.HotLen())

	loaded, err := sparseindex.LoadSegment(segmentPath)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Count())
}

func TestTickRunsAllStepsWithoutError(t *testing.T) {
	h := newHarness(t)
	_ = h.putNode(t, types.Episode, 0.5, h.now, 0.02)
	require.NoError(t, h.engine.Tick(context.Background()))
}

func repeat(v float32) []float32 {
	out := make([]float32, types.EmbeddingDims)
	for i := range out {
		out[i] = v
	}
	return out
}

// ramp returns a linearly increasing vector, or its reverse — two ramps
// quantize to near-opposite components, giving a strongly negative initial
// cosine to settle away from.
func ramp(reverse bool) []float32 {
	out := make([]float32, types.EmbeddingDims)
	for i := range out {
		if reverse {
			out[i] = float32(types.EmbeddingDims - i)
		} else {
			out[i] = float32(i)
		}
	}
	return out
}
