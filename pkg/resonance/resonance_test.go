package resonance

import (
	"context"
	"testing"

	"github.com/genomewalker/resonantdb/pkg/denseindex"
	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/sparseindex"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/tripletindex"
	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store  *store.Store
	dense  *denseindex.Index
	sparse *sparseindex.Index
	graph  *graph.Graph
	engine *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := store.DefaultConfig(t.TempDir())
	cfg.InMemory = true
	s, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	dense := denseindex.New(denseindex.DefaultConfig())
	sparse := sparseindex.New()
	g := graph.New(s, tripletindex.New())

	s.Subscribe(func(ev store.MutationEvent) {
		switch ev.Kind {
		case store.MutationInserted, store.MutationUpdated:
			dense.Insert(ev.Node.ID, ev.Node.Embedding)
			sparse.Add(ev.Node.ID, string(ev.Node.Payload))
		case store.MutationRemoved:
			dense.Remove(ev.From)
			sparse.Remove(ev.From)
		}
	})

	embed := func(text string) ([]float32, error) {
		full := make([]float32, types.EmbeddingDims)
		for i, r := range text {
			full[i%types.EmbeddingDims] += float32(r)
		}
		return full, nil
	}

	session := NewSessionContext()
	engine := New(s, dense, sparse, g, embed, session, DefaultConfig(), func() int64 { return 1_000_000 })
	return &harness{store: s, dense: dense, sparse: sparse, graph: g, engine: engine}
}

func (h *harness) put(t *testing.T, seed int64, typ types.NodeType, text string) types.NodeID {
	t.Helper()
	id, err := types.NewNodeID(seed)
	require.NoError(t, err)
	full := make([]float32, types.EmbeddingDims)
	for i, r := range text {
		full[i%types.EmbeddingDims] += float32(r)
	}
	n := types.NewNode(id, typ, types.Quantize(full), []byte(text), 0.7, seed)
	require.NoError(t, h.store.Put(n))
	return id
}

func TestRecallSimpleReturnsRankedResults(t *testing.T) {
	h := newHarness(t)
	h.put(t, 1, types.Episode, "the quick brown fox")
	h.put(t, 2, types.Episode, "totally unrelated content")

	results, err := h.engine.RecallSimple(context.Background(), "quick brown fox", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestLensReweightsByAttentionTable(t *testing.T) {
	h := newHarness(t)
	h.put(t, 1, types.Wisdom, "shared text")
	h.put(t, 2, types.Episode, "shared text")

	results, err := h.engine.Lens(context.Background(), "shared text", types.LensBuddhi, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Buddhi weights Wisdom at 1.4 vs Episode's default 1.0, so the Wisdom
	// node should outrank the Episode node despite identical text/embedding.
	assert.Equal(t, types.Wisdom, results[0].Type)
}

func TestFullResonateAppliesHebbianUpdateToTopResults(t *testing.T) {
	h := newHarness(t)
	a := h.put(t, 1, types.Episode, "alpha beta gamma")
	b := h.put(t, 2, types.Episode, "alpha beta gamma")

	_, err := h.engine.FullResonate(context.Background(), "alpha beta gamma", 5, 0.5, 0.3)
	require.NoError(t, err)

	na, _ := h.store.Get(a)
	_, ok := na.FindEdge(b, types.Similar)
	assert.True(t, ok)
}

func TestFullResonatePopulatesRecentObservationRing(t *testing.T) {
	h := newHarness(t)
	h.put(t, 1, types.Episode, "observed text here")

	results, err := h.engine.FullResonate(context.Background(), "observed text here", 5, 0.5, 0.3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.True(t, h.engine.session.IsRecentObservation(results[0].ID))
}

func TestFullResonateCancelledContextReturnsError(t *testing.T) {
	h := newHarness(t)
	h.put(t, 1, types.Episode, "cancel me")
	h.put(t, 2, types.Episode, "cancel me too")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.engine.FullResonate(ctx, "cancel me", 5, 0.5, 0.3)
	assert.Error(t, err)
}

func TestPrimingBonusRaisesScore(t *testing.T) {
	h := newHarness(t)
	id := h.put(t, 1, types.Episode, "primed node")
	n, _ := h.store.Get(id)

	withoutPriming := h.engine.baseScore(n, 0.9, h.engine.nowFn())
	h.engine.session.Observe(id)
	withPriming := withoutPriming * h.engine.primingMultiplier(id, n)

	assert.Greater(t, withPriming, withoutPriming)
}
