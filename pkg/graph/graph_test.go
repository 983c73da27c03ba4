package graph

import (
	"testing"

	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/tripletindex"
	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestGraph(t *testing.T) (*Graph, *store.Store) {
	t.Helper()
	cfg := store.DefaultConfig(t.TempDir())
	cfg.InMemory = true
	s, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return New(s, tripletindex.New()), s
}

func newNode(t *testing.T, s *store.Store, seed int64) types.NodeID {
	t.Helper()
	id, err := types.NewNodeID(seed)
	require.NoError(t, err)
	n := types.NewNode(id, types.Episode, types.QuantizedVector{}, []byte("x"), 0.5, seed)
	require.NoError(t, s.Put(n))
	return id
}

func TestPutEdgePopulatesReverseIndex(t *testing.T) {
	g, s := openTestGraph(t)
	a := newNode(t, s, 1)
	b := newNode(t, s, 2)
	require.NoError(t, s.PutEdge(a, types.Edge{Target: b, Type: types.Similar, Weight: 0.5}))

	incoming := g.Incoming(b)
	require.Len(t, incoming, 1)
	assert.Equal(t, a, incoming[0].Source)
}

func TestStrengthenRaisesEffective(t *testing.T) {
	g, s := openTestGraph(t)
	id := newNode(t, s, 1)
	before, _ := s.Get(id)
	beforeEff := before.Confidence.Effective()

	require.NoError(t, g.Strengthen(id, 0.2))

	after, _ := s.Get(id)
	assert.Greater(t, after.Confidence.Effective(), beforeEff)
}

func TestHebbianStrengthenCreatesBidirectionalEdges(t *testing.T) {
	g, s := openTestGraph(t)
	a := newNode(t, s, 1)
	b := newNode(t, s, 2)

	require.NoError(t, g.HebbianStrengthen(a, b, 0.3))

	na, _ := s.Get(a)
	nb, _ := s.Get(b)
	eAB, ok := na.FindEdge(b, types.Similar)
	require.True(t, ok)
	eBA, ok := nb.FindEdge(a, types.Similar)
	require.True(t, ok)
	assert.InDelta(t, 0.3, eAB.Weight, 0.0001)
	assert.InDelta(t, 0.3, eBA.Weight, 0.0001)
}

func TestConnectTripletCreatesEntitiesAndMentionsEdges(t *testing.T) {
	g, s := openTestGraph(t)
	subj, obj, err := g.ConnectTriplet("jwt", "prevents", "session-state", 0.8, 1000)
	require.NoError(t, err)

	results := g.QueryGraph("jwt", "", "")
	require.Len(t, results, 1)
	assert.Equal(t, "session-state", results[0].Object)

	ns, _ := s.Get(subj)
	no, _ := s.Get(obj)
	_, ok := ns.FindEdge(obj, types.Mentions)
	assert.True(t, ok)
	_, ok = no.FindEdge(subj, types.Mentions)
	assert.True(t, ok)
}

func TestPropagateConfidenceDecaysWithDepthAndBreaksCycles(t *testing.T) {
	g, s := openTestGraph(t)
	a := newNode(t, s, 1)
	b := newNode(t, s, 2)
	c := newNode(t, s, 3)
	require.NoError(t, s.PutEdge(a, types.Edge{Target: b, Type: types.Similar, Weight: 1.0}))
	require.NoError(t, s.PutEdge(b, types.Edge{Target: c, Type: types.Similar, Weight: 1.0}))
	require.NoError(t, s.PutEdge(c, types.Edge{Target: a, Type: types.Similar, Weight: 1.0})) // cycle

	applied, sum, err := g.PropagateConfidence(a, 0.5, 0.5, 5)
	require.NoError(t, err)
	require.Len(t, applied, 2)                         // b then c; a is already visited, cycle broken
	assert.InDelta(t, 0.25, applied[0].Delta, 0.0001)  // depth 1: 0.5*0.5^1*1.0
	assert.InDelta(t, 0.125, applied[1].Delta, 0.0001) // depth 2: 0.5*0.5^2*1.0
	assert.InDelta(t, 0.375, sum, 0.0001)
}

func TestForgetRemovesNodeAndEmitsAuditEpisode(t *testing.T) {
	g, s := openTestGraph(t)
	a := newNode(t, s, 1)
	b := newNode(t, s, 2)
	require.NoError(t, s.PutEdge(a, types.Edge{Target: b, Type: types.Similar, Weight: 0.5}))

	require.NoError(t, g.Forget(a, true, false, 0.1, 2000))

	_, ok := s.Get(a)
	assert.False(t, ok)

	var auditFound bool
	_ = s.ForEachNode(func(n *types.Node) bool {
		if n.HasTag("audit") {
			auditFound = true
		}
		return true
	})
	assert.True(t, auditFound)
}
