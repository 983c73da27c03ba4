package store

import (
	"path/filepath"
	"testing"

	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.HotCapacity = 4
	cfg.InMemory = true
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func newTestNode(t *testing.T, seed int64) *types.Node {
	t.Helper()
	id, err := types.NewNodeID(seed)
	require.NoError(t, err)
	return types.NewNode(id, types.Episode, types.QuantizedVector{}, []byte("payload"), 0.5, seed)
}

func TestPutThenGet(t *testing.T) {
	s := openTestStore(t)
	n := newTestNode(t, 1)
	require.NoError(t, s.Put(n))

	got, ok := s.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, n.Payload, got.Payload)
	assert.Equal(t, n.Type, got.Type)
}

func TestRemoveThenGetIsMiss(t *testing.T) {
	s := openTestStore(t)
	n := newTestNode(t, 1)
	require.NoError(t, s.Put(n))
	require.NoError(t, s.Remove(n.ID))

	_, ok := s.Get(n.ID)
	assert.False(t, ok)
}

func TestTouchUpdatesAccessTime(t *testing.T) {
	s := openTestStore(t)
	n := newTestNode(t, 1)
	require.NoError(t, s.Put(n))

	require.NoError(t, s.Touch(n.ID, 9999))
	got, _ := s.Get(n.ID)
	assert.Equal(t, int64(9999), got.TauAccessed)
}

func TestApplyConfidenceOverwrites(t *testing.T) {
	s := openTestStore(t)
	n := newTestNode(t, 1)
	require.NoError(t, s.Put(n))

	newConf := types.Confidence{Mu: 0.9, SigmaSq: 0.01, N: 5, Tau: 123}
	require.NoError(t, s.ApplyConfidence(n.ID, newConf))
	got, _ := s.Get(n.ID)
	assert.Equal(t, newConf, got.Confidence)
}

func TestPutEdgeAndRemoveEdge(t *testing.T) {
	s := openTestStore(t)
	a := newTestNode(t, 1)
	b := newTestNode(t, 2)
	require.NoError(t, s.Put(a))
	require.NoError(t, s.Put(b))

	require.NoError(t, s.PutEdge(a.ID, types.Edge{Target: b.ID, Type: types.Similar, Weight: 0.4}))
	got, _ := s.Get(a.ID)
	require.Len(t, got.Edges, 1)
	assert.Equal(t, b.ID, got.Edges[0].Target)

	require.NoError(t, s.RemoveEdge(a.ID, b.ID, types.Similar))
	got, _ = s.Get(a.ID)
	assert.Len(t, got.Edges, 0)
}

func TestCapacityOverflowDemotesOldest(t *testing.T) {
	s := openTestStore(t) // capacity 4
	var ids []types.NodeID
	for i := int64(1); i <= 5; i++ {
		n := newTestNode(t, i)
		require.NoError(t, s.Put(n))
		ids = append(ids, n.ID)
		require.NoError(t, s.Touch(n.ID, i*1000))
	}
	assert.LessOrEqual(t, s.HotLen(), 4)
	// the oldest (first) node should still be reachable via the warm tier.
	got, ok := s.Get(ids[0])
	require.True(t, ok)
	assert.Equal(t, ids[0], got.ID)
}

func TestForEachNodeVisitsEveryLiveNode(t *testing.T) {
	s := openTestStore(t)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, s.Put(newTestNode(t, i)))
	}
	seen := map[types.NodeID]bool{}
	err := s.ForEachNode(func(n *types.Node) bool {
		seen[n.ID] = true
		return true
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestRebuildFromWALReconstructsState(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.InMemory = false
	s1, err := Open(cfg)
	require.NoError(t, err)
	n := newTestNode(t, 1)
	require.NoError(t, s1.Put(n))
	require.NoError(t, s1.PutEdge(n.ID, types.Edge{Target: n.ID, Type: types.Similar, Weight: 0.3}))
	s1.Close()

	s2, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer s2.Close()

	got, ok := s2.Get(n.ID)
	require.True(t, ok)
	assert.Equal(t, n.Payload, got.Payload)
	require.Len(t, got.Edges, 1)
}

func TestMutationSubscriberReceivesEvents(t *testing.T) {
	s := openTestStore(t)
	var kinds []MutationKind
	s.Subscribe(func(ev MutationEvent) {
		kinds = append(kinds, ev.Kind)
	})
	n := newTestNode(t, 1)
	require.NoError(t, s.Put(n))
	require.NoError(t, s.Remove(n.ID))
	assert.Equal(t, []MutationKind{MutationInserted, MutationRemoved}, kinds)
}

func TestDefaultConfigDirAndHotCapacity(t *testing.T) {
	cfg := DefaultConfig("/tmp/x")
	assert.Equal(t, filepath.Join("/tmp/x"), cfg.Dir)
	assert.Equal(t, 10_000, cfg.HotCapacity)
}
