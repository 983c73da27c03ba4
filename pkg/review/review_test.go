package review

import (
	"path/filepath"
	"testing"

	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/tripletindex"
	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, segmentPath string) (*Queue, *store.Store, types.NodeID) {
	t.Helper()
	cfg := store.DefaultConfig(t.TempDir())
	cfg.InMemory = true
	s, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	g := graph.New(s, tripletindex.New())

	id, err := types.NewNodeID(1_000)
	require.NoError(t, err)
	n := types.NewNode(id, types.Episode, types.QuantizedVector{}, []byte("a claim"), 0.5, 1_000)
	n.AddTag("source:pipeline-a")
	require.NoError(t, s.Put(n))

	q, err := Open(s, g, segmentPath)
	require.NoError(t, err)
	require.NoError(t, q.Submit(id, 1_000))
	return q, s, id
}

func TestApproveRaisesConfidenceAndTrustForHighQuality(t *testing.T) {
	q, s, id := newTestQueue(t, "")

	require.NoError(t, q.Approve(id, 5, 2_000))

	n, ok := s.Get(id)
	require.True(t, ok)
	require.InDelta(t, 0.5+0.05*2, n.Confidence.Mu, 1e-9)
	require.InDelta(t, 0.05, q.TrustOf("pipeline-a"), 1e-9)

	stats := q.ReviewStats()
	require.Equal(t, 1, stats.Approved)
	require.Equal(t, 0, stats.Pending)
}

func TestApproveWithMediocreQualityLeavesConfidenceUnchanged(t *testing.T) {
	q, s, id := newTestQueue(t, "")

	require.NoError(t, q.Approve(id, 3, 2_000))

	n, ok := s.Get(id)
	require.True(t, ok)
	require.InDelta(t, 0.5, n.Confidence.Mu, 1e-9)
}

func TestRejectLowersConfidenceWithMinimumMagnitude(t *testing.T) {
	q, s, id := newTestQueue(t, "")

	require.NoError(t, q.Reject(id, 3, 2_000))

	n, ok := s.Get(id)
	require.True(t, ok)
	require.InDelta(t, 0.5-0.1, n.Confidence.Mu, 1e-9)
	require.InDelta(t, -0.05, q.TrustOf("pipeline-a"), 1e-9)
}

func TestRejectScalesWithLowQuality(t *testing.T) {
	q, s, id := newTestQueue(t, "")

	require.NoError(t, q.Reject(id, 1, 2_000))

	n, ok := s.Get(id)
	require.True(t, ok)
	require.InDelta(t, 0.5-0.14, n.Confidence.Mu, 1e-9)
}

func TestEditReplacesPayloadWithoutConfidenceChange(t *testing.T) {
	q, s, id := newTestQueue(t, "")

	require.NoError(t, q.Edit(id, 4, []byte("corrected claim"), 2_000))

	n, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, "corrected claim", string(n.Payload))
	require.InDelta(t, 0.5, n.Confidence.Mu, 1e-9)

	stats := q.ReviewStats()
	require.Equal(t, 1, stats.Edited)
}

func TestDeferLeavesNodeUntouched(t *testing.T) {
	q, s, id := newTestQueue(t, "")

	require.NoError(t, q.Defer(id, 2, 2_000))

	n, ok := s.Get(id)
	require.True(t, ok)
	require.InDelta(t, 0.5, n.Confidence.Mu, 1e-9)

	stats := q.ReviewStats()
	require.Equal(t, 1, stats.Deferred)
}

func TestQueuePersistsAndReloadsAcrossOpen(t *testing.T) {
	segmentPath := filepath.Join(t.TempDir(), "review.queue")
	q, _, id := newTestQueue(t, segmentPath)
	require.NoError(t, q.Approve(id, 5, 2_000))

	cfg := store.DefaultConfig(t.TempDir())
	cfg.InMemory = true
	s2, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(s2.Close)
	g2 := graph.New(s2, tripletindex.New())

	reloaded, err := Open(s2, g2, segmentPath)
	require.NoError(t, err)
	stats := reloaded.ReviewStats()
	require.Equal(t, 1, stats.Approved)
	require.InDelta(t, 0.05, reloaded.TrustOf("pipeline-a"), 1e-9)
}

func TestApproveUnknownEntryReturnsNotFound(t *testing.T) {
	q, _, _ := newTestQueue(t, "")
	missing, err := types.NewNodeID(5_000)
	require.NoError(t, err)
	require.Error(t, q.Approve(missing, 5, 6_000))
}
