package mind

import (
	"context"
	"testing"

	"github.com/genomewalker/resonantdb/pkg/realm"
	"github.com/genomewalker/resonantdb/pkg/rerr"
	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEmbed(text string) ([]float32, error) {
	full := make([]float32, types.EmbeddingDims)
	for i, r := range text {
		full[i%types.EmbeddingDims] += float32(r)
	}
	return full, nil
}

func newTestMind(t *testing.T) *Mind {
	t.Helper()
	now := int64(1_700_000_000_000)
	m, err := Open(Config{
		StorageRoot: t.TempDir(),
		InMemory:    true,
		HotCapacity: 1000,
		Embed:       fakeEmbed,
		NowFn:       func() int64 { return now },
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestRememberAndGetRoundTrip(t *testing.T) {
	m := newTestMind(t)
	id, err := m.Remember("the sky is blue", types.Episode, nil, "weather")
	require.NoError(t, err)

	n, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, "the sky is blue", string(n.Payload))
	assert.True(t, n.HasTag("weather"))

	text, ok := m.Text(id)
	require.True(t, ok)
	assert.Equal(t, "the sky is blue", text)
}

func TestRememberWithoutEmbedderReturnsEmbedderUnavailable(t *testing.T) {
	m, err := Open(Config{InMemory: true, HotCapacity: 10})
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Remember("no embedder configured", types.Episode, nil)
	require.Error(t, err)
	assert.Equal(t, rerr.EmbedderUnavailable, rerr.KindOf(err))
}

func TestRememberVectorSkipsEmbedder(t *testing.T) {
	m, err := Open(Config{InMemory: true, HotCapacity: 10})
	require.NoError(t, err)
	defer m.Close()

	vec := make([]float32, types.EmbeddingDims)
	vec[0] = 1
	id, err := m.RememberVector(types.Belief, vec, nil, []byte("payload"))
	require.NoError(t, err)
	n, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, types.Belief, n.Type)
}

func TestStrengthenWeakenAdjustConfidence(t *testing.T) {
	m := newTestMind(t)
	id, err := m.Remember("a fact worth reinforcing", types.Belief, nil)
	require.NoError(t, err)

	before, _ := m.Get(id)
	require.NoError(t, m.Strengthen(id, 0.2))
	after, _ := m.Get(id)
	assert.Greater(t, after.Confidence.Mu, before.Confidence.Mu)

	require.NoError(t, m.Weaken(id, 0.5))
	weakened, _ := m.Get(id)
	assert.Less(t, weakened.Confidence.Mu, after.Confidence.Mu)
}

func TestConnectTripletAndQueryGraph(t *testing.T) {
	m := newTestMind(t)
	_, _, err := m.ConnectTriplet("alice", "knows", "bob", 0.9)
	require.NoError(t, err)

	triplets := m.QueryGraph("alice", "", "")
	require.Len(t, triplets, 1)
	assert.Equal(t, "bob", triplets[0].Object)
}

func TestForgetRemovesNode(t *testing.T) {
	m := newTestMind(t)
	id, err := m.Remember("ephemeral note", types.Episode, nil)
	require.NoError(t, err)

	require.NoError(t, m.Forget(id, false, false, 0.1))
	_, ok := m.Get(id)
	assert.False(t, ok)
}

func TestRecallByTagRanksByConfidenceDescending(t *testing.T) {
	m := newTestMind(t)
	low := 0.3
	high := 0.95
	idLow, err := m.Remember("low confidence note", types.Episode, &low, "shared")
	require.NoError(t, err)
	idHigh, err := m.Remember("high confidence note", types.Episode, &high, "shared")
	require.NoError(t, err)
	_ = idLow

	results, err := m.RecallByTag("shared", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, idHigh, results[0].ID)
}

func TestTickRunsWithoutError(t *testing.T) {
	m := newTestMind(t)
	_, err := m.Remember("something to decay", types.Episode, nil)
	require.NoError(t, err)
	assert.NoError(t, m.Tick(context.Background()))
}

func TestSnapshotPersistsSparseSegment(t *testing.T) {
	m := newTestMind(t)
	_, err := m.Remember("snapshot me", types.Episode, nil)
	require.NoError(t, err)
	assert.NoError(t, m.Snapshot())
}

func TestCoherenceAndHealthReturnBoundedScalars(t *testing.T) {
	m := newTestMind(t)
	_, err := m.Remember("a node for health checks", types.Belief, nil)
	require.NoError(t, err)

	coh, err := m.Coherence()
	require.NoError(t, err)
	tau := coh.Tau()
	assert.GreaterOrEqual(t, tau, 0.0)

	health, err := m.Health()
	require.NoError(t, err)
	psi := health.Psi()
	assert.GreaterOrEqual(t, psi, 0.0)
	assert.LessOrEqual(t, psi, 1.0)
}

func TestStateSnapshotReportsYantraReadyOnceDenseIndexPopulated(t *testing.T) {
	m := newTestMind(t)

	st, err := m.StateSnapshot()
	require.NoError(t, err)
	assert.False(t, st.YantraReady)
	assert.Equal(t, 0, st.TotalNodes)

	_, err = m.Remember("a vector for the dense index", types.Episode, nil)
	require.NoError(t, err)

	st, err = m.StateSnapshot()
	require.NoError(t, err)
	assert.True(t, st.YantraReady)
	assert.Equal(t, 1, st.TotalNodes)
	assert.Equal(t, 1, st.Hot)
}

func TestLedgerSaveLoadAndList(t *testing.T) {
	m := newTestMind(t)
	id, err := m.SaveLedger("ledger body one", "session-a", "project-x")
	require.NoError(t, err)

	gotID, content, ok, err := m.LoadLedger("session-a", "project-x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "ledger body one", content)

	_, _, ok, err = m.LoadLedger("no-such-session", "")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := m.ListLedgers(10, "project-x")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "session-a", list[0].Session)
}

func TestRealmSetCreateAndAncestry(t *testing.T) {
	m := newTestMind(t)
	assert.Equal(t, realm.Root, m.CurrentRealm())

	require.NoError(t, m.CreateRealm("team", realm.Root))
	require.NoError(t, m.SetRealm("team"))
	assert.Equal(t, "team", m.CurrentRealm())

	err := m.SetRealm("does-not-exist")
	require.Error(t, err)
	assert.Equal(t, rerr.NotFound, rerr.KindOf(err))
}

func TestReviewSubmitApproveRejectFlow(t *testing.T) {
	m := newTestMind(t)
	id, err := m.Remember("reviewable content", types.Episode, nil)
	require.NoError(t, err)

	require.NoError(t, m.SubmitForReview(id))
	require.NoError(t, m.ApproveReview(id, 5))

	stats := m.ReviewStats()
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 0, stats.Pending)
}

func TestFindAttractorsAndRunAttractorDynamics(t *testing.T) {
	m := newTestMind(t)
	high := 0.9
	id, err := m.Remember("a well-connected hub", types.Belief, &high)
	require.NoError(t, err)
	_, err = m.UpdateNode(id, func(n *types.Node) error {
		n.Confidence.SigmaSq = 0.01
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, m.store.PutEdge(id, types.Edge{Target: mustID(t), Type: types.Supports, Weight: 0.5}))
	require.NoError(t, m.store.PutEdge(id, types.Edge{Target: mustID(t), Type: types.Supports, Weight: 0.5}))

	attractors, err := m.FindAttractors(5)
	require.NoError(t, err)
	require.NotEmpty(t, attractors)

	settled, err := m.RunAttractorDynamics(5, 0.02)
	require.NoError(t, err)
	assert.NotEmpty(t, settled)
}

func mustID(t *testing.T) types.NodeID {
	t.Helper()
	id, err := types.NewNodeID(1)
	require.NoError(t, err)
	return id
}
