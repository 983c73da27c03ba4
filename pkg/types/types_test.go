package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIDRoundTrip(t *testing.T) {
	now := time.Now().UnixMilli()
	id, err := NewNodeID(now)
	require.NoError(t, err)

	s := id.String()
	parsed, err := ParseNodeID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.Equal(t, now, id.CreatedAtMs())
}

func TestNodeIDOrdering(t *testing.T) {
	a, err := NewNodeID(100)
	require.NoError(t, err)
	b, err := NewNodeID(200)
	require.NoError(t, err)
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestConfidenceStrengthenNeverDecreasesEffective(t *testing.T) {
	c := NewConfidence(0.5, 0)
	before := c.Effective()
	after := c.Strengthen(0.1)
	assert.GreaterOrEqual(t, after.Effective(), before)
	assert.LessOrEqual(t, after.Effective(), 1.0)
}

func TestConfidenceWeakenNeverIncreasesMu(t *testing.T) {
	c := NewConfidence(0.5, 0)
	before := c.Mu
	after := c.Weaken(0.2)
	assert.LessOrEqual(t, after.Mu, before)
	assert.GreaterOrEqual(t, after.Mu, 0.0)
}

func TestConfidenceWeakenKeepsEffectiveInUnitRange(t *testing.T) {
	c := NewConfidence(0.5, 0)
	after := c.Weaken(0.2)
	assert.GreaterOrEqual(t, after.Effective(), 0.0)
	assert.LessOrEqual(t, after.Effective(), 1.0)
}

func TestConfidenceNMonotoneNonDecreasing(t *testing.T) {
	c := NewConfidence(0.5, 0)
	n0 := c.N
	c = c.Update(Positive, 0.3, 10)
	n1 := c.N
	c = c.Strengthen(0.1)
	n2 := c.N
	assert.True(t, n0 <= n1)
	assert.True(t, n1 <= n2)
}

func TestQuantizeApproxCosineIdentical(t *testing.T) {
	v := make([]float32, EmbeddingDims)
	for i := range v {
		v[i] = float32(i%7) - 3
	}
	qv := Quantize(v)
	cos := qv.ApproxCosine(qv)
	assert.Greater(t, cos, 0.9)
}

func TestQuantizeZeroVectorIsZero(t *testing.T) {
	var qv QuantizedVector
	assert.True(t, qv.IsZero())
	v := make([]float32, EmbeddingDims)
	v[0] = 1
	assert.False(t, Quantize(v).IsZero())
}

func TestNodePutEdgeMergesByMaxWeight(t *testing.T) {
	n := &Node{}
	target := NodeID{1}
	n.PutEdge(Edge{Target: target, Type: Similar, Weight: 0.3})
	n.PutEdge(Edge{Target: target, Type: Similar, Weight: 0.6})
	n.PutEdge(Edge{Target: target, Type: Similar, Weight: 0.2})
	require.Len(t, n.Edges, 1)
	assert.InDelta(t, 0.6, n.Edges[0].Weight, 0.0001)
}

func TestNodeRealmTag(t *testing.T) {
	n := &Node{Tags: map[string]struct{}{}}
	n.AddTag("realm:team-a")
	realm, ok := n.RealmTag()
	require.True(t, ok)
	assert.Equal(t, "team-a", realm)
}

func TestMindHealthStatusThresholds(t *testing.T) {
	assert.Equal(t, StatusVital, MindHealth{1, 1, 1, 1}.Status())
	assert.Equal(t, StatusHealthy, MindHealth{0.6, 0.6, 0.6, 0.6}.Status())
	assert.Equal(t, StatusDegraded, MindHealth{0.4, 0.4, 0.4, 0.4}.Status())
	assert.Equal(t, StatusCritical, MindHealth{0.1, 0.1, 0.1, 0.1}.Status())
}

func TestCoherenceTau(t *testing.T) {
	c := Coherence{Local: 0.8, Global: 0.8, Temporal: 0.8, Structural: 0.8}
	assert.InDelta(t, 0.8, c.Tau(), 0.0001)
	assert.Equal(t, 0.0, Coherence{}.Tau())
}

func TestTypeBoostDefaults(t *testing.T) {
	assert.Equal(t, 1.2, TypeBoost(Failure))
	assert.Equal(t, 1.1, TypeBoost(Belief))
	assert.Equal(t, 1.0, TypeBoost(Dream))
}
