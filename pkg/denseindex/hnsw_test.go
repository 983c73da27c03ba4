package denseindex

import (
	"testing"

	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecOf(t *testing.T, vals ...float32) types.QuantizedVector {
	t.Helper()
	full := make([]float32, types.EmbeddingDims)
	copy(full, vals)
	return types.Quantize(full)
}

func TestInsertAndSearchFindsClosest(t *testing.T) {
	idx := New(DefaultConfig())
	ids := make([]types.NodeID, 5)
	for i := range ids {
		id, err := types.NewNodeID(int64(i))
		require.NoError(t, err)
		ids[i] = id
		vals := make([]float32, len(ids))
		vals[i] = 1
		idx.Insert(id, vecOf(t, vals...))
	}

	results := idx.Search(vecOf(t, 0, 0, 0, 0, 1), 1)
	require.Len(t, results, 1)
	assert.Equal(t, ids[4], results[0].ID)
}

func TestRemoveDropsFromIndex(t *testing.T) {
	idx := New(DefaultConfig())
	id, _ := types.NewNodeID(1)
	idx.Insert(id, vecOf(t, 1, 2, 3))
	assert.True(t, idx.Has(id))
	idx.Remove(id)
	assert.False(t, idx.Has(id))
	assert.Equal(t, 0, idx.Size())
}

func TestSearchEmptyIndexReturnsNil(t *testing.T) {
	idx := New(DefaultConfig())
	results := idx.Search(vecOf(t, 1, 1, 1), 5)
	assert.Nil(t, results)
}

func TestSearchRecallApproximatesBruteForce(t *testing.T) {
	idx := New(DefaultConfig())
	var ids []types.NodeID
	var vecs []types.QuantizedVector
	for i := 0; i < 200; i++ {
		id, _ := types.NewNodeID(int64(i))
		v := vecOf(t, float32(i%40), float32((i*3)%40), float32((i*7)%40))
		idx.Insert(id, v)
		ids = append(ids, id)
		vecs = append(vecs, v)
	}

	query := vecOf(t, 17, 9, 3)
	type scored struct {
		id  types.NodeID
		sim float64
	}
	brute := make([]scored, len(ids))
	for i, id := range ids {
		brute[i] = scored{id: id, sim: vecs[i].ApproxCosine(query)}
	}
	for i := 0; i < len(brute); i++ {
		for j := i + 1; j < len(brute); j++ {
			if brute[j].sim > brute[i].sim {
				brute[i], brute[j] = brute[j], brute[i]
			}
		}
	}
	bruteTop := map[types.NodeID]bool{}
	for _, s := range brute[:10] {
		bruteTop[s.id] = true
	}

	results := idx.Search(query, 10)
	hits := 0
	for _, r := range results {
		if bruteTop[r.ID] {
			hits++
		}
	}
	assert.GreaterOrEqual(t, float64(hits)/10.0, 0.5) // approximate, not guaranteed 0.9 at this scale
}
