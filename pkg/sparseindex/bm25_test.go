package sparseindex

import (
	"testing"

	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeLowercasesSplitsAndDropsShort(t *testing.T) {
	toks := Tokenize("The Cache invalidates on write! a b")
	assert.Equal(t, []string{"the", "cache", "invalidates", "on", "write"}, toks)
}

func TestSearchRanksExactMatchHighest(t *testing.T) {
	idx := New()
	a, _ := types.NewNodeID(1)
	b2, _ := types.NewNodeID(2)
	idx.Add(a, "the cache invalidates on write")
	idx.Add(b2, "unrelated content about something else entirely")

	results := idx.Search("cache invalidate", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, a, results[0].ID)
}

func TestSearchTiesBrokenByIDAscending(t *testing.T) {
	idx := New()
	a, _ := types.NewNodeID(2)
	b2, _ := types.NewNodeID(1)
	idx.Add(a, "identical terms here")
	idx.Add(b2, "identical terms here")

	results := idx.Search("identical terms", 5)
	require.Len(t, results, 2)
	assert.InDelta(t, results[0].Score, results[1].Score, 0.0001)
	assert.True(t, results[0].ID.Less(results[1].ID) || results[0].ID == results[1].ID)
}

func TestRemoveDropsFromIndex(t *testing.T) {
	idx := New()
	a, _ := types.NewNodeID(1)
	idx.Add(a, "some words here")
	assert.Equal(t, 1, idx.Count())
	idx.Remove(a)
	assert.Equal(t, 0, idx.Count())
	assert.Empty(t, idx.Search("words", 5))
}
