package tripletindex

import (
	"testing"

	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryExactMatch(t *testing.T) {
	idx := New()
	idx.Add(types.Triplet{Subject: "jwt", Predicate: "prevents", Object: "session-state", Weight: 0.8})

	results := idx.Query("jwt", "", "")
	require.Len(t, results, 1)
	assert.Equal(t, "prevents", results[0].Predicate)
}

func TestQueryWildcardReturnsAll(t *testing.T) {
	idx := New()
	idx.Add(types.Triplet{Subject: "a", Predicate: "p", Object: "b"})
	idx.Add(types.Triplet{Subject: "c", Predicate: "p", Object: "d"})

	results := idx.Query("", "", "")
	assert.Len(t, results, 2)
}

func TestQueryNoMatchReturnsEmpty(t *testing.T) {
	idx := New()
	idx.Add(types.Triplet{Subject: "a", Predicate: "p", Object: "b"})

	assert.Empty(t, idx.Query("missing", "", ""))
}

func TestBindEntityAndLookup(t *testing.T) {
	idx := New()
	id, _ := types.NewNodeID(1)
	idx.BindEntity("jwt", id)

	got, ok := idx.EntityNode("jwt")
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = idx.EntityNode("unknown")
	assert.False(t, ok)
}

func TestQueryResultsSortedDeterministically(t *testing.T) {
	idx := New()
	idx.Add(types.Triplet{Subject: "b", Predicate: "p", Object: "z"})
	idx.Add(types.Triplet{Subject: "a", Predicate: "p", Object: "y"})

	results := idx.Query("", "p", "")
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Subject)
	assert.Equal(t, "b", results[1].Subject)
}
