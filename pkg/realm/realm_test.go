package realm

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreshManagerStartsAtRoot(t *testing.T) {
	m, err := Open("")
	require.NoError(t, err)
	require.Equal(t, Root, m.CurrentRealm())
}

func TestCreateRealmRequiresExistingParent(t *testing.T) {
	m, err := Open("")
	require.NoError(t, err)

	require.Error(t, m.CreateRealm("work", "nonexistent"))
	require.NoError(t, m.CreateRealm("work", Root))
	require.Error(t, m.CreateRealm("work", Root)) // duplicate
}

func TestSetRealmRequiresExistingRealm(t *testing.T) {
	m, err := Open("")
	require.NoError(t, err)

	require.Error(t, m.SetRealm("nonexistent"))
	require.NoError(t, m.CreateRealm("work", Root))
	require.NoError(t, m.SetRealm("work"))
	require.Equal(t, "work", m.CurrentRealm())
}

func TestIsAncestorOrEqualWalksChainToRoot(t *testing.T) {
	m, err := Open("")
	require.NoError(t, err)
	require.NoError(t, m.CreateRealm("work", Root))
	require.NoError(t, m.CreateRealm("work/project-a", "work"))

	require.True(t, m.IsAncestorOrEqual("work/project-a", "work/project-a"))
	require.True(t, m.IsAncestorOrEqual("work", "work/project-a"))
	require.True(t, m.IsAncestorOrEqual(Root, "work/project-a"))
	require.False(t, m.IsAncestorOrEqual("work/project-a", "work"))
}

func TestIsAncestorOrEqualAcrossSiblingBranchesIsFalse(t *testing.T) {
	m, err := Open("")
	require.NoError(t, err)
	require.NoError(t, m.CreateRealm("work", Root))
	require.NoError(t, m.CreateRealm("personal", Root))

	require.False(t, m.IsAncestorOrEqual("personal", "work"))
}

func TestPredicateReflectsCurrentRealm(t *testing.T) {
	m, err := Open("")
	require.NoError(t, err)
	require.NoError(t, m.CreateRealm("work", Root))
	require.NoError(t, m.SetRealm("work"))

	pred := m.Predicate()
	require.True(t, pred("work"))
	require.True(t, pred(Root))

	require.NoError(t, m.CreateRealm("personal", Root))
	require.False(t, pred("personal"))
}

func TestManagerPersistsAndReloadsAcrossOpen(t *testing.T) {
	segmentPath := filepath.Join(t.TempDir(), "realm.state")
	m, err := Open(segmentPath)
	require.NoError(t, err)
	require.NoError(t, m.CreateRealm("work", Root))
	require.NoError(t, m.SetRealm("work"))

	reloaded, err := Open(segmentPath)
	require.NoError(t, err)
	require.Equal(t, "work", reloaded.CurrentRealm())
	require.True(t, reloaded.IsAncestorOrEqual(Root, "work"))
}
