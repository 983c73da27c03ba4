// Package realm implements §4.8's RealmManager: a hierarchical namespace
// DAG rooted at "brahman", a persisted current-realm pointer, and the
// ancestor-or-equal check (I5/P9) that gates every recall against it.
// Grounded on the teacher's pkg/config package for the "load persisted
// state, fall back to a sane default" shape; the DAG/ancestor-walk itself
// has no close analog in the pack, so it is built directly against §4.8's
// contract.
package realm

import (
	"sync"

	"github.com/genomewalker/resonantdb/pkg/rerr"
)

// Root is the DAG's root realm; every realm not otherwise rooted descends
// from it, and it has no parent of its own.
const Root = "brahman"

// Manager holds the realm DAG and the current-realm pointer, persisted to
// segmentPath on every mutation.
type Manager struct {
	mu sync.RWMutex

	segmentPath string
	current     string
	parents     map[string]string // realm -> parent; Root has no entry
}

// Open loads a persisted realm.state (§6's on-disk layout) from
// segmentPath, or starts a fresh DAG rooted at brahman with brahman as the
// current realm if no segment exists yet.
func Open(segmentPath string) (*Manager, error) {
	m := &Manager{segmentPath: segmentPath, current: Root, parents: map[string]string{}}
	if segmentPath == "" {
		return m, nil
	}
	seg, err := loadSegment(segmentPath)
	if err != nil {
		return nil, err
	}
	m.current = seg.Current
	m.parents = seg.Parents
	return m, nil
}

// CurrentRealm returns the persisted current_realm().
func (m *Manager) CurrentRealm() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetRealm implements set_realm(X): the named realm must already exist
// (or be Root).
func (m *Manager) SetRealm(x string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.existsLocked(x) {
		return rerr.New(rerr.NotFound, "realm %q not found", x)
	}
	m.current = x
	return m.persistLocked()
}

// CreateRealm implements create_realm(X, parent): parent must already
// exist, X must not.
func (m *Manager) CreateRealm(x, parent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsLocked(x) {
		return rerr.New(rerr.Conflict, "realm %q already exists", x)
	}
	if !m.existsLocked(parent) {
		return rerr.New(rerr.NotFound, "parent realm %q not found", parent)
	}
	m.parents[x] = parent
	return m.persistLocked()
}

func (m *Manager) existsLocked(x string) bool {
	if x == Root {
		return true
	}
	_, ok := m.parents[x]
	return ok
}

// IsAncestorOrEqual implements is_ancestor_or_equal(X, Y): true iff X == Y
// or X is reached by walking Y's parent chain up toward Root.
func (m *Manager) IsAncestorOrEqual(x, y string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cur := y
	for {
		if cur == x {
			return true
		}
		if cur == Root {
			return false
		}
		parent, ok := m.parents[cur]
		if !ok {
			return false
		}
		cur = parent
	}
}

// Predicate returns a func(realm string) bool suitable for
// resonance.Engine.SetRealmPredicate: a node's realm tag passes iff it is
// an ancestor-or-equal of the manager's current realm at call time.
func (m *Manager) Predicate() func(string) bool {
	return func(x string) bool {
		return m.IsAncestorOrEqual(x, m.CurrentRealm())
	}
}
