package mind

import (
	"github.com/genomewalker/resonantdb/pkg/rerr"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Get implements §6's get(id) → Option<Node>.
func (m *Mind) Get(id types.NodeID) (*types.Node, bool) {
	return m.store.Get(id)
}

// Text implements §6's text(id) → Option<string>.
func (m *Mind) Text(id types.NodeID) (string, bool) {
	n, ok := m.store.Get(id)
	if !ok {
		return "", false
	}
	return string(n.Payload), true
}

// Tags implements §6's tags(id) → set<string>.
func (m *Mind) Tags(id types.NodeID) (map[string]struct{}, bool) {
	n, ok := m.store.Get(id)
	if !ok {
		return nil, false
	}
	out := make(map[string]struct{}, len(n.Tags))
	for t := range n.Tags {
		out[t] = struct{}{}
	}
	return out, true
}

// UpdateNode implements §6's update_node(id, fn): fn receives a clone, any
// mutation it makes is written back atomically (store.Update's contract).
func (m *Mind) UpdateNode(id types.NodeID, fn func(*types.Node) error) (*types.Node, error) {
	return m.store.Update(id, fn)
}

// RemoveNode implements §6's remove_node(id): an unconditional tombstone,
// distinct from Forget which also handles cascade/rewire.
func (m *Mind) RemoveNode(id types.NodeID) error {
	if _, ok := m.store.Get(id); !ok {
		return rerr.New(rerr.NotFound, "node %s not found", id)
	}
	return m.store.Remove(id)
}
