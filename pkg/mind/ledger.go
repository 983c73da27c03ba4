package mind

import (
	"sort"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// Ledgers are modeled as StoryThread nodes tagged "ledger", plus optional
// "session:<name>" and "project:<name>" tags — the same tag-encoded-scope
// idiom RealmTag/SourceTag already use, rather than a dedicated store
// column, since ledgers need no field the generic node model lacks.
const (
	ledgerTag        = "ledger"
	sessionTagPrefix = "session:"
	projectTagPrefix = "project:"
)

// LedgerSummary is one entry of list_ledgers' result.
type LedgerSummary struct {
	ID        types.NodeID
	Session   string
	Project   string
	CreatedAt int64
}

// SaveLedger implements §6's save_ledger(content, session?, project?) →
// NodeId: a StoryThread node carrying the raw content as payload, with no
// embedding (ledgers are addressed by session/project, never recalled by
// similarity).
func (m *Mind) SaveLedger(content string, session, project string) (types.NodeID, error) {
	nowMs := m.nowFn()
	id, err := types.NewNodeID(nowMs)
	if err != nil {
		return types.NodeID{}, err
	}
	n := types.NewNode(id, types.StoryThread, types.QuantizedVector{}, []byte(content), 1.0, nowMs)
	n.AddTag(ledgerTag)
	if session != "" {
		n.AddTag(sessionTagPrefix + session)
	}
	if project != "" {
		n.AddTag(projectTagPrefix + project)
	}
	if err := m.store.Put(n); err != nil {
		return types.NodeID{}, err
	}
	return id, nil
}

// LoadLedger implements §6's load_ledger(session?, project?) → Option<(id,
// string)>: the most recently created ledger matching both filters (empty
// filters match anything), since a session/project pair may have been
// saved to more than once.
func (m *Mind) LoadLedger(session, project string) (types.NodeID, string, bool, error) {
	matches, err := m.matchingLedgers(session, project)
	if err != nil {
		return types.NodeID{}, "", false, err
	}
	if len(matches) == 0 {
		return types.NodeID{}, "", false, nil
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].TauCreated > matches[j].TauCreated
	})
	latest := matches[0]
	return latest.ID, string(latest.Payload), true, nil
}

// ListLedgers implements §6's list_ledgers(limit, project?): every ledger
// matching project (or all ledgers, if empty), newest first, truncated to
// limit.
func (m *Mind) ListLedgers(limit int, project string) ([]LedgerSummary, error) {
	matches, err := m.matchingLedgers("", project)
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].TauCreated > matches[j].TauCreated
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]LedgerSummary, len(matches))
	for i, n := range matches {
		session, _ := tagValue(n, sessionTagPrefix)
		proj, _ := tagValue(n, projectTagPrefix)
		out[i] = LedgerSummary{ID: n.ID, Session: session, Project: proj, CreatedAt: n.TauCreated}
	}
	return out, nil
}

func (m *Mind) matchingLedgers(session, project string) ([]*types.Node, error) {
	var out []*types.Node
	err := m.store.ForEachNode(func(n *types.Node) bool {
		if n.Tombstoned || n.Type != types.StoryThread || !n.HasTag(ledgerTag) {
			return true
		}
		if session != "" && !n.HasTag(sessionTagPrefix+session) {
			return true
		}
		if project != "" && !n.HasTag(projectTagPrefix+project) {
			return true
		}
		out = append(out, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func tagValue(n *types.Node, prefix string) (string, bool) {
	for t := range n.Tags {
		if len(t) > len(prefix) && t[:len(prefix)] == prefix {
			return t[len(prefix):], true
		}
	}
	return "", false
}
