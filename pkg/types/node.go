package types

// Node is a typed, embedded, confidence-weighted memory record (§3).
type Node struct {
	ID          NodeID
	Type        NodeType
	Embedding   QuantizedVector
	Payload     []byte
	Confidence  Confidence
	TauCreated  int64 // ms
	TauAccessed int64 // ms
	DecayRate   float64
	Epsilon     float64 // carried, never ranked on (§9 Q3)
	Edges       []Edge
	Tags        map[string]struct{}

	// Tombstoned marks a node removed by forget() but not yet reclaimed from
	// its hot-tier slot; tombstoned nodes are excluded from I6 (dense-index
	// membership) and from iteration.
	Tombstoned bool
}

// NewNode constructs a Node with type-default decay rate and a fresh
// confidence posterior, ready to be handed to the store.
func NewNode(id NodeID, t NodeType, embedding QuantizedVector, payload []byte, initialConfidence float64, nowMs int64) *Node {
	return &Node{
		ID:          id,
		Type:        t,
		Embedding:   embedding,
		Payload:     payload,
		Confidence:  NewConfidence(initialConfidence, nowMs),
		TauCreated:  nowMs,
		TauAccessed: nowMs,
		DecayRate:   DefaultDecayRate(t),
		Tags:        map[string]struct{}{},
	}
}

// HasTag reports set membership.
func (n *Node) HasTag(tag string) bool {
	_, ok := n.Tags[tag]
	return ok
}

// AddTag inserts tag into the node's tag set.
func (n *Node) AddTag(tag string) {
	if n.Tags == nil {
		n.Tags = map[string]struct{}{}
	}
	n.Tags[tag] = struct{}{}
}

// TagList renders Tags as a sorted-by-insertion-irrelevant slice (set order
// is not meaningful; callers that need determinism should sort it themselves).
func (n *Node) TagList() []string {
	out := make([]string, 0, len(n.Tags))
	for t := range n.Tags {
		out = append(out, t)
	}
	return out
}

// RealmTag returns the realm name encoded in a "realm:<name>" tag, and
// whether one is present. A node with no realm tag is universally visible
// (I5).
func (n *Node) RealmTag() (string, bool) {
	const prefix = "realm:"
	for t := range n.Tags {
		if len(t) > len(prefix) && t[:len(prefix)] == prefix {
			return t[len(prefix):], true
		}
	}
	return "", false
}

// SourceTag returns the provenance source encoded in a "source:<name>" tag,
// and whether one is present. Nodes created without an explicit source
// (most internally synthesized nodes — Wisdom, audit Episodes) carry none.
func (n *Node) SourceTag() (string, bool) {
	const prefix = "source:"
	for t := range n.Tags {
		if len(t) > len(prefix) && t[:len(prefix)] == prefix {
			return t[len(prefix):], true
		}
	}
	return "", false
}

// Clone returns a deep copy, used by the store's update(id, fn) contract so
// callers never mutate the authoritative copy in place.
func (n *Node) Clone() *Node {
	cp := *n
	cp.Payload = append([]byte(nil), n.Payload...)
	cp.Edges = append([]Edge(nil), n.Edges...)
	cp.Tags = make(map[string]struct{}, len(n.Tags))
	for t := range n.Tags {
		cp.Tags[t] = struct{}{}
	}
	return &cp
}

// PutEdge inserts or merges an outgoing edge. Duplicates of (target, type)
// merge by keeping the max weight (§3 Node.edges).
func (n *Node) PutEdge(e Edge) {
	for i := range n.Edges {
		if n.Edges[i].Target == e.Target && n.Edges[i].Type == e.Type {
			if e.Weight > n.Edges[i].Weight {
				n.Edges[i].Weight = e.Weight
			}
			return
		}
	}
	n.Edges = append(n.Edges, e)
}

// FindEdge looks up the outgoing edge to (target, type), if present.
func (n *Node) FindEdge(target NodeID, t EdgeType) (Edge, bool) {
	for _, e := range n.Edges {
		if e.Target == target && e.Type == t {
			return e, true
		}
	}
	return Edge{}, false
}
