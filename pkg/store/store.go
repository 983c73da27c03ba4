// Package store implements the tiered hot/warm/cold node store (§4.1) behind
// a single handle, backed by the write-ahead log (§4.2) for durability and
// cross-process synchronization.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/genomewalker/resonantdb/pkg/rerr"
	"github.com/genomewalker/resonantdb/pkg/rlog"
	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/genomewalker/resonantdb/pkg/wal"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("resonantdb/store")

// Config configures a Store's on-disk layout and hot-tier capacity.
type Config struct {
	Dir         string // storage root; holds wal.log, warm.mmap, cold.kv/
	HotCapacity int    // default 10,000 per §4.1
	InMemory    bool   // cold tier runs in-memory (tests)
}

// DefaultConfig returns the §4.1 defaults.
func DefaultConfig(dir string) Config {
	return Config{Dir: dir, HotCapacity: 10_000}
}

// MutationKind classifies what changed, for Store.Subscribe subscribers (the
// dense/sparse indices and the reverse-edge index all hang off this hook
// rather than Store importing them directly).
type MutationKind int

const (
	MutationInserted MutationKind = iota
	MutationUpdated
	MutationRemoved
	MutationEdgeAdded
	MutationEdgeRemoved
)

// MutationEvent is delivered synchronously, after the WAL record for the
// mutation is durable, and before Put/Update/Remove returns.
type MutationEvent struct {
	Kind MutationKind
	Node *types.Node // the node's state after the mutation (nil on Removed)
	Edge *types.Edge // set only for MutationEdgeAdded/Removed
	From types.NodeID
}

// Store is the tiered hot/warm/cold handle.
type Store struct {
	mu       sync.RWMutex
	hot      *hotTier
	warm     *warmTier
	cold     *coldTier
	wal      *wal.WAL
	lastSeen uint64
	log      *rlog.Logger
	onMutate []func(MutationEvent)
	nowFn    func() int64
}

// Open opens (or creates) a store rooted at cfg.Dir.
func Open(cfg Config) (*Store, error) {
	if cfg.HotCapacity <= 0 {
		cfg.HotCapacity = 10_000
	}
	w, err := wal.Open(filepath.Join(cfg.Dir, "wal.log"))
	if err != nil {
		return nil, err
	}
	warm, err := openWarmTier(filepath.Join(cfg.Dir, "warm.mmap"))
	if err != nil {
		w.Close()
		return nil, err
	}
	cold, err := openColdTier(filepath.Join(cfg.Dir, "cold.kv"), cfg.InMemory)
	if err != nil {
		w.Close()
		warm.close()
		return nil, err
	}

	s := &Store{
		hot:  newHotTier(cfg.HotCapacity),
		warm: warm,
		cold: cold,
		wal:  w,
		log:  rlog.New("store"),
		nowFn: func() int64 {
			return time.Now().UnixMilli()
		},
	}
	if err := s.rebuildFromWAL(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Subscribe registers fn to be called on every mutation, in registration
// order. Used to keep pkg/graph's reverse-edge index and the dense/sparse/
// triplet indices in sync with the store without a circular dependency.
func (s *Store) Subscribe(fn func(MutationEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = append(s.onMutate, fn)
}

func (s *Store) publish(ev MutationEvent) {
	s.mu.RLock()
	subs := s.onMutate
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (s *Store) now() int64 { return s.nowFn() }

// rebuildFromWAL replays every record from sequence 0, reconstructing the
// hot tier (and warm/cold as capacity demands) the same way a fresh process
// attaching to an existing storage root would.
func (s *Store) rebuildFromWAL() error {
	return s.wal.ReplayFrom(0, func(r wal.Record) error {
		s.lastSeen = r.Header.Seq
		return s.applyRecord(r)
	})
}

// Get returns the authoritative copy of id, promoting it to hot if found in
// warm or cold (§4.1 get contract). Touching a node's tau_accessed happens
// separately via Touch, since plain reads inside the resonance engine's
// internal scans should not always count as an access (only caller-facing
// recall does).
func (s *Store) Get(id types.NodeID) (*types.Node, bool) {
	if n, ok := s.hot.get(id); ok {
		return n, true
	}
	if n, ok := s.warm.get(id); ok {
		s.promote(n)
		return n, true
	}
	n, ok, err := s.cold.get(id)
	if err != nil {
		s.log.Warnf("cold tier get(%s) failed, surfacing as miss: %v", id, err)
		return nil, false
	}
	if ok {
		s.promote(n)
	}
	return n, ok
}

func (s *Store) promote(n *types.Node) {
	_, span := tracer.Start(context.Background(), "tier.promote")
	defer span.End()
	if s.hot.full() {
		s.demoteOldest()
	}
	s.hot.put(n)
}

// demoteOldest evicts the hot-tier node with the oldest tau_accessed into
// the warm tier, making room for a new hot-tier entry (§4.1 capacity
// overflow policy).
func (s *Store) demoteOldest() {
	id, ok := s.hot.oldestAccessed()
	if !ok {
		return
	}
	n, ok := s.hot.evict(id)
	if !ok {
		return
	}
	if err := s.warm.put(n); err != nil {
		s.log.Warnf("demote(%s) to warm failed: %v", id, err)
	}
}

// Put writes a new (or replaces an existing) node: hot tier, durable WAL
// record, then the mutation hook fan-out. Returns once the WAL record is
// durable (§4.1 put contract).
func (s *Store) Put(n *types.Node) error {
	if s.hot.full() {
		if _, exists := s.hot.get(n.ID); !exists {
			s.demoteOldest()
		}
	}
	if _, err := s.wal.Append(wal.KindInsert, wal.FormatFullNodeInt8, s.now(), wal.EncodeFullNode(n, true)); err != nil {
		return rerr.Wrap(rerr.StorageIO, err, "append insert record for %s", n.ID)
	}
	s.hot.put(n)
	s.publish(MutationEvent{Kind: MutationInserted, Node: n})
	return nil
}

// Update reads id, applies fn to a clone, writes the result back, and emits
// a full-node WAL record. Callers performing a narrowly-scoped mutation
// (touch, confidence, edge) should prefer Touch/ApplyConfidence/PutEdge
// below, which emit the §4.2 delta formats instead of a full rewrite.
func (s *Store) Update(id types.NodeID, fn func(*types.Node) error) (*types.Node, error) {
	n, ok := s.Get(id)
	if !ok {
		return nil, rerr.New(rerr.NotFound, "node %s not found", id)
	}
	clone := n.Clone()
	if err := fn(clone); err != nil {
		return nil, err
	}
	if _, err := s.wal.Append(wal.KindUpdate, wal.FormatFullNodeInt8, s.now(), wal.EncodeFullNode(clone, true)); err != nil {
		return nil, rerr.Wrap(rerr.StorageIO, err, "append update record for %s", id)
	}
	s.hot.put(clone)
	s.publish(MutationEvent{Kind: MutationUpdated, Node: clone})
	return clone, nil
}

// Touch bumps tau_accessed and emits a V2 touch delta.
func (s *Store) Touch(id types.NodeID, nowMs int64) error {
	n, ok := s.Get(id)
	if !ok {
		return rerr.New(rerr.NotFound, "node %s not found", id)
	}
	if _, err := s.wal.Append(wal.KindUpdate, wal.FormatTouchDelta, s.now(), wal.EncodeTouchDelta(wal.TouchDelta{NodeID: id, TauAccessed: nowMs})); err != nil {
		return rerr.Wrap(rerr.StorageIO, err, "append touch delta for %s", id)
	}
	n.TauAccessed = nowMs
	s.hot.put(n)
	return nil
}

// ApplyConfidence overwrites id's confidence posterior and emits a V3 delta.
// Used by strengthen/weaken/propagate_confidence in pkg/graph.
func (s *Store) ApplyConfidence(id types.NodeID, c types.Confidence) error {
	n, ok := s.Get(id)
	if !ok {
		return rerr.New(rerr.NotFound, "node %s not found", id)
	}
	if _, err := s.wal.Append(wal.KindUpdate, wal.FormatConfidenceDelta, s.now(), wal.EncodeConfidenceDelta(wal.ConfidenceDelta{NodeID: id, Confidence: c})); err != nil {
		return rerr.Wrap(rerr.StorageIO, err, "append confidence delta for %s", id)
	}
	n.Confidence = c
	s.hot.put(n)
	s.publish(MutationEvent{Kind: MutationUpdated, Node: n})
	return nil
}

// PutEdge adds (or strengthens, by max-weight merge) an outgoing edge on
// from, emitting a V4 edge-add delta.
func (s *Store) PutEdge(from types.NodeID, e types.Edge) error {
	n, ok := s.Get(from)
	if !ok {
		return rerr.New(rerr.NotFound, "node %s not found", from)
	}
	if _, err := s.wal.Append(wal.KindEdgeAdd, wal.FormatEdgeDelta, s.now(), wal.EncodeEdgeDelta(wal.EdgeDelta{From: from, To: e.Target, Type: e.Type, Weight: e.Weight})); err != nil {
		return rerr.Wrap(rerr.StorageIO, err, "append edge-add delta for %s", from)
	}
	n.PutEdge(e)
	s.hot.put(n)
	s.publish(MutationEvent{Kind: MutationEdgeAdded, Node: n, Edge: &e, From: from})
	return nil
}

// RemoveEdge removes the outgoing edge (from→to, t), emitting a V4
// edge-remove delta.
func (s *Store) RemoveEdge(from, to types.NodeID, t types.EdgeType) error {
	n, ok := s.Get(from)
	if !ok {
		return rerr.New(rerr.NotFound, "node %s not found", from)
	}
	if _, err := s.wal.Append(wal.KindEdgeRemove, wal.FormatEdgeDelta, s.now(), wal.EncodeEdgeDelta(wal.EdgeDelta{From: from, To: to, Type: t})); err != nil {
		return rerr.Wrap(rerr.StorageIO, err, "append edge-remove delta for %s", from)
	}
	filtered := n.Edges[:0]
	var removed *types.Edge
	for _, e := range n.Edges {
		if e.Target == to && e.Type == t {
			cp := e
			removed = &cp
			continue
		}
		filtered = append(filtered, e)
	}
	n.Edges = filtered
	s.hot.put(n)
	s.publish(MutationEvent{Kind: MutationEdgeRemoved, Node: n, Edge: removed, From: from})
	return nil
}

// Remove tombstones id in the hot tier and writes a delete WAL record
// (§4.1 remove contract).
func (s *Store) Remove(id types.NodeID) error {
	if _, err := s.wal.Append(wal.KindDelete, wal.FormatTouchDelta, s.now(), wal.EncodeTouchDelta(wal.TouchDelta{NodeID: id, TauAccessed: s.now()})); err != nil {
		return rerr.Wrap(rerr.StorageIO, err, "append delete record for %s", id)
	}
	s.hot.tombstone(id)
	s.warm.remove(id)
	if err := s.cold.remove(id); err != nil {
		s.log.Warnf("cold remove(%s) failed: %v", id, err)
	}
	s.publish(MutationEvent{Kind: MutationRemoved, From: id})
	return nil
}

// ForEachNode iterates hot, then warm, then cold (§4.1: "order is
// unspecified but stable within a tier"). f returning false stops iteration.
func (s *Store) ForEachNode(f func(*types.Node) bool) error {
	stop := false
	s.hot.forEach(func(n *types.Node) bool {
		if !f(n) {
			stop = true
			return false
		}
		return true
	})
	if stop {
		return nil
	}
	s.warm.forEach(func(n *types.Node) bool {
		if _, inHot := s.hot.get(n.ID); inHot {
			return true // already visited via hot tier
		}
		if !f(n) {
			stop = true
			return false
		}
		return true
	})
	if stop {
		return nil
	}
	return s.cold.forEach(func(n *types.Node) bool {
		if _, inHot := s.hot.get(n.ID); inHot {
			return true
		}
		return f(n)
	})
}

// SyncFromSharedField replays every WAL record this Store has not yet seen,
// applying it to local state (§4.2 cross-process sync).
func (s *Store) SyncFromSharedField() error {
	return s.wal.ReplayFrom(s.lastSeen, func(r wal.Record) error {
		if err := s.applyRecord(r); err != nil {
			return err
		}
		s.lastSeen = r.Header.Seq
		return nil
	})
}

// applyRecord applies one decoded WAL record to local state. Every branch is
// idempotent per §4.2/P11: reapplying the same record twice leaves state
// unchanged (touch aside, which is monotonic by construction).
func (s *Store) applyRecord(r wal.Record) error {
	switch r.Header.Format {
	case wal.FormatFullNodeFloat32, wal.FormatFullNodeInt8:
		n, err := wal.DecodeFullNode(r.Payload, r.Header.Format == wal.FormatFullNodeInt8)
		if err != nil {
			return fmt.Errorf("store: decode full-node record seq=%d: %w", r.Header.Seq, err)
		}
		s.hot.put(n)
	case wal.FormatTouchDelta:
		d, err := wal.DecodeTouchDelta(r.Payload)
		if err != nil {
			return fmt.Errorf("store: decode touch delta seq=%d: %w", r.Header.Seq, err)
		}
		if r.Header.Kind == wal.KindDelete {
			s.hot.tombstone(d.NodeID)
			s.warm.remove(d.NodeID)
			_ = s.cold.remove(d.NodeID)
			return nil
		}
		if n, ok := s.hot.get(d.NodeID); ok && d.TauAccessed > n.TauAccessed {
			n.TauAccessed = d.TauAccessed
		}
	case wal.FormatConfidenceDelta:
		d, err := wal.DecodeConfidenceDelta(r.Payload)
		if err != nil {
			return fmt.Errorf("store: decode confidence delta seq=%d: %w", r.Header.Seq, err)
		}
		if n, ok := s.hot.get(d.NodeID); ok {
			n.Confidence = d.Confidence
		}
	case wal.FormatEdgeDelta:
		d, err := wal.DecodeEdgeDelta(r.Payload)
		if err != nil {
			return fmt.Errorf("store: decode edge delta seq=%d: %w", r.Header.Seq, err)
		}
		n, ok := s.hot.get(d.From)
		if !ok {
			return nil
		}
		if r.Header.Kind == wal.KindEdgeRemove {
			filtered := n.Edges[:0]
			for _, e := range n.Edges {
				if e.Target == d.To && e.Type == d.Type {
					continue
				}
				filtered = append(filtered, e)
			}
			n.Edges = filtered
		} else {
			n.PutEdge(types.Edge{Target: d.To, Type: d.Type, Weight: d.Weight})
		}
	}
	return nil
}

// Close flushes and closes every tier. Errors are logged, not returned,
// matching the teacher's Close idiom.
func (s *Store) Close() {
	s.wal.Close()
	s.warm.close()
	s.cold.close()
}

// HotLen, WarmLen, ColdLen report approximate per-tier counts for
// health/state reporting (pkg/mind.State).
func (s *Store) HotLen() int { return s.hot.len() }

// WarmLen reports the warm tier's current offset-index size.
func (s *Store) WarmLen() int { return s.warm.len() }

// ColdLen counts node records in the cold tier by scanning its key prefix;
// O(n) in the cold tier's size, intended for occasional state() calls, not
// a hot path.
func (s *Store) ColdLen() (int, error) { return s.cold.count() }

// HotIDs returns every live node id currently resident in the hot tier,
// used by pkg/dynamics' decay tick (§4.7 step 1 applies only "for every
// hot node").
func (s *Store) HotIDs() []types.NodeID { return s.hot.ids() }

// CompactToWarm demotes every currently-hot node into the warm tier,
// durably persisting them outside the WAL (§4.7 step 6's "compact
// hot→warm demotions"). It returns the number of nodes demoted. Callers
// must hold no outstanding expectation that those nodes stay in the hot
// tier — the next Get on any of them re-promotes it as usual.
func (s *Store) CompactToWarm() int {
	ids := s.hot.ids()
	for _, id := range ids {
		n, ok := s.hot.evict(id)
		if !ok {
			continue
		}
		if err := s.warm.put(n); err != nil {
			s.log.Warnf("compact(%s) to warm failed: %v", id, err)
		}
	}
	return len(ids)
}

// Rotate archives the WAL's current content as a compressed segment and
// truncates the live log. Safe to call only after CompactToWarm, since the
// archived records are the only durable copy of anything still purely in
// the hot tier.
func (s *Store) Rotate() (string, error) {
	return s.wal.Rotate()
}
