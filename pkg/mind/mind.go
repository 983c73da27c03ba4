// Package mind implements the §6 Mind facade: the single entry point an RPC
// boundary (or an embedding caller) talks to, wiring the tiered store, the
// dense/sparse/triplet indices, the graph, the resonance engine, the
// dynamics tick, the review queue, and the realm manager into one handle.
// Grounded on the teacher's pkg/nornicdb/db.go, whose DB struct plays the
// same role for the teacher's stack (Open(dir, config) constructing every
// collaborator, subscribing indices to storage mutations, exposing a flat
// method surface instead of making callers reach into subpackages).
package mind

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/genomewalker/resonantdb/pkg/denseindex"
	"github.com/genomewalker/resonantdb/pkg/dynamics"
	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/realm"
	"github.com/genomewalker/resonantdb/pkg/resonance"
	"github.com/genomewalker/resonantdb/pkg/review"
	"github.com/genomewalker/resonantdb/pkg/rlog"
	"github.com/genomewalker/resonantdb/pkg/sparseindex"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/tripletindex"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Config holds every tunable named in §6's "Environment" list, plus the
// storage root the on-disk layout hangs off.
type Config struct {
	// StorageRoot holds wal.log, warm.mmap, cold.kv/, sparse.index,
	// realm.state, review.queue (§6's on-disk layout). Required unless
	// InMemory is set.
	StorageRoot string
	InMemory    bool
	HotCapacity int

	Dense     denseindex.Config
	Resonance resonance.Config
	Dynamics  dynamics.Config

	// CoherenceSampleSize is §9 Q2's "configurable default (e.g., 64)" for
	// Coherence's global component. Zero uses the default.
	CoherenceSampleSize int

	// Embed turns query/remember text into a vector. Nil is valid: callers
	// that never pass text (only vectors) never need it, and text-based
	// calls surface rerr.ErrEmbedderUnavailable instead of panicking.
	Embed resonance.EmbedFunc

	// RunDynamicsTicker starts the background tick loop on Open. Tests and
	// single-shot callers usually leave this false and call Tick directly.
	RunDynamicsTicker bool

	// NowFn overrides wall-clock time; nil uses time.Now().UnixMilli.
	NowFn func() int64
}

func (c Config) segmentPath(name string) string {
	if c.StorageRoot == "" {
		return ""
	}
	return filepath.Join(c.StorageRoot, name)
}

// Mind is the facade over every collaborator package. All exported methods
// are safe for concurrent use; the underlying store serializes writers.
type Mind struct {
	cfg Config

	store    *store.Store
	dense    *denseindex.Index
	sparse   *sparseindex.Index
	triplets *tripletindex.Index
	graph    *graph.Graph

	resonance *resonance.Engine
	session   *resonance.SessionContext
	dynamics  *dynamics.Engine
	review    *review.Queue
	realm     *realm.Manager

	nowFn func() int64
	log   *rlog.Logger
}

// Open constructs every collaborator over a storage root (or an in-memory
// store for tests), backfills the dense and sparse indices from whatever
// the hot/warm/cold tiers already hold (§5: "deterministically
// reconstructable from the hot store"), and wires future mutations to keep
// them in sync going forward.
func Open(cfg Config) (*Mind, error) {
	nowFn := cfg.NowFn
	if nowFn == nil {
		nowFn = func() int64 { return time.Now().UnixMilli() }
	}
	if cfg.Resonance == (resonance.Config{}) {
		cfg.Resonance = resonance.DefaultConfig()
	}
	if cfg.Dynamics == (dynamics.Config{}) {
		cfg.Dynamics = dynamics.DefaultConfig()
	}
	if cfg.CoherenceSampleSize <= 0 {
		cfg.CoherenceSampleSize = defaultGlobalSampleSize
	}

	s, err := store.Open(store.Config{
		Dir:         cfg.StorageRoot,
		HotCapacity: cfg.HotCapacity,
		InMemory:    cfg.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("mind: open store: %w", err)
	}

	dense := denseindex.New(cfg.Dense)
	triplets := tripletindex.New()

	sparse := sparseindex.New()
	if path := cfg.segmentPath("sparse.index"); path != "" {
		sparse, err = sparseindex.LoadSegment(path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("mind: load sparse index: %w", err)
		}
	}

	backfillIndices(s, dense, sparse)

	g := graph.New(s, triplets)

	s.Subscribe(func(ev store.MutationEvent) {
		onIndexMutation(dense, sparse, ev)
	})

	session := resonance.NewSessionContext()
	resEngine := resonance.New(s, dense, sparse, g, cfg.Embed, session, cfg.Resonance, nowFn)

	realmMgr, err := realm.Open(cfg.segmentPath("realm.state"))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("mind: open realm manager: %w", err)
	}
	resEngine.SetRealmPredicate(realmMgr.Predicate())

	dynEngine := dynamics.New(s, g, sparse, cfg.segmentPath("sparse.index"), cfg.Dynamics, nowFn)

	reviewQueue, err := review.Open(s, g, cfg.segmentPath("review.queue"))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("mind: open review queue: %w", err)
	}

	m := &Mind{
		cfg:       cfg,
		store:     s,
		dense:     dense,
		sparse:    sparse,
		triplets:  triplets,
		graph:     g,
		resonance: resEngine,
		session:   session,
		dynamics:  dynEngine,
		review:    reviewQueue,
		realm:     realmMgr,
		nowFn:     nowFn,
		log:       rlog.New("mind"),
	}

	if cfg.RunDynamicsTicker {
		dynEngine.Start()
	}

	return m, nil
}

// backfillIndices replays every live node into the dense and sparse
// indices, the reconstruction step §5 requires on startup since neither
// index is itself durable.
func backfillIndices(s *store.Store, dense *denseindex.Index, sparse *sparseindex.Index) {
	_ = s.ForEachNode(func(n *types.Node) bool {
		if n.Tombstoned {
			return true
		}
		if !n.Embedding.IsZero() {
			dense.Insert(n.ID, n.Embedding)
		}
		if len(n.Payload) > 0 {
			sparse.Add(n.ID, string(n.Payload))
		}
		return true
	})
}

// onIndexMutation keeps the dense/sparse indices in sync with every store
// write, the same hook pkg/graph uses for the reverse-edge index.
func onIndexMutation(dense *denseindex.Index, sparse *sparseindex.Index, ev store.MutationEvent) {
	switch ev.Kind {
	case store.MutationInserted, store.MutationUpdated:
		if ev.Node == nil {
			return
		}
		if ev.Node.Tombstoned {
			dense.Remove(ev.Node.ID)
			sparse.Remove(ev.Node.ID)
			return
		}
		if !ev.Node.Embedding.IsZero() {
			dense.Insert(ev.Node.ID, ev.Node.Embedding)
		}
		sparse.Remove(ev.Node.ID)
		if len(ev.Node.Payload) > 0 {
			sparse.Add(ev.Node.ID, string(ev.Node.Payload))
		}
	case store.MutationRemoved:
		dense.Remove(ev.From)
		sparse.Remove(ev.From)
	}
}

// Close stops the background dynamics ticker (if running) and closes the
// store. Errors are logged, not returned, matching the store's own Close
// idiom.
func (m *Mind) Close() {
	m.dynamics.Stop()
	m.store.Close()
}
