// Package review implements §4.8's review queue: nodes created with
// provisional confidence are submitted for human review, and
// approve/reject decisions adjust both the node's confidence and a running
// provenance trust score for whatever process or pipeline produced it;
// edit/defer decisions record a status and quality rating and change
// neither. Grounded on the teacher's pkg/audit/audit.go, whose
// append-only Logger this adapts from "record what happened" into "track
// trust per source" — the event taxonomy and JSON persistence shape are
// dropped since §4.8 only names a queue of pending decisions, not a
// compliance log.
package review

import (
	"sync"

	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/rerr"
	"github.com/genomewalker/resonantdb/pkg/rlog"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Status is a review entry's lifecycle state.
type Status string

const (
	Pending  Status = "pending"
	Approved Status = "approved"
	Rejected Status = "rejected"
	Edited   Status = "edited"
	Deferred Status = "deferred"
)

// Entry is one node queued for review.
type Entry struct {
	NodeID      types.NodeID
	Status      Status
	Quality     int
	SubmittedAt int64
	DecidedAt   int64
}

// Queue is the reviewable-node ledger plus the provenance trust table it
// feeds. Persisted to segmentPath on every mutation (§6's "review.queue").
type Queue struct {
	mu sync.Mutex

	store *store.Store
	graph *graph.Graph
	log   *rlog.Logger

	segmentPath string
	entries     map[types.NodeID]*Entry
	trust       map[string]float64
}

// Open loads a persisted queue from segmentPath (a missing file starts
// empty) and wires it to the given store/graph.
func Open(s *store.Store, g *graph.Graph, segmentPath string) (*Queue, error) {
	q := &Queue{
		store:       s,
		graph:       g,
		log:         rlog.New("review"),
		segmentPath: segmentPath,
		entries:     map[types.NodeID]*Entry{},
		trust:       map[string]float64{},
	}
	if segmentPath == "" {
		return q, nil
	}
	loaded, err := loadSegment(segmentPath)
	if err != nil {
		return nil, err
	}
	q.entries = loaded.Entries
	q.trust = loaded.Trust
	return q, nil
}

// Submit enqueues id for review. Re-submitting an already-pending node is a
// no-op; re-submitting a decided node resets it to pending.
func (q *Queue) Submit(id types.NodeID, nowMs int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.store.Get(id); !ok {
		return rerr.New(rerr.NotFound, "node %s not found", id)
	}
	if e, ok := q.entries[id]; ok && e.Status == Pending {
		return nil
	}
	q.entries[id] = &Entry{NodeID: id, Status: Pending, SubmittedAt: nowMs}
	return q.persistLocked()
}

func (q *Queue) entryLocked(id types.NodeID) (*Entry, error) {
	e, ok := q.entries[id]
	if !ok {
		return nil, rerr.New(rerr.NotFound, "no review entry for %s", id)
	}
	return e, nil
}

// TrustOf returns the current provenance trust score for a source, 0 if
// never observed.
func (q *Queue) TrustOf(source string) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.trust[trustKey(source)]
}

// Stats summarizes the queue's current composition (review_stats()).
type Stats struct {
	Pending  int
	Approved int
	Rejected int
	Edited   int
	Deferred int
}

// ReviewStats implements review_stats().
func (q *Queue) ReviewStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	var s Stats
	for _, e := range q.entries {
		switch e.Status {
		case Pending:
			s.Pending++
		case Approved:
			s.Approved++
		case Rejected:
			s.Rejected++
		case Edited:
			s.Edited++
		case Deferred:
			s.Deferred++
		}
	}
	return s
}
