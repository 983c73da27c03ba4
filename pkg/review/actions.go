package review

import "github.com/genomewalker/resonantdb/pkg/types"

// Approve raises the node's confidence by 0.05·(quality−3)₊ (the positive
// part only — a mediocre-or-worse review never lowers confidence through
// approve; use Reject for that) and credits the source's trust score by
// half that delta.
func (q *Queue) Approve(id types.NodeID, quality int, nowMs int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, err := q.entryLocked(id)
	if err != nil {
		return err
	}

	delta := 0.05 * float64(quality-3)
	if delta < 0 {
		delta = 0
	}
	if err := q.applyDelta(id, delta); err != nil {
		return err
	}

	e.Status = Approved
	e.Quality = quality
	e.DecidedAt = nowMs
	return q.persistLocked()
}

// Reject lowers the node's confidence by max(0.1, 0.07·(3−quality)) and
// debits the source's trust score by half that delta.
func (q *Queue) Reject(id types.NodeID, quality int, nowMs int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, err := q.entryLocked(id)
	if err != nil {
		return err
	}

	magnitude := 0.07 * float64(3-quality)
	if magnitude < 0.1 {
		magnitude = 0.1
	}
	if err := q.applyDelta(id, -magnitude); err != nil {
		return err
	}

	e.Status = Rejected
	e.Quality = quality
	e.DecidedAt = nowMs
	return q.persistLocked()
}

// Edit replaces the node's payload without changing its confidence or
// trust score — the reviewer corrected the content itself rather than
// judging it right or wrong.
func (q *Queue) Edit(id types.NodeID, quality int, newPayload []byte, nowMs int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, err := q.entryLocked(id)
	if err != nil {
		return err
	}

	if _, err := q.store.Update(id, func(n *types.Node) error {
		n.Payload = append([]byte(nil), newPayload...)
		return nil
	}); err != nil {
		return err
	}

	e.Status = Edited
	e.Quality = quality
	e.DecidedAt = nowMs
	return q.persistLocked()
}

// Defer marks the entry Deferred without touching confidence or trust,
// recording the quality rating the reviewer gave.
func (q *Queue) Defer(id types.NodeID, quality int, nowMs int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, err := q.entryLocked(id)
	if err != nil {
		return err
	}

	e.Status = Deferred
	e.Quality = quality
	e.DecidedAt = nowMs
	return q.persistLocked()
}

// applyDelta strengthens or weakens the node by |delta| (via graph.Strengthen
// /Weaken) and credits half of delta to the node's provenance source.
func (q *Queue) applyDelta(id types.NodeID, delta float64) error {
	if delta >= 0 {
		if err := q.graph.Strengthen(id, delta); err != nil {
			return err
		}
	} else {
		if err := q.graph.Weaken(id, -delta); err != nil {
			return err
		}
	}

	n, ok := q.store.Get(id)
	if !ok {
		return nil
	}
	source, ok := n.SourceTag()
	if !ok {
		source = "unknown"
	}
	q.trust[trustKey(source)] += delta / 2
	return nil
}
