package mind

import (
	"github.com/genomewalker/resonantdb/pkg/review"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// SubmitForReview implements §6's submit_for_review(id).
func (m *Mind) SubmitForReview(id types.NodeID) error {
	return m.review.Submit(id, m.nowFn())
}

// ApproveReview implements §6's approve(id, …, quality).
func (m *Mind) ApproveReview(id types.NodeID, quality int) error {
	return m.review.Approve(id, quality, m.nowFn())
}

// RejectReview implements §6's reject(id, …, quality).
func (m *Mind) RejectReview(id types.NodeID, quality int) error {
	return m.review.Reject(id, quality, m.nowFn())
}

// EditReview implements §6's edit(id, …, quality).
func (m *Mind) EditReview(id types.NodeID, quality int, newPayload []byte) error {
	return m.review.Edit(id, quality, newPayload, m.nowFn())
}

// DeferReview implements §6's defer(id, …, quality).
func (m *Mind) DeferReview(id types.NodeID, quality int) error {
	return m.review.Defer(id, quality, m.nowFn())
}

// ReviewStats implements §6's review_stats().
func (m *Mind) ReviewStats() review.Stats {
	return m.review.ReviewStats()
}
