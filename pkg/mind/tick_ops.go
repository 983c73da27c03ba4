package mind

import (
	"context"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// Tick implements §6's tick(): the full six-step §4.7 dynamics pass.
func (m *Mind) Tick(ctx context.Context) error {
	return m.dynamics.Tick(ctx)
}

// ApplyFeedback implements §6's apply_feedback(): drains the feedback
// queue outside the regular tick cadence.
func (m *Mind) ApplyFeedback() error {
	return m.dynamics.ApplyFeedback()
}

// QueueFeedback enqueues a (node id, signed Δ) pair for the next
// ApplyFeedback/Tick to drain (§4.7 step 3's input side, which spec.md
// names as a queue without naming the enqueue call itself).
func (m *Mind) QueueFeedback(id types.NodeID, delta float64) {
	m.dynamics.QueueFeedback(id, delta)
}

// SynthesizeWisdom implements §6's synthesize_wisdom(): clusters Episodes
// and promotes qualifying clusters into Wisdom nodes, outside the regular
// tick cadence.
func (m *Mind) SynthesizeWisdom() error {
	return m.dynamics.SynthesizeWisdom()
}

// Snapshot implements §6's snapshot(): fsync the WAL, compact hot→warm,
// persist the sparse index, outside the regular tick cadence.
func (m *Mind) Snapshot() error {
	return m.dynamics.Snapshot()
}
