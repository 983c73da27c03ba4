package dynamics

// ApplyFeedback drains the queued (node id, signed Δ) entries (§4.7 step 3),
// applying each as a node-level confidence adjustment: positive Δ
// strengthens, negative Δ weakens, via the same absolute-delta law §4.5
// uses for strengthen/weaken. Entries naming a node that no longer exists
// are dropped silently — the node was already pruned or forgotten.
func (e *Engine) ApplyFeedback() error {
	e.feedbackMu.Lock()
	pending := e.feedback
	e.feedback = nil
	e.feedbackMu.Unlock()

	for _, f := range pending {
		if f.Delta >= 0 {
			if err := e.graph.Strengthen(f.NodeID, f.Delta); err != nil {
				continue
			}
		} else {
			if err := e.graph.Weaken(f.NodeID, -f.Delta); err != nil {
				continue
			}
		}
	}
	return nil
}
