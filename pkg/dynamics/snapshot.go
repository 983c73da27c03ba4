package dynamics

// Snapshot implements §4.7 step 6: fsync the WAL by rotating it into a
// compressed archive, compact every hot node down into the warm tier first
// so the rotation can never discard the only durable copy of a node, then
// persist the sparse index's current state to segmentPath.
func (e *Engine) Snapshot() error {
	e.store.CompactToWarm()

	if _, err := e.store.Rotate(); err != nil {
		return err
	}

	if e.sparse != nil && e.segmentPath != "" {
		if err := e.sparse.WriteSegment(e.segmentPath); err != nil {
			return err
		}
	}
	return nil
}
