package review

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// segment is the on-disk shape of a Queue snapshot (§6's "review.queue").
type segment struct {
	Entries map[types.NodeID]*Entry
	Trust   map[string]float64
}

func loadSegment(path string) (segment, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return segment{Entries: map[types.NodeID]*Entry{}, Trust: map[string]float64{}}, nil
	}
	if err != nil {
		return segment{}, fmt.Errorf("review: open segment: %w", err)
	}
	defer f.Close()

	var seg segment
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&seg); err != nil {
		return segment{}, fmt.Errorf("review: decode segment: %w", err)
	}
	if seg.Entries == nil {
		seg.Entries = map[types.NodeID]*Entry{}
	}
	if seg.Trust == nil {
		seg.Trust = map[string]float64{}
	}
	return seg, nil
}

// persistLocked writes the queue's current state to segmentPath. Callers
// must hold q.mu. A queue opened with an empty segmentPath never persists
// (tests, or a caller that only wants in-memory review tracking).
func (q *Queue) persistLocked() error {
	if q.segmentPath == "" {
		return nil
	}
	seg := segment{Entries: q.entries, Trust: q.trust}

	tmp := q.segmentPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("review: create segment: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(seg); err != nil {
		f.Close()
		return fmt.Errorf("review: encode segment: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("review: flush segment: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("review: sync segment: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("review: close segment: %w", err)
	}
	return os.Rename(tmp, q.segmentPath)
}
