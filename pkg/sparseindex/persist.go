package sparseindex

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// segment is the on-disk shape of an Index snapshot, gob-encoded. It
// captures just enough to rebuild the inverted index and doc-length table
// without replaying every node's payload through Tokenize again.
type segment struct {
	Terms         map[string]termKey
	InvertedIndex map[termKey]map[types.NodeID]int
	DocLengths    map[types.NodeID]int
	DocCount      int
}

// WriteSegment persists the index to path, atomically via a temp-file
// rename, so a crash mid-write never leaves a torn segment on disk (§4.7
// step 6's "persist sparse index segment").
func (idx *Index) WriteSegment(path string) error {
	idx.mu.RLock()
	seg := segment{
		Terms:         idx.terms,
		InvertedIndex: idx.invertedIndex,
		DocLengths:    idx.docLengths,
		DocCount:      idx.docCount,
	}
	idx.mu.RUnlock()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("sparseindex: create segment: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(seg); err != nil {
		f.Close()
		return fmt.Errorf("sparseindex: encode segment: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("sparseindex: flush segment: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sparseindex: sync segment: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("sparseindex: close segment: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("sparseindex: rename segment: %w", err)
	}
	return nil
}

// LoadSegment replaces the index's contents with a previously persisted
// segment. A missing file is not an error: a fresh store has no segment yet.
func LoadSegment(path string) (*Index, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("sparseindex: open segment: %w", err)
	}
	defer f.Close()

	var seg segment
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&seg); err != nil {
		return nil, fmt.Errorf("sparseindex: decode segment: %w", err)
	}

	idx := New()
	idx.terms = seg.Terms
	idx.invertedIndex = seg.InvertedIndex
	idx.docLengths = seg.DocLengths
	idx.docCount = seg.DocCount
	idx.updateAvgDocLength()
	return idx, nil
}
