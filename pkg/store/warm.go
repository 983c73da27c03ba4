package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/genomewalker/resonantdb/pkg/rlog"
	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/genomewalker/resonantdb/pkg/wal"
)

// warmTier is the memory-mapped-in-spirit append file described in §4.1.
// resonantdb's warm tier is a sequential append file of length-prefixed
// node records plus an in-memory offset index, fronted by a ristretto
// admission cache that gives the tier its LRU-on-tau_accessed promotion
// behavior without a hand-rolled mmap page cache (see DESIGN.md for why
// true mmap was traded for this shape — no example repo in the pack wraps
// an mmap library, so hand-rolling one would be reinventing, not learning,
// the corpus's idiom).
type warmTier struct {
	mu      sync.RWMutex
	file    *os.File
	offsets map[types.NodeID]int64
	cache   *ristretto.Cache[types.NodeID, *types.Node]
	log     *rlog.Logger
}

func openWarmTier(path string) (*warmTier, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open warm tier: %w", err)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[types.NodeID, *types.Node]{
		NumCounters: 1e6,
		MaxCost:     1 << 27, // 128MiB promotion-cache budget
		BufferItems: 64,
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: new ristretto cache: %w", err)
	}
	w := &warmTier{file: f, offsets: map[types.NodeID]int64{}, cache: cache, log: rlog.New("store.warm")}
	if err := w.rebuildOffsets(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *warmTier) rebuildOffsets() error {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	lenBuf := make([]byte, 4)
	var pos int64
	for {
		if _, err := io.ReadFull(w.file, lenBuf); err != nil {
			break
		}
		recLen := binary.BigEndian.Uint32(lenBuf)
		body := make([]byte, recLen)
		if _, err := io.ReadFull(w.file, body); err != nil {
			break
		}
		n, err := wal.DecodeFullNode(body, true)
		if err == nil {
			w.offsets[n.ID] = pos
		}
		pos += 4 + int64(recLen)
	}
	_, err := w.file.Seek(0, io.SeekEnd)
	return err
}

func (w *warmTier) put(n *types.Node) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	encoded := wal.EncodeFullNode(n, true)
	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	pos, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(encoded)))
	if _, err := w.file.Write(lenBuf); err != nil {
		return err
	}
	if _, err := w.file.Write(encoded); err != nil {
		return err
	}
	w.offsets[n.ID] = pos
	w.cache.Set(n.ID, n, int64(len(encoded)))
	return nil
}

func (w *warmTier) get(id types.NodeID) (*types.Node, bool) {
	if n, ok := w.cache.Get(id); ok {
		return n, true
	}
	w.mu.RLock()
	pos, ok := w.offsets[id]
	w.mu.RUnlock()
	if !ok {
		return nil, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Seek(pos, io.SeekStart); err != nil {
		w.log.Warnf("warm get(%s) seek failed: %v", id, err)
		return nil, false
	}
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(w.file, lenBuf); err != nil {
		w.log.Warnf("warm get(%s) read len failed: %v", id, err)
		return nil, false
	}
	body := make([]byte, binary.BigEndian.Uint32(lenBuf))
	if _, err := io.ReadFull(w.file, body); err != nil {
		w.log.Warnf("warm get(%s) read body failed: %v", id, err)
		return nil, false
	}
	n, err := wal.DecodeFullNode(body, true)
	if err != nil {
		w.log.Warnf("warm get(%s) decode failed: %v", id, err)
		return nil, false
	}
	w.cache.Set(id, n, int64(len(body)))
	return n, true
}

// remove drops id from the offset index and cache. The file record is left
// in place as dead space; snapshot/compact (§4.7 step 6) is where a real
// implementation would reclaim it.
func (w *warmTier) remove(id types.NodeID) {
	w.mu.Lock()
	delete(w.offsets, id)
	w.mu.Unlock()
	w.cache.Del(id)
}

func (w *warmTier) forEach(f func(*types.Node) bool) {
	w.mu.RLock()
	ids := make([]types.NodeID, 0, len(w.offsets))
	for id := range w.offsets {
		ids = append(ids, id)
	}
	w.mu.RUnlock()
	for _, id := range ids {
		n, ok := w.get(id)
		if !ok {
			continue
		}
		if !f(n) {
			return
		}
	}
}

func (w *warmTier) len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.offsets)
}

func (w *warmTier) close() {
	w.cache.Close()
	if err := w.file.Close(); err != nil {
		w.log.Warnf("close failed: %v", err)
	}
}
