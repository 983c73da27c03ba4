package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/genomewalker/resonantdb/pkg/rlog"
	"github.com/genomewalker/resonantdb/pkg/types"
	"github.com/genomewalker/resonantdb/pkg/wal"
)

// Cold-tier key prefixes, extending the teacher's pkg/storage/badger.go byte
// scheme with a triplet-index and review-queue home (SPEC_FULL.md §1).
const (
	prefixNode    = byte(0x01)
	prefixTriplet = byte(0x06)
	prefixReview  = byte(0x07)
)

// coldTier is the embedded single-writer key-value store (§4.1), keyed by
// NodeID exactly as the teacher's BadgerEngine keys nodes.
type coldTier struct {
	db  *badger.DB
	log *rlog.Logger
}

func openColdTier(dataDir string, inMemory bool) (*coldTier, error) {
	opts := badger.DefaultOptions(dataDir)
	opts = opts.WithLoggingLevel(badger.WARNING)
	if inMemory {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open cold tier: %w", err)
	}
	return &coldTier{db: db, log: rlog.New("store.cold")}, nil
}

func nodeKey(id types.NodeID) []byte {
	key := make([]byte, 1+16)
	key[0] = prefixNode
	copy(key[1:], id[:])
	return key
}

func (c *coldTier) put(n *types.Node) error {
	encoded := wal.EncodeFullNode(n, true)
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nodeKey(n.ID), encoded)
	})
}

func (c *coldTier) get(id types.NodeID) (*types.Node, bool, error) {
	var n *types.Node
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, derr := wal.DecodeFullNode(val, true)
			if derr != nil {
				return derr
			}
			n = decoded
			return nil
		})
	})
	if err != nil {
		c.log.Warnf("cold get(%s) failed: %v", id, err)
		return nil, false, err
	}
	return n, n != nil, nil
}

func (c *coldTier) remove(id types.NodeID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(nodeKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (c *coldTier) count() (int, error) {
	var n int
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{prefixNode}
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte{prefixNode}); it.ValidForPrefix([]byte{prefixNode}); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (c *coldTier) forEach(f func(*types.Node) bool) error {
	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{prefixNode}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte{prefixNode}); it.ValidForPrefix([]byte{prefixNode}); it.Next() {
			item := it.Item()
			var cont = true
			err := item.Value(func(val []byte) error {
				n, err := wal.DecodeFullNode(val, true)
				if err != nil {
					return err
				}
				cont = f(n)
				return nil
			})
			if err != nil {
				return err
			}
			if !cont {
				break
			}
		}
		return nil
	})
}

func (c *coldTier) close() {
	if err := c.db.Close(); err != nil {
		c.log.Warnf("close failed: %v", err)
	}
}
