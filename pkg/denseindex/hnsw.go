// Package denseindex implements the approximate-nearest-neighbor index over
// node embeddings (§4.3): insert/remove/search, contract-only per spec.md,
// implemented as HNSW — directly ported from the teacher's
// pkg/search/hnsw_index.go, generalized from string ids + []float32 vectors
// to types.NodeID + types.QuantizedVector, and from a separately-normalized
// float cosine to the §3 scaled-integer-dot-product approximation.
package denseindex

import (
	"container/heap"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// ErrDimensionMismatch is unused at the moment (QuantizedVector is always
// fixed-width) but kept for parity with callers that validate input shape
// before calling Insert.
var ErrDimensionMismatch = errors.New("denseindex: dimension mismatch")

// Config mirrors the teacher's HNSWConfig (§4.3 defaults).
type Config struct {
	M               int
	EfConstruction  int
	EfSearch        int
	LevelMultiplier float64
}

// DefaultConfig returns the teacher's M=16/EfConstruction=200/EfSearch=100
// defaults.
func DefaultConfig() Config {
	return Config{M: 16, EfConstruction: 200, EfSearch: 100, LevelMultiplier: 1.0 / math.Log(16.0)}
}

type node struct {
	id        types.NodeID
	vector    types.QuantizedVector
	level     int
	neighbors [][]types.NodeID
	mu        sync.RWMutex
}

// Index is the HNSW approximate nearest-neighbor index.
type Index struct {
	config     Config
	mu         sync.RWMutex
	nodes      map[types.NodeID]*node
	entryPoint types.NodeID
	hasEntry   bool
	maxLevel   int
}

// New creates an Index with the given config (zero value uses DefaultConfig).
func New(config Config) *Index {
	if config.M == 0 {
		config = DefaultConfig()
	}
	return &Index{config: config, nodes: make(map[types.NodeID]*node)}
}

// Insert adds or replaces id's embedding (§4.3 insert).
func (idx *Index) Insert(id types.NodeID, vec types.QuantizedVector) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.nodes[id]; exists {
		idx.removeLocked(id)
	}

	level := idx.randomLevel()
	n := &node{id: id, vector: vec, level: level, neighbors: make([][]types.NodeID, level+1)}
	for i := range n.neighbors {
		n.neighbors[i] = make([]types.NodeID, 0, idx.config.M)
	}
	idx.nodes[id] = n

	if !idx.hasEntry {
		idx.entryPoint = id
		idx.hasEntry = true
		idx.maxLevel = level
		return
	}

	ep := idx.entryPoint
	epLevel := idx.nodes[ep].level

	for l := epLevel; l > level; l-- {
		ep = idx.searchLayerSingle(vec, ep, l)
	}

	for l := min(level, epLevel); l >= 0; l-- {
		candidates := idx.searchLayer(vec, ep, idx.config.EfConstruction, l)
		neighbors := idx.selectNeighbors(vec, candidates, idx.config.M)
		n.neighbors[l] = neighbors

		for _, neighborID := range neighbors {
			neighbor := idx.nodes[neighborID]
			neighbor.mu.Lock()
			if len(neighbor.neighbors) > l {
				if len(neighbor.neighbors[l]) < idx.config.M {
					neighbor.neighbors[l] = append(neighbor.neighbors[l], id)
				} else {
					merged := append(append([]types.NodeID{}, neighbor.neighbors[l]...), id)
					neighbor.neighbors[l] = idx.selectNeighbors(neighbor.vector, merged, idx.config.M)
				}
			}
			neighbor.mu.Unlock()
		}

		if len(candidates) > 0 {
			ep = candidates[0]
		}
	}

	if level > idx.maxLevel {
		idx.entryPoint = id
		idx.maxLevel = level
	}
}

// Remove removes id from the index (§4.3 remove).
func (idx *Index) Remove(id types.NodeID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

func (idx *Index) removeLocked(id types.NodeID) {
	n, exists := idx.nodes[id]
	if !exists {
		return
	}
	for l := 0; l <= n.level; l++ {
		for _, neighborID := range n.neighbors[l] {
			if neighbor, ok := idx.nodes[neighborID]; ok {
				neighbor.mu.Lock()
				if len(neighbor.neighbors) > l {
					kept := neighbor.neighbors[l][:0]
					for _, nid := range neighbor.neighbors[l] {
						if nid != id {
							kept = append(kept, nid)
						}
					}
					neighbor.neighbors[l] = kept
				}
				neighbor.mu.Unlock()
			}
		}
	}
	delete(idx.nodes, id)

	if idx.hasEntry && idx.entryPoint == id {
		idx.hasEntry = false
		idx.maxLevel = 0
		for nid, nn := range idx.nodes {
			if !idx.hasEntry || nn.level > idx.maxLevel {
				idx.maxLevel = nn.level
				idx.entryPoint = nid
				idx.hasEntry = true
			}
		}
	}
}

// Result is one ranked hit from Search.
type Result struct {
	ID         types.NodeID
	Similarity float64
}

// Search returns the top-k nearest neighbors to query by approximate cosine
// (§4.3 search). Concurrent inserts may transiently be missed; they become
// visible to future Search calls without any extra synchronization step
// required on this index's part (cross-process visibility is the store's
// concern via sync_from_shared_field).
func (idx *Index) Search(query types.QuantizedVector, k int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.nodes) == 0 {
		return nil
	}

	ep := idx.entryPoint
	for l := idx.maxLevel; l > 0; l-- {
		ep = idx.searchLayerSingle(query, ep, l)
	}

	candidates := idx.searchLayer(query, ep, idx.config.EfSearch, 0)

	results := make([]Result, 0, len(candidates))
	for _, cid := range candidates {
		n := idx.nodes[cid]
		results = append(results, Result{ID: cid, Similarity: n.vector.ApproxCosine(query)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID.Less(results[j].ID) // deterministic tie-break, §4.6
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// Size returns the number of entries in the index.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.nodes)
}

// Has reports whether id is currently indexed — used by pkg/mind's Health
// to measure I6 (dense-index membership of live nodes).
func (idx *Index) Has(id types.NodeID) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.nodes[id]
	return ok
}

func (idx *Index) searchLayerSingle(query types.QuantizedVector, entryID types.NodeID, level int) types.NodeID {
	current := entryID
	currentDist := 1.0 - idx.nodes[current].vector.ApproxCosine(query)

	for {
		changed := false
		n := idx.nodes[current]
		n.mu.RLock()
		neighbors := n.neighbors[level]
		n.mu.RUnlock()

		for _, neighborID := range neighbors {
			neighbor := idx.nodes[neighborID]
			dist := 1.0 - neighbor.vector.ApproxCosine(query)
			if dist < currentDist {
				current = neighborID
				currentDist = dist
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return current
}

func (idx *Index) searchLayer(query types.QuantizedVector, entryID types.NodeID, ef int, level int) []types.NodeID {
	visited := map[types.NodeID]bool{entryID: true}

	candidates := &distHeap{}
	heap.Init(candidates)
	results := &distHeap{}
	heap.Init(results)

	entryDist := 1.0 - idx.nodes[entryID].vector.ApproxCosine(query)
	heap.Push(candidates, distItem{id: entryID, dist: entryDist, isMax: false})
	heap.Push(results, distItem{id: entryID, dist: entryDist, isMax: true})

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(distItem)

		if results.Len() >= ef {
			furthest := (*results)[0]
			if closest.dist > furthest.dist {
				break
			}
		}

		n := idx.nodes[closest.id]
		n.mu.RLock()
		neighbors := n.neighbors[level]
		n.mu.RUnlock()

		for _, neighborID := range neighbors {
			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true

			neighbor := idx.nodes[neighborID]
			dist := 1.0 - neighbor.vector.ApproxCosine(query)

			if results.Len() < ef || dist < (*results)[0].dist {
				heap.Push(candidates, distItem{id: neighborID, dist: dist, isMax: false})
				heap.Push(results, distItem{id: neighborID, dist: dist, isMax: true})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]types.NodeID, results.Len())
	for i := results.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(distItem).id
	}
	return out
}

func (idx *Index) selectNeighbors(query types.QuantizedVector, candidates []types.NodeID, m int) []types.NodeID {
	if len(candidates) <= m {
		return candidates
	}
	type dn struct {
		id   types.NodeID
		dist float64
	}
	dists := make([]dn, len(candidates))
	for i, cid := range candidates {
		dists[i] = dn{id: cid, dist: 1.0 - idx.nodes[cid].vector.ApproxCosine(query)}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	out := make([]types.NodeID, m)
	for i := 0; i < m; i++ {
		out[i] = dists[i].id
	}
	return out
}

func (idx *Index) randomLevel() int {
	r := rand.Float64()
	if r <= 0 {
		r = 1e-12
	}
	return int(-math.Log(r) * idx.config.LevelMultiplier)
}

type distItem struct {
	id    types.NodeID
	dist  float64
	isMax bool
}

type distHeap []distItem

func (dh distHeap) Len() int { return len(dh) }
func (dh distHeap) Less(i, j int) bool {
	if dh[i].isMax {
		return dh[i].dist > dh[j].dist
	}
	return dh[i].dist < dh[j].dist
}
func (dh distHeap) Swap(i, j int) { dh[i], dh[j] = dh[j], dh[i] }
func (dh *distHeap) Push(x any)   { *dh = append(*dh, x.(distItem)) }
func (dh *distHeap) Pop() any {
	old := *dh
	n := len(old)
	x := old[n-1]
	*dh = old[:n-1]
	return x
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
