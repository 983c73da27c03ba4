// Package tripletindex stores (subject, predicate, object) relations and the
// entity-name to NodeID map used by connect_triplet/query_graph (§4.5, §6).
// Grounded on the teacher's pkg/index/index.go for the package's index shape
// (mutex-guarded maps, Add/Search-by-filter idiom) and pkg/linkpredict/topology.go
// for the adjacency-map style used here to index triplets by each of their
// three fields for O(matching) query_graph lookups.
package tripletindex

import (
	"sort"
	"sync"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// Index holds triplets and the entity-name -> Entity-node map.
type Index struct {
	mu sync.RWMutex

	triplets []types.Triplet
	bySubj   map[string][]int
	byPred   map[string][]int
	byObj    map[string][]int

	entities map[string]types.NodeID
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		bySubj:   map[string][]int{},
		byPred:   map[string][]int{},
		byObj:    map[string][]int{},
		entities: map[string]types.NodeID{},
	}
}

// EntityNode returns the Entity node id bound to name, if one has been
// created via BindEntity.
func (idx *Index) EntityNode(name string) (types.NodeID, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.entities[name]
	return id, ok
}

// BindEntity records that name is backed by node id. connect_triplet calls
// this after creating (or finding) the Entity node for an endpoint.
func (idx *Index) BindEntity(name string, id types.NodeID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entities[name] = id
}

// Add records a triplet. Duplicate (subject, predicate, object) triples are
// both kept — connect_triplet may be called repeatedly with a changing
// weight, and §4.5 names no dedup/merge rule.
func (idx *Index) Add(t types.Triplet) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	i := len(idx.triplets)
	idx.triplets = append(idx.triplets, t)
	idx.bySubj[t.Subject] = append(idx.bySubj[t.Subject], i)
	idx.byPred[t.Predicate] = append(idx.byPred[t.Predicate], i)
	idx.byObj[t.Object] = append(idx.byObj[t.Object], i)
}

// Query returns triplets matching subject/predicate/object, treating an
// empty string for any field as a wildcard for that field (§6 query_graph).
func (idx *Index) Query(subject, predicate, object string) []types.Triplet {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	candidates := idx.candidateSet(subject, predicate, object)
	results := make([]types.Triplet, 0, len(candidates))
	for i := range candidates {
		t := idx.triplets[i]
		if subject != "" && t.Subject != subject {
			continue
		}
		if predicate != "" && t.Predicate != predicate {
			continue
		}
		if object != "" && t.Object != object {
			continue
		}
		results = append(results, t)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Subject != results[j].Subject {
			return results[i].Subject < results[j].Subject
		}
		if results[i].Predicate != results[j].Predicate {
			return results[i].Predicate < results[j].Predicate
		}
		return results[i].Object < results[j].Object
	})
	return results
}

// candidateSet picks the smallest applicable posting list among the bound
// fields, falling back to a full scan when every field is a wildcard.
func (idx *Index) candidateSet(subject, predicate, object string) map[int]struct{} {
	var lists [][]int
	if subject != "" {
		lists = append(lists, idx.bySubj[subject])
	}
	if predicate != "" {
		lists = append(lists, idx.byPred[predicate])
	}
	if object != "" {
		lists = append(lists, idx.byObj[object])
	}
	if len(lists) == 0 {
		all := make(map[int]struct{}, len(idx.triplets))
		for i := range idx.triplets {
			all[i] = struct{}{}
		}
		return all
	}
	shortest := lists[0]
	for _, l := range lists[1:] {
		if len(l) < len(shortest) {
			shortest = l
		}
	}
	out := make(map[int]struct{}, len(shortest))
	for _, i := range shortest {
		out[i] = struct{}{}
	}
	return out
}

// Count returns the number of recorded triplets.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.triplets)
}
