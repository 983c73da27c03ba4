package resonance

import (
	"sync"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// recentObservationsCapacity is the ring size fed by priming feedback
// (§4.6 phase 9).
const recentObservationsCapacity = 20

// SessionContext carries the per-session priming state: the recent-
// observation ring, the active intentions, and the goal basin derived from
// them (§4.6 phase 1).
type SessionContext struct {
	mu                 sync.RWMutex
	recentObservations []types.NodeID
	activeIntentions   map[types.NodeID]types.QuantizedVector
}

// NewSessionContext returns an empty session.
func NewSessionContext() *SessionContext {
	return &SessionContext{activeIntentions: map[types.NodeID]types.QuantizedVector{}}
}

// Observe appends ids to the recent-observation ring, evicting the oldest
// entries beyond capacity 20.
func (s *SessionContext) Observe(ids ...types.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentObservations = append(s.recentObservations, ids...)
	if over := len(s.recentObservations) - recentObservationsCapacity; over > 0 {
		s.recentObservations = s.recentObservations[over:]
	}
}

// IsRecentObservation reports whether id is currently in the ring.
func (s *SessionContext) IsRecentObservation(id types.NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.recentObservations {
		if o == id {
			return true
		}
	}
	return false
}

// SetActiveIntention marks id as an active intention with embedding vec,
// used both for priming and for computing the goal basin.
func (s *SessionContext) SetActiveIntention(id types.NodeID, vec types.QuantizedVector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeIntentions[id] = vec
}

// ClearActiveIntention removes id from the active-intention set.
func (s *SessionContext) ClearActiveIntention(id types.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeIntentions, id)
}

// IsActiveIntention reports whether id is itself an active intention.
func (s *SessionContext) IsActiveIntention(id types.NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.activeIntentions[id]
	return ok
}

// InGoalBasin reports whether vec falls within cosine tau of any active
// intention's embedding (§4.6 phase 1: "derived set of nodes whose
// embedding is within cosine τ of any intention's embedding").
func (s *SessionContext) InGoalBasin(vec types.QuantizedVector, tau float64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, iv := range s.activeIntentions {
		if vec.ApproxCosine(iv) >= tau {
			return true
		}
	}
	return false
}
