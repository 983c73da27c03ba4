package mind

import (
	"github.com/genomewalker/resonantdb/pkg/dynamics"
	"github.com/genomewalker/resonantdb/pkg/resonance"
)

// FindAttractors implements §6's find_attractors(max).
func (m *Mind) FindAttractors(max int) ([]resonance.Attractor, error) {
	return resonance.FindAttractors(m.store, m.graph, m.nowFn(), max)
}

// RunAttractorDynamics implements §6's run_attractor_dynamics(max,
// strength): detect up to max attractors, then settle every other node's
// embedding toward its nearest one by strength, outside the regular tick's
// fixed SettleStrength.
func (m *Mind) RunAttractorDynamics(max int, strength float64) ([]resonance.Attractor, error) {
	attractors, err := resonance.FindAttractors(m.store, m.graph, m.nowFn(), max)
	if err != nil {
		return nil, err
	}
	if err := dynamics.SettleToward(m.store, attractors, strength); err != nil {
		return nil, err
	}
	return attractors, nil
}
