package graph

import (
	"fmt"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// Forget implements §4.5's forget(id, cascade, rewire, cascade_strength): it
// optionally weakens id's in- and out-neighbors, optionally rewires Hebbian
// links from every inbound neighbor to every outbound neighbor (skipping
// loops), removes id, and emits an audit Episode recording the act.
func (g *Graph) Forget(id types.NodeID, cascade, rewire bool, cascadeStrength float64, nowMs int64) error {
	inbound := g.Incoming(id)
	outbound := g.Outgoing(id)

	if cascade {
		for _, re := range inbound {
			if err := g.Weaken(re.Source, cascadeStrength); err != nil {
				return err
			}
		}
		for _, e := range outbound {
			if err := g.Weaken(e.Target, cascadeStrength); err != nil {
				return err
			}
		}
	}

	if rewire {
		for _, in := range inbound {
			for _, out := range outbound {
				if in.Source == out.Target || in.Source == id || out.Target == id {
					continue
				}
				if err := g.HebbianStrengthen(in.Source, out.Target, cascadeStrength); err != nil {
					return err
				}
			}
		}
	}

	if err := g.store.Remove(id); err != nil {
		return err
	}

	return g.emitForgetAudit(id, cascade, rewire, nowMs)
}

func (g *Graph) emitForgetAudit(forgotten types.NodeID, cascade, rewire bool, nowMs int64) error {
	auditID, err := types.NewNodeID(nowMs)
	if err != nil {
		return err
	}
	payload := []byte(fmt.Sprintf("forgot %s (cascade=%v, rewire=%v)", forgotten, cascade, rewire))
	n := types.NewNode(auditID, types.Episode, types.QuantizedVector{}, payload, 1.0, nowMs)
	n.AddTag("audit")
	return g.store.Put(n)
}
