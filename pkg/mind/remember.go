package mind

import (
	"fmt"

	"github.com/genomewalker/resonantdb/pkg/rerr"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// defaultInitialConfidence is used when a caller passes a nil confidence
// pointer to Remember/RememberVector, matching the 0.5 default
// pkg/graph.ensureEntity already uses for freshly-minted nodes.
const defaultInitialConfidence = 0.5

// Remember implements §6's remember(text, type, confidence?, tags?) →
// NodeId: it embeds text via the configured embedder, then stores the
// result. Returns rerr.ErrEmbedderUnavailable if no embedder is configured.
func (m *Mind) Remember(text string, typ types.NodeType, confidence *float64, tags ...string) (types.NodeID, error) {
	if m.cfg.Embed == nil {
		return types.NodeID{}, rerr.ErrEmbedderUnavailable
	}
	vec, err := m.cfg.Embed(text)
	if err != nil {
		return types.NodeID{}, fmt.Errorf("mind: embed text: %w", err)
	}
	return m.put(typ, types.Quantize(vec), confidence, []byte(text), tags)
}

// RememberVector implements §6's remember(type, vector, confidence?,
// payload, tags?) → NodeId, the no-embedder overload: the caller supplies
// both the embedding and the payload directly.
func (m *Mind) RememberVector(typ types.NodeType, vector []float32, confidence *float64, payload []byte, tags ...string) (types.NodeID, error) {
	return m.put(typ, types.Quantize(vector), confidence, payload, tags)
}

func (m *Mind) put(typ types.NodeType, embedding types.QuantizedVector, confidence *float64, payload []byte, tags []string) (types.NodeID, error) {
	nowMs := m.nowFn()
	id, err := types.NewNodeID(nowMs)
	if err != nil {
		return types.NodeID{}, err
	}
	initial := defaultInitialConfidence
	if confidence != nil {
		initial = *confidence
	}
	n := types.NewNode(id, typ, embedding, payload, initial, nowMs)
	for _, t := range tags {
		n.AddTag(t)
	}
	if err := m.store.Put(n); err != nil {
		return types.NodeID{}, err
	}
	return id, nil
}
