// Package resonance implements the resonance engine (§4.6): full_resonate
// and its recall/resonate/lens variants over the dense/sparse indices and
// the graph. Grounded on the teacher's pkg/search/rerank.go for the
// two-stage (cheap recall, then a more expensive re-scoring pass) shape —
// generalized here into the seed/spread/inhibit pipeline spec.md specifies —
// and on pkg/linkpredict/topology.go for the attractor-basin BFS.
package resonance

import (
	"github.com/genomewalker/resonantdb/pkg/types"
)

// EmbedFunc turns query text into an embedding vector. The core consumes
// this as an external capability (§1 Non-goals: "the embedding model
// loader" is out of scope).
type EmbedFunc func(text string) ([]float32, error)

// Recall is one ranked hit (§4.6).
type Recall struct {
	ID         types.NodeID
	Text       string
	Embedding  types.QuantizedVector
	Type       types.NodeType
	Confidence types.Confidence
	Similarity float64
	Relevance  float64
}

func recallFromNode(n *types.Node, similarity, relevance float64) Recall {
	return Recall{
		ID:         n.ID,
		Text:       string(n.Payload),
		Embedding:  n.Embedding,
		Type:       n.Type,
		Confidence: n.Confidence,
		Similarity: similarity,
		Relevance:  relevance,
	}
}
