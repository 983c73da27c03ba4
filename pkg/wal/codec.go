package wal

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// TouchDelta is the V2 payload: a node's new tau_accessed.
type TouchDelta struct {
	NodeID      types.NodeID
	TauAccessed int64
}

// ConfidenceDelta is the V3 payload: a node's new confidence posterior.
type ConfidenceDelta struct {
	NodeID     types.NodeID
	Confidence types.Confidence
}

// EdgeDelta is the V4 payload: one edge mutation.
type EdgeDelta struct {
	From   types.NodeID
	To     types.NodeID
	Type   types.EdgeType
	Weight float64
}

// EncodeTouchDelta serializes a V2 record: 16B id + 8B tau = 24B (~26B per
// §4.2's table, which states approximate sizes for the delta formats too).
func EncodeTouchDelta(d TouchDelta) []byte {
	buf := make([]byte, 16+8)
	copy(buf[0:16], d.NodeID[:])
	binary.BigEndian.PutUint64(buf[16:24], uint64(d.TauAccessed))
	return buf
}

func DecodeTouchDelta(b []byte) (TouchDelta, error) {
	if len(b) < 24 {
		return TouchDelta{}, fmt.Errorf("wal: short touch delta (%d bytes)", len(b))
	}
	var d TouchDelta
	copy(d.NodeID[:], b[0:16])
	d.TauAccessed = int64(binary.BigEndian.Uint64(b[16:24]))
	return d, nil
}

// EncodeConfidenceDelta serializes a V3 record: 16B id + mu(8) + sigma_sq(8)
// + n(8) + tau(8) = 48B (~44B per §4.2).
func EncodeConfidenceDelta(d ConfidenceDelta) []byte {
	buf := make([]byte, 16+32)
	copy(buf[0:16], d.NodeID[:])
	binary.BigEndian.PutUint64(buf[16:24], math.Float64bits(d.Confidence.Mu))
	binary.BigEndian.PutUint64(buf[24:32], math.Float64bits(d.Confidence.SigmaSq))
	binary.BigEndian.PutUint64(buf[32:40], uint64(d.Confidence.N))
	binary.BigEndian.PutUint64(buf[40:48], uint64(d.Confidence.Tau))
	return buf
}

func DecodeConfidenceDelta(b []byte) (ConfidenceDelta, error) {
	if len(b) < 48 {
		return ConfidenceDelta{}, fmt.Errorf("wal: short confidence delta (%d bytes)", len(b))
	}
	var d ConfidenceDelta
	copy(d.NodeID[:], b[0:16])
	d.Confidence.Mu = math.Float64frombits(binary.BigEndian.Uint64(b[16:24]))
	d.Confidence.SigmaSq = math.Float64frombits(binary.BigEndian.Uint64(b[24:32]))
	d.Confidence.N = int64(binary.BigEndian.Uint64(b[32:40]))
	d.Confidence.Tau = int64(binary.BigEndian.Uint64(b[40:48]))
	return d, nil
}

// EncodeEdgeDelta serializes a V4 record: from(16) + to(16) + type(1) +
// weight(8) = 41B (~45B per §4.2).
func EncodeEdgeDelta(d EdgeDelta) []byte {
	buf := make([]byte, 16+16+1+8)
	copy(buf[0:16], d.From[:])
	copy(buf[16:32], d.To[:])
	buf[32] = byte(d.Type)
	binary.BigEndian.PutUint64(buf[33:41], math.Float64bits(d.Weight))
	return buf
}

func DecodeEdgeDelta(b []byte) (EdgeDelta, error) {
	if len(b) < 41 {
		return EdgeDelta{}, fmt.Errorf("wal: short edge delta (%d bytes)", len(b))
	}
	var d EdgeDelta
	copy(d.From[:], b[0:16])
	copy(d.To[:], b[16:32])
	d.Type = types.EdgeType(b[32])
	d.Weight = math.Float64frombits(binary.BigEndian.Uint64(b[33:41]))
	return d, nil
}

// EncodeFullNode serializes a complete node. quantized selects V0 (raw
// float32, reconstructed from the QuantizedVector) vs V1 (the int8 form
// stored directly) — V1 is smaller and is what resonantdb's writers use by
// default; V0 exists for callers that want float32 fidelity in the log.
func EncodeFullNode(n *types.Node, quantized bool) []byte {
	var embBytes []byte
	if quantized {
		embBytes = make([]byte, types.EmbeddingDims+8)
		for i, c := range n.Embedding.Components {
			embBytes[i] = byte(c)
		}
		binary.BigEndian.PutUint32(embBytes[types.EmbeddingDims:], math.Float32bits(n.Embedding.Scale))
		binary.BigEndian.PutUint32(embBytes[types.EmbeddingDims+4:], math.Float32bits(n.Embedding.Offset))
	} else {
		f32 := n.Embedding.Float32()
		embBytes = make([]byte, len(f32)*4)
		for i, v := range f32 {
			binary.BigEndian.PutUint32(embBytes[i*4:], math.Float32bits(v))
		}
	}

	tags := n.TagList()
	edges := n.Edges

	size := 16 + 1 + len(embBytes) + 4 + len(n.Payload) + 32 + 8 + 8 + 8 + 8 + 4
	for _, t := range tags {
		size += 2 + len(t)
	}
	size += 4
	for range edges {
		size += 16 + 1 + 8
	}

	buf := make([]byte, size)
	off := 0
	copy(buf[off:off+16], n.ID[:])
	off += 16
	buf[off] = byte(n.Type)
	off++
	copy(buf[off:off+len(embBytes)], embBytes)
	off += len(embBytes)
	binary.BigEndian.PutUint32(buf[off:], uint32(len(n.Payload)))
	off += 4
	copy(buf[off:off+len(n.Payload)], n.Payload)
	off += len(n.Payload)
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(n.Confidence.Mu))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(n.Confidence.SigmaSq))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], uint64(n.Confidence.N))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], uint64(n.Confidence.Tau))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], uint64(n.TauCreated))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], uint64(n.TauAccessed))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(n.DecayRate))
	off += 8
	binary.BigEndian.PutUint64(buf[off:], math.Float64bits(n.Epsilon))
	off += 8
	binary.BigEndian.PutUint32(buf[off:], uint32(len(tags)))
	off += 4
	for _, t := range tags {
		binary.BigEndian.PutUint16(buf[off:], uint16(len(t)))
		off += 2
		copy(buf[off:off+len(t)], t)
		off += len(t)
	}
	binary.BigEndian.PutUint32(buf[off:], uint32(len(edges)))
	off += 4
	for _, e := range edges {
		copy(buf[off:off+16], e.Target[:])
		off += 16
		buf[off] = byte(e.Type)
		off++
		binary.BigEndian.PutUint64(buf[off:], math.Float64bits(e.Weight))
		off += 8
	}
	return buf
}

// DecodeFullNode is the inverse of EncodeFullNode.
func DecodeFullNode(b []byte, quantized bool) (*types.Node, error) {
	n := &types.Node{Tags: map[string]struct{}{}}
	off := 0
	if len(b) < 17 {
		return nil, fmt.Errorf("wal: short full-node record")
	}
	copy(n.ID[:], b[off:off+16])
	off += 16
	n.Type = types.NodeType(b[off])
	off++

	if quantized {
		if len(b) < off+types.EmbeddingDims+8 {
			return nil, fmt.Errorf("wal: short quantized embedding")
		}
		for i := 0; i < types.EmbeddingDims; i++ {
			n.Embedding.Components[i] = int8(b[off+i])
		}
		off += types.EmbeddingDims
		n.Embedding.Scale = math.Float32frombits(binary.BigEndian.Uint32(b[off:]))
		off += 4
		n.Embedding.Offset = math.Float32frombits(binary.BigEndian.Uint32(b[off:]))
		off += 4
	} else {
		f32 := make([]float32, types.EmbeddingDims)
		if len(b) < off+types.EmbeddingDims*4 {
			return nil, fmt.Errorf("wal: short float32 embedding")
		}
		for i := 0; i < types.EmbeddingDims; i++ {
			f32[i] = math.Float32frombits(binary.BigEndian.Uint32(b[off+i*4:]))
		}
		off += types.EmbeddingDims * 4
		n.Embedding = types.Quantize(f32)
	}

	if len(b) < off+4 {
		return nil, fmt.Errorf("wal: short payload length")
	}
	payloadLen := int(binary.BigEndian.Uint32(b[off:]))
	off += 4
	if len(b) < off+payloadLen {
		return nil, fmt.Errorf("wal: short payload body")
	}
	n.Payload = append([]byte(nil), b[off:off+payloadLen]...)
	off += payloadLen

	if len(b) < off+32 {
		return nil, fmt.Errorf("wal: short confidence block")
	}
	n.Confidence.Mu = math.Float64frombits(binary.BigEndian.Uint64(b[off:]))
	off += 8
	n.Confidence.SigmaSq = math.Float64frombits(binary.BigEndian.Uint64(b[off:]))
	off += 8
	n.Confidence.N = int64(binary.BigEndian.Uint64(b[off:]))
	off += 8
	n.Confidence.Tau = int64(binary.BigEndian.Uint64(b[off:]))
	off += 8

	if len(b) < off+32 {
		return nil, fmt.Errorf("wal: short timing block")
	}
	n.TauCreated = int64(binary.BigEndian.Uint64(b[off:]))
	off += 8
	n.TauAccessed = int64(binary.BigEndian.Uint64(b[off:]))
	off += 8
	n.DecayRate = math.Float64frombits(binary.BigEndian.Uint64(b[off:]))
	off += 8
	n.Epsilon = math.Float64frombits(binary.BigEndian.Uint64(b[off:]))
	off += 8

	if len(b) < off+4 {
		return nil, fmt.Errorf("wal: short tag count")
	}
	tagCount := int(binary.BigEndian.Uint32(b[off:]))
	off += 4
	for i := 0; i < tagCount; i++ {
		if len(b) < off+2 {
			return nil, fmt.Errorf("wal: short tag length")
		}
		tl := int(binary.BigEndian.Uint16(b[off:]))
		off += 2
		if len(b) < off+tl {
			return nil, fmt.Errorf("wal: short tag body")
		}
		n.Tags[string(b[off:off+tl])] = struct{}{}
		off += tl
	}

	if len(b) < off+4 {
		return nil, fmt.Errorf("wal: short edge count")
	}
	edgeCount := int(binary.BigEndian.Uint32(b[off:]))
	off += 4
	n.Edges = make([]types.Edge, 0, edgeCount)
	for i := 0; i < edgeCount; i++ {
		if len(b) < off+25 {
			return nil, fmt.Errorf("wal: short edge record")
		}
		var e types.Edge
		copy(e.Target[:], b[off:off+16])
		off += 16
		e.Type = types.EdgeType(b[off])
		off++
		e.Weight = math.Float64frombits(binary.BigEndian.Uint64(b[off:]))
		off += 8
		n.Edges = append(n.Edges, e)
	}

	return n, nil
}
