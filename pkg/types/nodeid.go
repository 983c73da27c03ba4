package types

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// NodeID is a 128-bit identifier. The high 64 bits encode the creation
// millisecond timestamp, the low 64 bits are random — this gives NodeIDs a
// total order by creation time without a central counter, the same property
// the teacher's badger key scheme relies on implicitly through insertion
// order.
type NodeID [16]byte

// NewNodeID mints a NodeID for the given creation time (in epoch milliseconds).
func NewNodeID(creationMs int64) (NodeID, error) {
	var id NodeID
	binary.BigEndian.PutUint64(id[:8], uint64(creationMs))
	if _, err := rand.Read(id[8:]); err != nil {
		return NodeID{}, fmt.Errorf("generate random suffix: %w", err)
	}
	return id, nil
}

// CreatedAtMs extracts the embedded creation timestamp.
func (id NodeID) CreatedAtMs() int64 {
	return int64(binary.BigEndian.Uint64(id[:8]))
}

// String renders the canonical hex-with-dashes form: 8-4-4-4-12, matching the
// visual grouping of a UUID without claiming UUID semantics.
func (id NodeID) String() string {
	h := hex.EncodeToString(id[:])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}

// ParseNodeID parses the canonical dashed-hex form back into a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	var id NodeID
	clean := make([]byte, 0, 32)
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			continue
		}
		clean = append(clean, s[i])
	}
	if len(clean) != 32 {
		return id, fmt.Errorf("nodeid: malformed id %q", s)
	}
	b, err := hex.DecodeString(string(clean))
	if err != nil {
		return id, fmt.Errorf("nodeid: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// Less gives NodeID a total order: creation timestamp first, then raw bytes —
// used for deterministic ascending tie-breaks (§4.6, §4.4).
func (id NodeID) Less(other NodeID) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// IsZero reports whether id is the zero value (never a valid minted id).
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}
