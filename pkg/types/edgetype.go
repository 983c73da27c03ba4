package types

import "fmt"

// EdgeType enumerates the 15 relation kinds a node's outgoing edges may carry.
type EdgeType uint8

const (
	Similar EdgeType = iota
	Supports
	Contradicts
	AppliedIn
	EvolvedFrom
	PartOf
	TriggeredBy
	CreatedBy
	ScopedTo
	Answers
	Addresses
	Continues
	Mentions
	IsA
	RelatesTo
)

var edgeTypeNames = [...]string{
	"Similar", "Supports", "Contradicts", "AppliedIn", "EvolvedFrom", "PartOf",
	"TriggeredBy", "CreatedBy", "ScopedTo", "Answers", "Addresses", "Continues",
	"Mentions", "IsA", "RelatesTo",
}

func (t EdgeType) String() string {
	if int(t) < len(edgeTypeNames) {
		return edgeTypeNames[t]
	}
	return "Unknown"
}

// ParseEdgeType looks up an EdgeType by its String() name.
func ParseEdgeType(s string) (EdgeType, error) {
	for i, n := range edgeTypeNames {
		if n == s {
			return EdgeType(i), nil
		}
	}
	return 0, fmt.Errorf("types: unknown edge type %q", s)
}

// Edge is a weighted typed relation from the owning node to Target.
type Edge struct {
	Target NodeID
	Type   EdgeType
	Weight float64
}
