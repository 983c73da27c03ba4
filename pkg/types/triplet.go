package types

// Triplet is a derived (subject, predicate, object) relation, stored
// independently from the node graph but mirrored onto it by two Entity nodes
// and a pair of Mentions edges (§3, §4.5 connect_triplet).
type Triplet struct {
	Subject   string
	Predicate string
	Object    string
	Weight    float64
}
