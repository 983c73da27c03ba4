package types

// Lens is a plain value record distinguishing "polymorphic" recall voices
// (Manas, Buddhi, Ahamkara, Chitta, Vikalpa, Sakshi) from one another purely
// by data: a per-NodeType attention table, a confidence bias, and
// per-EdgeType traversal preferences. The resonance engine consumes a Lens
// the same way it consumes the default type-boost table — there is no
// subclassing (§9 Design Notes).
type Lens struct {
	Name           string
	Attention      map[NodeType]float64
	Bias           float64
	EdgePreference map[EdgeType]float64
}

// AttentionFor returns the lens's weight for t, defaulting to 1.0 when the
// lens does not mention that type (matching the resonance engine's "other"
// default for the un-lensed type-boost table).
func (l Lens) AttentionFor(t NodeType) float64 {
	if w, ok := l.Attention[t]; ok {
		return w
	}
	return 1.0
}

// EdgeWeightFor returns the lens's traversal preference for EdgeType et.
func (l Lens) EdgeWeightFor(et EdgeType) float64 {
	if w, ok := l.EdgePreference[et]; ok {
		return w
	}
	return 1.0
}

// Standard lenses, named after the antahkarana's four faculties plus two
// supplementary voices the teacher's domain names (Vikalpa: imagination/
// doubt, Sakshi: witness/observer) — weights are starting points an operator
// is expected to tune via config, not fixed constants from spec.md (the
// lens table itself, unlike the type-boost table, is left open by §4.6).
var (
	LensManas = Lens{
		Name:      "manas",
		Attention: map[NodeType]float64{Episode: 1.3, Intention: 1.2, Operation: 1.1},
		Bias:      0,
	}
	LensBuddhi = Lens{
		Name:      "buddhi",
		Attention: map[NodeType]float64{Wisdom: 1.4, Invariant: 1.3, Belief: 1.2},
		Bias:      0.05,
	}
	LensAhamkara = Lens{
		Name:      "ahamkara",
		Attention: map[NodeType]float64{Identity: 1.4, Voice: 1.2, Aspiration: 1.1},
		Bias:      0,
	}
	LensChitta = Lens{
		Name:      "chitta",
		Attention: map[NodeType]float64{Episode: 1.2, Dream: 1.3, StoryThread: 1.2},
		Bias:      0,
	}
	LensVikalpa = Lens{
		Name:      "vikalpa",
		Attention: map[NodeType]float64{Question: 1.3, Gap: 1.3, Aspiration: 1.1},
		Bias:      -0.05,
	}
	LensSakshi = Lens{
		Name:      "sakshi",
		Attention: map[NodeType]float64{Invariant: 1.2, Meta: 1.3, Failure: 1.1},
		Bias:      0,
	}
)

// LensByName resolves one of the six standard lenses by name.
func LensByName(name string) (Lens, bool) {
	switch name {
	case "manas":
		return LensManas, true
	case "buddhi":
		return LensBuddhi, true
	case "ahamkara":
		return LensAhamkara, true
	case "chitta":
		return LensChitta, true
	case "vikalpa":
		return LensVikalpa, true
	case "sakshi":
		return LensSakshi, true
	default:
		return Lens{}, false
	}
}
