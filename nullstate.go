package pointsto

//go:generate go tool stringer -type NullState,ValueKind,PredicateKind,EntityKind,LocationKind -output kind_string.go

// NullState classifies what is known about the nullness of a reference.
type NullState uint8

const (
	// Bottom element: no information has reached this point yet.
	Undefined NullState = iota
	// The program point is unreachable under the current assumptions.
	Invalid
	Null
	NotNull
	MaybeNull
	// Nothing is known. Values of flow captures carry this state.
	Unknown
)

// Merge joins two null-states. Undefined is the bottom element and Invalid
// is an identity for every other state. Equal states are kept and everything
// else becomes MaybeNull.
func (s NullState) Merge(o NullState) NullState {
	switch {
	case s == o:
		return s
	case s == Undefined:
		return o
	case o == Undefined:
		return s
	case s == Invalid:
		return o
	case o == Invalid:
		return s
	default:
		return MaybeNull
	}
}

// IsKnown reports whether s is Null or NotNull.
func (s NullState) IsKnown() bool { return s == Null || s == NotNull }

// PredicateKind is the statically known outcome of a condition.
type PredicateKind uint8

const (
	PredicateUnknown PredicateKind = iota
	AlwaysTrue
	AlwaysFalse
)

// Negate swaps AlwaysTrue and AlwaysFalse.
func (k PredicateKind) Negate() PredicateKind {
	switch k {
	case AlwaysTrue:
		return AlwaysFalse
	case AlwaysFalse:
		return AlwaysTrue
	default:
		return k
	}
}

// Merge joins the outcomes of a condition evaluated on several iterations.
func (k PredicateKind) Merge(o PredicateKind) PredicateKind {
	if k == o {
		return k
	}
	return PredicateUnknown
}
