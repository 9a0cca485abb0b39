package pointsto

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BarrensZeppelin/pointsto/ir"
)

// ValueKind discriminates the shapes of abstract values.
type ValueKind uint8

const (
	// Bottom element.
	KindUndefined ValueKind = iota
	// Value on an infeasible path.
	KindInvalid
	// The value may point anywhere.
	KindUnknown
	// The value is not a reference.
	KindNoLocation
	// The value is the null reference.
	KindNullLocation
	// The value points to one of a known set of locations.
	KindKnownLocations
	// The value of an lvalue flow capture: the set of captured operations.
	KindKnownLValueCaptures
)

// Value is an immutable element of the points-to lattice: a set of abstract
// locations a reference may hold, together with its null-state.
//
// Values must be created through the constructors of this package, which
// normalize well-known shapes to the canonical singletons below. Compare
// values with [Value.Equal].
type Value struct {
	kind      ValueKind
	nullState NullState
	// Sorted by ID, without duplicates.
	locations []*AbstractLocation
	// Sorted by ID, without duplicates.
	captures []*ir.Operation
}

var (
	UndefinedValue      = &Value{kind: KindUndefined, nullState: Undefined}
	InvalidValue        = &Value{kind: KindInvalid, nullState: Invalid}
	UnknownValue        = &Value{kind: KindUnknown, nullState: MaybeNull}
	UnknownNullValue    = &Value{kind: KindUnknown, nullState: Null}
	UnknownNotNullValue = &Value{kind: KindUnknown, nullState: NotNull}
	NoLocationValue     = &Value{kind: KindNoLocation, nullState: NotNull, locations: []*AbstractLocation{NoLocation}}
	NullLocationValue   = &Value{kind: KindNullLocation, nullState: Null, locations: []*AbstractLocation{NullLocation}}

	unknownCaptureValue = &Value{kind: KindUnknown, nullState: Unknown}
)

func unknownValue(ns NullState) *Value {
	switch ns {
	case Null:
		return UnknownNullValue
	case NotNull:
		return UnknownNotNullValue
	case Unknown:
		return unknownCaptureValue
	case Invalid:
		return InvalidValue
	case Undefined:
		return UndefinedValue
	default:
		return UnknownValue
	}
}

// NewValue returns the value pointing to locs with null-state ns. An empty set
// yields the unknown value.
func NewValue(ns NullState, locs ...*AbstractLocation) *Value {
	if len(locs) == 0 {
		return unknownValue(ns)
	}
	locs = slices.Clone(locs)
	slices.SortFunc(locs, cmpLocation)
	return newValueSorted(ns, slices.Compact(locs))
}

// newValueSorted takes ownership of locs, which must be sorted and unique.
func newValueSorted(ns NullState, locs []*AbstractLocation) *Value {
	switch {
	case len(locs) == 0:
		return unknownValue(ns)
	case len(locs) == 1 && locs[0] == NoLocation:
		return NoLocationValue
	case len(locs) == 1 && locs[0] == NullLocation && ns == Null:
		return NullLocationValue
	}
	if debugChecks && slices.Contains(locs, NoLocation) {
		panicf("NoLocation mixed with other locations: %v", locs)
	}
	return &Value{kind: KindKnownLocations, nullState: ns, locations: locs}
}

// NewLocationValue returns the value pointing to the single location l.
// Allocations are NotNull, the null location is Null and everything else is
// MaybeNull.
func NewLocationValue(l *AbstractLocation) *Value {
	switch l.kind {
	case LocationNone:
		return NoLocationValue
	case LocationNull:
		return NullLocationValue
	case LocationAllocation, LocationSymbol:
		return newValueSorted(NotNull, []*AbstractLocation{l})
	default:
		return newValueSorted(MaybeNull, []*AbstractLocation{l})
	}
}

// NewCapturesValue returns the value of an lvalue flow capture of ops.
func NewCapturesValue(ops ...*ir.Operation) *Value {
	if len(ops) == 0 {
		return unknownCaptureValue
	}
	ops = slices.Clone(ops)
	slices.SortFunc(ops, cmpOperation)
	return &Value{kind: KindKnownLValueCaptures, nullState: Unknown, captures: slices.Compact(ops)}
}

func cmpLocation(a, b *AbstractLocation) int { return a.id - b.id }
func cmpOperation(a, b *ir.Operation) int    { return a.ID - b.ID }

func (v *Value) Kind() ValueKind      { return v.kind }
func (v *Value) NullState() NullState { return v.nullState }

// Locations returns the locations of v. The result must not be modified.
func (v *Value) Locations() []*AbstractLocation { return v.locations }

// Captures returns the captured operations of an lvalue capture value. The
// result must not be modified.
func (v *Value) Captures() []*ir.Operation { return v.captures }

// HasLocations reports whether v denotes a known, non-empty set of locations.
func (v *Value) HasLocations() bool {
	switch v.kind {
	case KindKnownLocations, KindNullLocation:
		return true
	default:
		return false
	}
}

// Contains reports whether l is among the locations of v.
func (v *Value) Contains(l *AbstractLocation) bool {
	_, found := slices.BinarySearchFunc(v.locations, l, cmpLocation)
	return found
}

// Equal is structural equality.
func (v *Value) Equal(o *Value) bool {
	if v == o {
		return true
	}
	return v.kind == o.kind && v.nullState == o.nullState &&
		slices.Equal(v.locations, o.locations) && slices.Equal(v.captures, o.captures)
}

func (v *Value) String() string {
	switch v.kind {
	case KindUndefined, KindInvalid:
		return v.kind.String()
	case KindUnknown, KindNoLocation, KindNullLocation:
		return fmt.Sprintf("%s(%s)", v.kind, v.nullState)
	case KindKnownLValueCaptures:
		parts := make([]string, len(v.captures))
		for i, op := range v.captures {
			parts[i] = op.String()
		}
		return "captures{" + strings.Join(parts, ", ") + "}"
	}
	parts := make([]string, len(v.locations))
	for i, l := range v.locations {
		parts[i] = l.String()
	}
	return fmt.Sprintf("{%s}(%s)", strings.Join(parts, ", "), v.nullState)
}

// Merge joins v and o. Undefined and Invalid are identities; merging with an
// unknown value yields an unknown value; otherwise location sets are united.
func (v *Value) Merge(o *Value) *Value {
	switch {
	case v == o:
		return v
	case v.kind == KindUndefined:
		return o
	case o.kind == KindUndefined:
		return v
	case v.kind == KindInvalid:
		return o
	case o.kind == KindInvalid:
		return v
	}
	ns := v.nullState.Merge(o.nullState)
	switch {
	case v.kind == KindUnknown || o.kind == KindUnknown:
		return unknownValue(ns)
	case v.kind == KindKnownLValueCaptures && o.kind == KindKnownLValueCaptures:
		return NewCapturesValue(append(slices.Clone(v.captures), o.captures...)...)
	case v.kind == KindKnownLValueCaptures || o.kind == KindKnownLValueCaptures:
		return unknownCaptureValue
	case v.kind == KindNoLocation && o.kind == KindNoLocation:
		return NoLocationValue
	case v.kind == KindNoLocation || o.kind == KindNoLocation:
		// A reference merged with a non-reference; only happens for
		// ill-typed inputs.
		return unknownValue(ns)
	}
	return newValueSorted(ns, unionLocations(v.locations, o.locations))
}

// MergeForBackEdge is Merge followed by widening: location sets growing
// beyond maxLocations collapse to the unknown value.
func (v *Value) MergeForBackEdge(o *Value, maxLocations int) *Value {
	m := v.Merge(o)
	if m.kind == KindKnownLocations && len(m.locations) > maxLocations {
		return unknownValue(m.nullState)
	}
	return m
}

func unionLocations(a, b []*AbstractLocation) []*AbstractLocation {
	res := make([]*AbstractLocation, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := cmpLocation(a[i], b[j]); {
		case c < 0:
			res = append(res, a[i])
			i++
		case c > 0:
			res = append(res, b[j])
			j++
		default:
			res = append(res, a[i])
			i++
			j++
		}
	}
	res = append(res, a[i:]...)
	return append(res, b[j:]...)
}

// MakeNull returns v restricted to its null case.
func (v *Value) MakeNull() *Value {
	switch v.kind {
	case KindKnownLocations:
		if v.Contains(NullLocation) {
			return NullLocationValue
		}
		if v.nullState == Null {
			return v
		}
		return &Value{kind: KindKnownLocations, nullState: Null, locations: v.locations}
	case KindUnknown:
		return UnknownNullValue
	default:
		return v
	}
}

// MakeNonNull returns v restricted to its non-null case. A value that can
// only be null becomes Invalid.
func (v *Value) MakeNonNull() *Value {
	switch v.kind {
	case KindNullLocation:
		return InvalidValue
	case KindKnownLocations:
		locs := v.locations
		if v.Contains(NullLocation) {
			locs = slices.DeleteFunc(slices.Clone(locs), func(l *AbstractLocation) bool {
				return l == NullLocation
			})
		}
		if len(locs) == 0 {
			return InvalidValue
		}
		if v.nullState == NotNull && len(locs) == len(v.locations) {
			return v
		}
		return newValueSorted(NotNull, locs)
	case KindUnknown:
		return UnknownNotNullValue
	default:
		return v
	}
}

// MakeMayBeNull returns v with null-state MaybeNull.
func (v *Value) MakeMayBeNull() *Value {
	switch v.kind {
	case KindKnownLocations:
		if v.nullState == MaybeNull {
			return v
		}
		return &Value{kind: KindKnownLocations, nullState: MaybeNull, locations: v.locations}
	case KindNullLocation:
		return newValueSorted(MaybeNull, v.locations)
	case KindUnknown:
		return UnknownValue
	default:
		return v
	}
}

// refineByInstance adjusts the value of a member access by what is known
// about the receiver.
func (v *Value) refineByInstance(instance NullState, keepMemberNullState bool) *Value {
	switch instance {
	case Null:
		return v.MakeNull()
	case Invalid:
		return InvalidValue
	case NotNull:
		if !keepMemberNullState && (v.nullState == MaybeNull || v.nullState == Unknown) {
			return v.MakeNonNull()
		}
	}
	return v
}
