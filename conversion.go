package pointsto

import (
	"go/types"

	"github.com/BarrensZeppelin/pointsto/ir"
)

type conversionInference uint8

const (
	// Nothing is known statically.
	conversionUnknown conversionInference = iota
	conversionAlwaysSucceeds
	conversionAlwaysFails
)

// inferConversion decides conversions from from to to where possible.
// Conversions involving interfaces or type parameters on both sides depend
// on dynamic types and are not decided.
func (tp *TypeProvider) inferConversion(from, to types.Type) conversionInference {
	if from == nil || to == nil {
		return conversionUnknown
	}
	if types.Identical(from, to) {
		return conversionAlwaysSucceeds
	}
	fromDynamic, toDynamic := tp.IsInterfaceOrTypeParam(from), tp.IsInterfaceOrTypeParam(to)
	switch {
	case fromDynamic:
		return conversionUnknown
	case toDynamic:
		if _, isParam := types.Unalias(to).(*types.TypeParam); isParam {
			return conversionUnknown
		}
		if tp.DerivesFrom(from, to) {
			return conversionAlwaysSucceeds
		}
		return conversionAlwaysFails
	case tp.DerivesFrom(from, to) || types.ConvertibleTo(from, to):
		return conversionAlwaysSucceeds
	default:
		return conversionAlwaysFails
	}
}

// visitConversion computes the value of a conversion. Boxing allocates,
// unboxing loses all location information, and try-casts that may fail can
// yield null.
func (r *run) visitConversion(st *state, op *ir.Operation) *Value {
	x := op.Operand()
	v := r.visit(st, x)
	from, to := x.Type, op.Type
	tp := r.types()
	delete(r.predicates, op)

	switch {
	case v.nullState == Null && tp.IsTracked(to):
		return v
	case tp.IsBoxing(from, to):
		return NewLocationValue(r.locations().Allocation(op, from, r.stack, 0))
	case tp.IsUnboxing(from, to):
		return NoLocationValue
	case !tp.IsTracked(to):
		return NoLocationValue
	}

	switch tp.inferConversion(from, to) {
	case conversionAlwaysFails:
		r.predicates[op] = AlwaysFalse
		return NullLocationValue
	case conversionAlwaysSucceeds:
		if op.TryCast {
			r.predicates[op] = AlwaysTrue
		}
		return v
	}
	if op.TryCast {
		return v.MakeMayBeNull()
	}
	return v
}
