package pointsto

import (
	"go/constant"

	"github.com/BarrensZeppelin/pointsto/ir"
)

// refine narrows st assuming cond evaluates to want, and returns what is
// statically known about cond.
//
// When the outcome of a null test is known, the entity tested is set to
// Invalid on the branch that cannot be taken and the other branch is left
// alone. Otherwise the tested entity, and every entity known to be a copy of
// it, is narrowed to Null or NotNull on each branch.
func (r *run) refine(st *state, cond *ir.Operation, want bool) PredicateKind {
	switch cond.Kind {
	case ir.OpLiteral:
		if cond.Const != nil && cond.Const.Kind() == constant.Bool {
			if constant.BoolVal(cond.Const) {
				return AlwaysTrue
			}
			return AlwaysFalse
		}

	case ir.OpUnary:
		if cond.Unary == ir.Not {
			return r.refine(st, cond.Operand(), !want).Negate()
		}

	case ir.OpConversion:
		return r.refine(st, cond.Operand(), want)

	case ir.OpIsNull:
		return r.refineNull(st, cond.Operand(), want)

	case ir.OpBinary:
		if cond.Binary != ir.Equals && cond.Binary != ir.NotEquals {
			break
		}
		x, y := cond.Operands[0], cond.Operands[1]
		var subject *ir.Operation
		switch {
		case r.valueOf(y).nullState == Null:
			subject = x
		case r.valueOf(x).nullState == Null:
			subject = y
		default:
			return PredicateUnknown
		}
		if cond.Binary == ir.Equals {
			return r.refineNull(st, subject, want)
		}
		return r.refineNull(st, subject, !want).Negate()
	}
	return PredicateUnknown
}

// refineNull narrows st assuming subject is null iff isNull, and returns
// what is known about subject being null.
func (r *run) refineNull(st *state, subject *ir.Operation, isNull bool) PredicateKind {
	kind := PredicateUnknown
	switch r.valueOf(subject).nullState {
	case Null:
		kind = AlwaysTrue
	case NotNull:
		kind = AlwaysFalse
	}

	targets := r.refinementTargets(st, subject)
	switch {
	case kind == PredicateUnknown:
		for _, e := range targets {
			cur := r.current(st, e)
			if isNull {
				r.set(st, e, cur.MakeNull())
			} else {
				r.set(st, e, cur.MakeNonNull())
			}
		}
	case (kind == AlwaysTrue) != isNull:
		for _, e := range targets {
			r.set(st, e, InvalidValue)
		}
	}
	return kind
}

// refinementTargets returns the tracked entity subject refers to together
// with its copies at the end of the current block.
func (r *run) refinementTargets(st *state, subject *ir.Operation) []*Entity {
	e, ok := r.entityOf(subject)
	if !ok || !e.ShouldBeTracked() {
		return nil
	}
	targets := []*Entity{e}
	if r.copies != nil {
		for _, c := range r.copies.Copies(st.block, e) {
			if c.ShouldBeTracked() {
				targets = append(targets, c)
			}
		}
	}
	return targets
}
