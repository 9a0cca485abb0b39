package pointsto

import (
	"go/types"
	"slices"

	"github.com/BarrensZeppelin/pointsto/ir"
)

// InterproceduralKind selects how invocations of analysable functions are
// handled.
type InterproceduralKind uint8

const (
	// Every invocation is opaque.
	InterproceduralNone InterproceduralKind = iota
	// Callees are analysed once per call site chain, seeded with the
	// caller's state.
	ContextSensitive
	// Callees are analysed once, independently of their callers.
	NonContextSensitive
)

type InterproceduralConfig struct {
	Kind InterproceduralKind
	// Maximum number of nested calls of ordinary functions analysed.
	MaxCallChain int
	// Maximum number of nested calls of lambdas and local functions analysed.
	MaxLambdaCallChain int
}

const (
	DefaultMaxCallChain       = 3
	DefaultMaxLambdaCallChain = 3
)

func (r *run) visitInvocation(st *state, op *ir.Operation) *Value {
	var recv *Value
	if op.Instance != nil {
		recv = r.visit(st, op.Instance)
	}
	args := make([]*Value, len(op.Args))
	for i, a := range op.Args {
		args[i] = r.visit(st, a.Value)
	}
	bindings := make([]*Value, len(op.Bindings))
	for i, b := range op.Bindings {
		bindings[i] = r.visit(st, b)
	}
	delete(r.tuples, op)

	if res, ok := r.interprocedural(st, op, recv, args, bindings); ok {
		if v, ok := r.applyCallee(st, op, res); ok {
			return v
		}
	}
	return r.opaqueCall(st, op, recv, args, bindings)
}

// interprocedural analyses the callee of op, if the configuration allows it.
func (r *run) interprocedural(st *state, op *ir.Operation, recv *Value, args, bindings []*Value) (*Result, bool) {
	ipc := r.config.Interprocedural
	callee := op.Callee
	if ipc.Kind == InterproceduralNone || op.Kind != ir.OpInvocation || callee == nil {
		return nil, false
	}
	g := callee.Body()
	if g == nil {
		return nil, false
	}

	logger := r.logger.WithField("callee", callee)
	if r.onStack(callee) {
		logger.Debug("recursive invocation is analysed opaquely")
		return nil, false
	}
	depth, lambdaDepth := r.depth, r.lambdaDepth
	if callee.IsClosure() {
		lambdaDepth++
	} else {
		depth++
	}
	if depth > ipc.MaxCallChain || lambdaDepth > ipc.MaxLambdaCallChain {
		logger.Debug("call chain limit reached")
		return nil, false
	}

	var (
		stack   *CallStack
		initial *AnalysisData
		copies  *CopyData
	)
	if ipc.Kind == ContextSensitive {
		stack = r.locations().Push(r.stack, op, callee)
		initial = r.calleeInitialData(st, callee, g, recv, args, bindings)
		copies = r.calleeCopies(st, op, callee)
	} else {
		stack = r.locations().Push(nil, nil, callee)
		initial = NewAnalysisData()
	}

	key := resultKey{graph: g, stack: stack, config: r.config.fingerprint(), seed: initial.fingerprint() + "|" + copies.fingerprint()}
	res, err := r.cache.nested(key, func() (*Result, error) {
		child := newRun(r.ctx, r.config, g, stack)
		child.parent = r
		child.depth, child.lambdaDepth = depth, lambdaDepth
		child.copySeed = copies
		return child.solve(initial)
	})
	if err != nil {
		logger.WithError(err).Debug("interprocedural analysis failed")
		return nil, false
	}
	return res, true
}

func (r *run) onStack(fn *ir.Function) bool {
	for p := r; p != nil; p = p.parent {
		if p.graph.Owner == fn {
			return true
		}
	}
	return false
}

// encloses reports whether fn is a lambda or local function nested in the
// function being analysed.
func (r *run) encloses(fn *ir.Function) bool {
	for p := fn.Parent; p != nil; p = p.Parent {
		if p == r.graph.Owner {
			return true
		}
	}
	return false
}

// calleeInitialData builds the state at the entry of callee. Nested lambdas
// see the complete state of the caller; other callees see only the members
// reachable from their arguments, plus static fields and globals.
func (r *run) calleeInitialData(st *state, callee *ir.Function, g *ir.Graph, recv *Value, args, bindings []*Value) *AnalysisData {
	var data *AnalysisData
	if r.encloses(callee) {
		data = st.data.Clone()
	} else {
		data = NewAnalysisData()
		var roots []*AbstractLocation
		if recv != nil {
			roots = append(roots, objectLocations(recv)...)
		}
		for _, v := range args {
			roots = append(roots, objectLocations(v)...)
		}
		for _, v := range bindings {
			roots = append(roots, objectLocations(v)...)
		}
		for _, e := range reachableMembers(st.data, roots) {
			v, _ := st.data.Get(e)
			data.Set(e, v)
		}
	}

	ents := r.entities()
	for i, p := range callee.Params {
		if i < len(args) {
			if e := ents.Parameter(p); e.ShouldBeTracked() {
				data.Set(e, args[i])
			}
		}
	}
	for i, fv := range callee.FreeVars {
		if i < len(bindings) {
			if e := ents.Local(fv); e.ShouldBeTracked() {
				data.Set(e, bindings[i])
			}
		}
	}
	if recv != nil && callee.Receiver != nil {
		data.Set(ents.This(g, callee.Receiver), recv)
	}
	return data
}

// calleeCopies returns the copies at the entry of callee: parameters whose
// arguments hold the same value at op are copies of each other.
func (r *run) calleeCopies(st *state, op *ir.Operation, callee *ir.Function) *CopyData {
	if r.copies == nil {
		return nil
	}
	before := r.copies.before(st.block, op)
	ents := r.entities()
	sources := make([]*Entity, len(op.Args))
	d := newCopyData()
	for i, a := range op.Args {
		if i >= len(callee.Params) || a.RefKind != ir.ByValue {
			continue
		}
		src, ok := r.copies.analysis.entity(a.Value)
		if !ok {
			continue
		}
		sources[i] = src
		for j, other := range sources[:i] {
			if other != nil && (other == src || before != nil && slices.Contains(before.set(src), other)) {
				d.assign(ents.Parameter(callee.Params[i]), ents.Parameter(callee.Params[j]))
				break
			}
		}
	}
	return d
}

// reachableMembers returns the member entities of data transitively
// reachable from roots or from globals, and all static fields.
func reachableMembers(data *AnalysisData, roots []*AbstractLocation) []*Entity {
	reach := make(map[*AbstractLocation]bool, len(roots))
	for _, l := range roots {
		reach[l] = true
	}
	added := make(map[*Entity]bool)
	var res []*Entity

	for changed := true; changed; {
		changed = false
		for e, v := range data.All() {
			if added[e] || (e.kind != EntityField && e.kind != EntityElement) {
				continue
			}
			if e.HasInstance() && !overlapsSet(e.instance, reach) && !containsGlobal(e.instance) {
				continue
			}
			added[e] = true
			res = append(res, e)
			changed = true
			for _, l := range objectLocations(v) {
				reach[l] = true
			}
		}
	}
	return res
}

// containsGlobal reports whether some location of locs is the storage of a
// global variable or lies within one.
func containsGlobal(locs []*AbstractLocation) bool {
	for _, l := range locs {
		for ; l != nil && l.kind == LocationSymbol; l = l.base {
			if l.base == nil {
				return true
			}
		}
	}
	return false
}

func overlapsSet(locs []*AbstractLocation, set map[*AbstractLocation]bool) bool {
	for _, l := range locs {
		if set[l] {
			return true
		}
	}
	return false
}

// applyCallee merges the state at the exit of an analysed callee back into
// st and returns the value of the invocation. It fails when the callee never
// returns.
func (r *run) applyCallee(st *state, op *ir.Operation, res *Result) (*Value, bool) {
	exit := res.BlockEntry(res.graph.Exit())
	if exit == nil || !res.IsReachable(res.graph.Exit()) {
		return nil, false
	}

	inherit := r.encloses(op.Callee)
	for e, v := range exit.All() {
		switch {
		case e.kind == EntityField || e.kind == EntityElement:
			st.data.Set(e, v)
		case inherit && e.kind != EntityFlowCapture:
			if _, ok := st.data.Get(e); ok {
				st.data.Set(e, v)
			}
		}
	}

	ents := r.entities()
	for i, a := range op.Args {
		if a.RefKind == ir.ByValue || i >= len(op.Callee.Params) {
			continue
		}
		r.assign(st, a.Value, res.exitValue(ents.Parameter(op.Callee.Params[i])))
	}

	if tuple, ok := op.Type.(*types.Tuple); ok {
		vals := res.ReturnValues()
		out := make([]*Value, tuple.Len())
		for i := range out {
			if i < len(vals) && vals[i].kind != KindUndefined {
				out[i] = vals[i]
			} else {
				out[i] = r.freshResult(op, tuple.At(i).Type(), i, Undefined)
			}
		}
		r.tuples[op] = out
		return NoLocationValue, true
	}
	if v := res.ReturnValue(); v.kind != KindUndefined {
		return v, true
	}
	return r.freshResult(op, op.Type, 0, Undefined), true
}

// opaqueCall models an invocation whose callee is not analysed. Results and
// by-reference arguments receive fresh locations; in pessimistic mode every
// member reachable from the arguments, the bindings or globals is forgotten.
func (r *run) opaqueCall(st *state, op *ir.Operation, recv *Value, args, bindings []*Value) *Value {
	ns := Undefined
	if recv != nil {
		ns = recv.nullState
	}

	if r.config.Pessimistic {
		var roots []*AbstractLocation
		if recv != nil {
			roots = append(roots, objectLocations(recv)...)
		}
		for _, v := range slices.Concat(args, bindings) {
			roots = append(roots, objectLocations(v)...)
		}
		for _, e := range reachableMembers(st.data, roots) {
			if e.ShouldBeTracked() {
				st.data.Set(e, UnknownValue)
			}
		}
	}

	for i, a := range op.Args {
		if a.RefKind == ir.ByValue {
			continue
		}
		e, ok := r.entityOf(a.Value)
		if !ok || !e.ShouldBeTracked() {
			continue
		}
		r.assign(st, a.Value, NewValue(MaybeNull, r.locations().Allocation(op, e.typ, r.stack, -(i+1))))
	}

	if tuple, ok := op.Type.(*types.Tuple); ok {
		vals := make([]*Value, tuple.Len())
		for i := range vals {
			vals[i] = r.freshResult(op, tuple.At(i).Type(), i, ns)
		}
		r.tuples[op] = vals
		return NoLocationValue
	}
	return r.freshResult(op, op.Type, 0, ns)
}

// freshResult is the value of result index of an opaque invocation.
func (r *run) freshResult(op *ir.Operation, t types.Type, index int, recv NullState) *Value {
	if !r.types().IsTracked(t) {
		return NoLocationValue
	}
	v := NewValue(MaybeNull, r.locations().Allocation(op, t, r.stack, index))
	return v.refineByInstance(recv, r.config.KeepMemberNullState)
}
