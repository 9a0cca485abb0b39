package pointsto

import (
	"context"
	"go/types"

	"github.com/BarrensZeppelin/pointsto/ir"
	log "github.com/sirupsen/logrus"
)

// run is one analysis of one graph in one interprocedural context. It
// implements the transfer functions of the fixed-point driver.
type run struct {
	ctx    context.Context
	config *AnalysisConfig
	cache  *Cache
	logger log.FieldLogger

	graph *ir.Graph
	stack *CallStack
	// The run that invoked this one, for interprocedural runs.
	parent *run
	// Length of the chain of interprocedural calls leading here, counting
	// lambdas and local functions separately.
	depth, lambdaDepth int

	dom      *domain
	defaults *defaultValueGenerator
	copies   *CopyResult
	// Copies holding at the entry of interprocedural runs.
	copySeed *CopyData

	// Results of the latest visit of every operation.
	values     map[*ir.Operation]*Value
	tuples     map[*ir.Operation][]*Value
	predicates map[*ir.Operation]PredicateKind
	returns    map[*ir.Block][]*Value

	// Values of the objects whose initializers are being visited.
	creating []*Value
}

// state is the mutable state threaded through the visit of one block.
type state struct {
	data  *AnalysisData
	block *ir.Block
}

func newRun(ctx context.Context, cfg *AnalysisConfig, g *ir.Graph, stack *CallStack) *run {
	defaults := newDefaultValueGenerator(cfg.Cache.locs)
	return &run{
		ctx:        ctx,
		config:     cfg,
		cache:      cfg.Cache,
		logger:     cfg.Logger.WithField("graph", g.Owner),
		graph:      g,
		stack:      stack,
		dom:        &domain{defaults: defaults, maxLocations: cfg.MaxLocations},
		defaults:   defaults,
		values:     make(map[*ir.Operation]*Value),
		tuples:     make(map[*ir.Operation][]*Value),
		predicates: make(map[*ir.Operation]PredicateKind),
		returns:    make(map[*ir.Block][]*Value),
	}
}

func (r *run) types() *TypeProvider { return r.config.Types }

func (r *run) entities() *EntityFactory { return r.cache.entities }

func (r *run) locations() *locationTable { return r.cache.locs }

// VisitBlock runs the operations of b on in.
func (r *run) VisitBlock(b *ir.Block, in *AnalysisData) *AnalysisData {
	st := &state{data: in, block: b}
	for _, op := range b.Ops {
		r.visit(st, op)
	}
	if b.BranchValue != nil {
		r.visit(st, b.BranchValue)
	}
	if len(b.Results) > 0 {
		vals := make([]*Value, len(b.Results))
		for i, op := range b.Results {
			vals[i] = r.visit(st, op)
		}
		r.returns[b] = vals
	}
	assertData(st.data)
	return st.data
}

// FlowBranch narrows the state flowing along conditional branches.
func (r *run) FlowBranch(br *ir.Branch, out *AnalysisData) (*AnalysisData, bool) {
	cond := br.Source.BranchValue
	if cond == nil || br.Condition == ir.CondNone || br.Kind != ir.BranchRegular {
		return out, true
	}

	st := &state{data: out.Clone(), block: br.Source}
	want := br.Condition == ir.WhenTrue
	kind := r.refine(st, cond, want)
	if want {
		r.predicates[cond] = kind
	}

	feasible := !(kind == AlwaysTrue && !want || kind == AlwaysFalse && want)
	assertData(st.data)
	return st.data, feasible
}

func (r *run) visit(st *state, op *ir.Operation) *Value {
	v := r.visitOp(st, op)
	assertValid(v)
	r.values[op] = v
	return v
}

func (r *run) visitChildren(st *state, op *ir.Operation) {
	for _, ch := range op.Children() {
		r.visit(st, ch)
	}
}

// defaultFor is the value of an operation of type t that the analysis has no
// better answer for.
func (r *run) defaultFor(t types.Type) *Value {
	if r.types().IsTracked(t) {
		return UnknownValue
	}
	return NoLocationValue
}

func (r *run) visitOp(st *state, op *ir.Operation) *Value {
	switch op.Kind {
	case ir.OpLiteral:
		if op.Null {
			return NullLocationValue
		}
		return NoLocationValue

	case ir.OpDefaultValue:
		if r.types().IsTracked(op.Type) {
			return NullLocationValue
		}
		return NoLocationValue

	case ir.OpLocalRef, ir.OpParamRef, ir.OpFlowCaptureRef:
		e, _ := r.entityOf(op)
		return r.current(st, e)

	case ir.OpInstance:
		if op.Implicit {
			if n := len(r.creating); n > 0 {
				return r.creating[n-1]
			}
			return UnknownNotNullValue
		}
		e, _ := r.entityOf(op)
		return r.current(st, e)

	case ir.OpFieldRef, ir.OpPropertyRef, ir.OpEventRef, ir.OpElementRef:
		var instance *Value
		if op.Instance != nil {
			instance = r.visit(st, op.Instance)
		}
		for _, idx := range op.Operands {
			r.visit(st, idx)
		}
		var v *Value
		if e, ok := r.entityOf(op); ok {
			v = r.current(st, e)
		} else {
			v = r.defaultFor(op.Type)
		}
		if instance != nil {
			v = v.refineByInstance(instance.nullState, r.config.KeepMemberNullState)
		}
		return v

	case ir.OpMethodRef:
		if op.Instance == nil {
			return r.defaultFor(op.Type)
		}
		instance := r.visit(st, op.Instance)
		return r.defaultFor(op.Type).refineByInstance(instance.nullState, r.config.KeepMemberNullState)

	case ir.OpAddressOf:
		if op.Instance == nil {
			return NewLocationValue(r.locations().Symbol(op.Symbol, nil, op.Type))
		}
		instance := r.visit(st, op.Instance)
		bases := objectLocations(instance)
		if len(bases) == 0 {
			return UnknownNotNullValue.refineByInstance(instance.nullState, r.config.KeepMemberNullState)
		}
		locs := make([]*AbstractLocation, len(bases))
		for i, base := range bases {
			locs[i] = r.locations().Symbol(op.Symbol, base, op.Type)
		}
		return NewValue(NotNull, locs...).refineByInstance(instance.nullState, r.config.KeepMemberNullState)

	case ir.OpObjectCreation, ir.OpArrayCreation, ir.OpAnonymousObjectCreation,
		ir.OpTypeParameterObjectCreation, ir.OpDelegateCreation:
		return r.visitCreation(st, op)

	case ir.OpConversion:
		return r.visitConversion(st, op)

	case ir.OpInvocation, ir.OpDynamicInvocation:
		return r.visitInvocation(st, op)

	case ir.OpFlowCapture:
		return r.visitFlowCapture(st, op)

	case ir.OpAssignment:
		target := op.Target()
		r.visitTarget(st, target)
		v := r.visit(st, op.Value())
		r.assign(st, target, v)
		r.values[target] = v
		return v

	case ir.OpCompoundAssignment:
		current := r.visit(st, op.Target())
		r.visit(st, op.Value())
		v := r.computeValueForCompoundAssignment(op, current)
		if current.kind != KindKnownLValueCaptures {
			r.assign(st, op.Target(), v)
		}
		return v

	case ir.OpExtract:
		if vals, ok := r.tuples[op.Operand()]; ok && op.Index < len(vals) {
			return vals[op.Index]
		}
		return r.defaultFor(op.Type)

	default:
		// Binary and unary operators, null tests and everything the
		// analysis has no rule for.
		r.visitChildren(st, op)
		return r.defaultFor(op.Type)
	}
}

// entityOf returns the entity op refers to, using the latest values of its
// instance operations.
func (r *run) entityOf(op *ir.Operation) (*Entity, bool) {
	return r.entities().TryCreate(op, r.graph, r.valueOf)
}

func (r *run) valueOf(op *ir.Operation) *Value {
	if v, ok := r.values[op]; ok {
		return v
	}
	return UnknownValue
}

// current returns the value of e in st.
func (r *run) current(st *state, e *Entity) *Value {
	if e == nil {
		return UnknownValue
	}
	if v, ok := st.data.Get(e); ok {
		return v
	}
	return r.defaults.Value(e)
}

// set maps e to v in st. Untracked entities are not stored.
func (r *run) set(st *state, e *Entity, v *Value) {
	if !e.ShouldBeTracked() {
		return
	}
	st.data.Set(e, v)
}

// visitTarget evaluates the parts of an assignment target that are read:
// instances and indices.
func (r *run) visitTarget(st *state, target *ir.Operation) {
	switch target.Kind {
	case ir.OpLocalRef, ir.OpParamRef, ir.OpInstance, ir.OpFlowCaptureRef:
	case ir.OpFieldRef, ir.OpPropertyRef, ir.OpEventRef, ir.OpElementRef:
		if target.Instance != nil {
			r.visit(st, target.Instance)
		}
		for _, idx := range target.Operands {
			r.visit(st, idx)
		}
	default:
		r.visit(st, target)
	}
}

// assign stores v into the storage target refers to.
func (r *run) assign(st *state, target *ir.Operation, v *Value) {
	if target.Kind == ir.OpFlowCaptureRef && target.LValue {
		if e, ok := r.entityOf(target); ok {
			if bound := r.current(st, e); bound.kind == KindKnownLValueCaptures {
				for _, captured := range bound.captures {
					r.assign(st, captured, v)
				}
				return
			}
		}
	}

	e, ok := r.entityOf(target)
	if !ok {
		r.assignUnknownMember(st, target, v)
		return
	}
	if e.HasInstance() {
		r.weakUpdateAliases(st, e, v)
	}
	r.set(st, e, v)
}

// weakUpdateAliases merges v into the member entities that may share storage
// with e.
func (r *run) weakUpdateAliases(st *state, e *Entity, v *Value) {
	for o, ov := range st.data.All() {
		if o != e && o.mayAlias(e) {
			st.data.Set(o, ov.Merge(v))
		}
	}
}

// assignUnknownMember handles stores to members without an entity: fields of
// unknown objects and elements at unknown indices. Every member entity the
// store may write to gets v merged in.
func (r *run) assignUnknownMember(st *state, target *ir.Operation, v *Value) {
	var kind EntityKind
	switch target.Kind {
	case ir.OpFieldRef, ir.OpPropertyRef, ir.OpEventRef:
		kind = EntityField
	case ir.OpElementRef:
		kind = EntityElement
	default:
		return
	}
	var locs []*AbstractLocation
	if target.Instance != nil {
		locs = objectLocations(r.valueOf(target.Instance))
	}
	for o, ov := range st.data.All() {
		if o.kind != kind || !o.HasInstance() {
			continue
		}
		if kind == EntityField && o.symbol != target.Symbol {
			continue
		}
		if len(locs) == 0 || o.overlaps(locs) {
			st.data.Set(o, ov.Merge(v))
		}
	}
}

// visitCreation allocates the object of a creation operation. The value is
// fixed before arguments and initializers are visited, so initializers
// observe the new object.
func (r *run) visitCreation(st *state, op *ir.Operation) *Value {
	v := NoLocationValue
	if r.types().IsTracked(op.Type) {
		v = NewLocationValue(r.locations().Allocation(op, op.Type, r.stack, 0))
	}
	r.values[op] = v

	r.creating = append(r.creating, v)
	r.visitChildren(st, op)
	r.creating = r.creating[:len(r.creating)-1]

	if op.Kind == ir.OpDelegateCreation {
		// The captured bindings are reachable through the closure.
		for i, b := range op.Operands {
			if e, ok := r.entities().Element(v, i, b.Type); ok {
				r.set(st, e, r.valueOf(b))
			}
		}
	}
	return v
}

// visitFlowCapture binds a flow capture. An lvalue capture is bound to the
// set of captured operations; once bound on a path it is never rebound.
func (r *run) visitFlowCapture(st *state, op *ir.Operation) *Value {
	operand := op.Operand()
	e, _ := r.entityOf(op)
	if !op.LValue {
		v := r.visit(st, operand)
		r.set(st, e, v)
		return v
	}

	r.visitTarget(st, operand)
	if bound, ok := st.data.Get(e); ok && bound.kind == KindKnownLValueCaptures {
		return bound
	}
	v := NewCapturesValue(operand)
	r.set(st, e, v)
	return v
}

// computeValueForCompoundAssignment returns the value stored by op into a
// target currently holding target. Lvalue captures are never re-targeted.
func (r *run) computeValueForCompoundAssignment(op *ir.Operation, target *Value) *Value {
	switch {
	case target.kind == KindKnownLValueCaptures:
		return target
	case r.types().IsTracked(op.Type):
		return NewLocationValue(r.locations().Allocation(op, op.Type, r.stack, 0))
	default:
		return NoLocationValue
	}
}
