package pointsto

import (
	"github.com/BarrensZeppelin/pointsto/internal/dataflow"
	"github.com/BarrensZeppelin/pointsto/ir"
)

// Result is the fixed point of the points-to analysis of one graph.
type Result struct {
	// Total number of block visits.
	Iterations int
	// Copy is the copy analysis consumed by predicate refinement, if it was
	// requested.
	Copy *CopyResult

	graph      *ir.Graph
	flow       *dataflow.Result[*AnalysisData]
	defaults   *defaultValueGenerator
	values     map[*ir.Operation]*Value
	tuples     map[*ir.Operation][]*Value
	predicates map[*ir.Operation]PredicateKind
	returns    map[*ir.Block][]*Value
}

func (r *run) result(flow *dataflow.Result[*AnalysisData]) *Result {
	return &Result{
		Iterations: flow.Iterations,
		Copy:       r.copies,
		graph:      r.graph,
		flow:       flow,
		defaults:   r.defaults,
		values:     r.values,
		tuples:     r.tuples,
		predicates: r.predicates,
		returns:    r.returns,
	}
}

// Graph returns the analysed graph.
func (res *Result) Graph() *ir.Graph { return res.graph }

// BlockEntry returns the state at the start of b, or nil if b was never
// reached.
func (res *Result) BlockEntry(b *ir.Block) *AnalysisData {
	return res.flow.Entry[b]
}

// BlockExit returns the state at the end of b, or nil if b was never
// reached.
func (res *Result) BlockExit(b *ir.Block) *AnalysisData {
	return res.flow.Exit[b]
}

// IsReachable reports whether b can execute under the analysis'
// assumptions.
func (res *Result) IsReachable(b *ir.Block) bool {
	return res.flow.Reachable[b]
}

// Value returns the value of op at the fixed point. Operations that were
// never visited are unknown.
func (res *Result) Value(op *ir.Operation) *Value {
	if v, ok := res.values[op]; ok {
		return v
	}
	return UnknownValue
}

// Values returns the values of the components of a tuple-valued operation.
func (res *Result) Values(op *ir.Operation) []*Value {
	return res.tuples[op]
}

// PredicateKind returns what is statically known about a branch condition
// or a type test.
func (res *Result) PredicateKind(op *ir.Operation) PredicateKind {
	return res.predicates[op]
}

// EntityValue returns the value of e at the start of b.
func (res *Result) EntityValue(b *ir.Block, e *Entity) *Value {
	d := res.BlockEntry(b)
	if d == nil {
		return UndefinedValue
	}
	if v, ok := d.Get(e); ok {
		return v
	}
	return res.defaults.Value(e)
}

func (res *Result) exitValue(e *Entity) *Value {
	return res.EntityValue(res.graph.Exit(), e)
}

// ReturnValues returns the merged values returned along reachable return
// branches, one per result.
func (res *Result) ReturnValues() []*Value {
	var vals []*Value
	for _, b := range res.graph.Blocks {
		rv, ok := res.returns[b]
		if !ok || !res.IsReachable(b) {
			continue
		}
		for len(vals) < len(rv) {
			vals = append(vals, UndefinedValue)
		}
		for i, v := range rv {
			vals[i] = vals[i].Merge(v)
		}
	}
	return vals
}

// ReturnValue returns the merged value of the first result, or Undefined if
// no return is reachable.
func (res *Result) ReturnValue() *Value {
	if vals := res.ReturnValues(); len(vals) > 0 {
		return vals[0]
	}
	return UndefinedValue
}
