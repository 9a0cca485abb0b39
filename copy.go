package pointsto

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/BarrensZeppelin/pointsto/internal/dataflow"
	"github.com/BarrensZeppelin/pointsto/ir"
)

// CopyData maps entities to the set of entities that must hold the same
// value, itself included. Entities without copies are absent.
type CopyData struct {
	sets map[*Entity][]*Entity
}

func newCopyData() *CopyData {
	return &CopyData{sets: make(map[*Entity][]*Entity)}
}

// Copies returns the entities other than e that must hold the value of e.
func (d *CopyData) Copies(e *Entity) []*Entity {
	var res []*Entity
	for _, c := range d.sets[e] {
		if c != e {
			res = append(res, c)
		}
	}
	return res
}

func (d *CopyData) clone() *CopyData {
	// Sets are never modified in place.
	c := newCopyData()
	for e, s := range d.sets {
		c.sets[e] = s
	}
	return c
}

func (d *CopyData) set(e *Entity) []*Entity {
	if s, ok := d.sets[e]; ok {
		return s
	}
	return []*Entity{e}
}

// kill removes e from its copy set.
func (d *CopyData) kill(e *Entity) {
	s, ok := d.sets[e]
	if !ok {
		return
	}
	delete(d.sets, e)
	rest := slices.DeleteFunc(slices.Clone(s), func(o *Entity) bool { return o == e })
	for _, o := range rest {
		if len(rest) < 2 {
			delete(d.sets, o)
		} else {
			d.sets[o] = rest
		}
	}
}

// assign records that dst now holds a copy of src.
func (d *CopyData) assign(dst, src *Entity) {
	if dst == src {
		return
	}
	d.kill(dst)
	s := append(slices.Clone(d.set(src)), dst)
	slices.SortFunc(s, cmpEntity)
	for _, o := range s {
		d.sets[o] = s
	}
}

func cmpEntity(a, b *Entity) int { return a.id - b.id }

func (d *CopyData) fingerprint() string {
	if d == nil {
		return ""
	}
	var sb strings.Builder
	for _, e := range slices.SortedFunc(maps.Keys(d.sets), cmpEntity) {
		fmt.Fprintf(&sb, "%d=%d;", e.id, d.sets[e][0].id)
	}
	return sb.String()
}

// CopyResult is the outcome of the copy analysis of a graph.
type CopyResult struct {
	flow     *dataflow.Result[*CopyData]
	analysis *copyAnalysis
}

// Copies returns the entities that must hold the value of e at the end of
// block b.
func (r *CopyResult) Copies(b *ir.Block, e *Entity) []*Entity {
	if r == nil {
		return nil
	}
	d, ok := r.flow.Exit[b]
	if !ok {
		return nil
	}
	return d.Copies(e)
}

// before returns the copies holding when the top-level operation of b that
// contains op starts.
func (r *CopyResult) before(b *ir.Block, op *ir.Operation) *CopyData {
	in, ok := r.flow.Entry[b]
	if !ok {
		return nil
	}
	d := in.clone()
	for _, top := range b.Ops {
		if contains(top, op) {
			break
		}
		r.analysis.visit(d, top)
	}
	return d
}

func contains(root, op *ir.Operation) bool {
	if root == op {
		return true
	}
	for _, ch := range root.Children() {
		if contains(ch, op) {
			return true
		}
	}
	return false
}

// copyAnalysis tracks must-copies between locals, parameters, receivers and
// flow captures.
type copyAnalysis struct {
	graph    *ir.Graph
	entities *EntityFactory
}

func (ca *copyAnalysis) Clone(d *CopyData) *CopyData { return d.clone() }

// Merge intersects copy sets.
func (ca *copyAnalysis) Merge(a, b *CopyData) *CopyData {
	res := newCopyData()
	for e, sa := range a.sets {
		sb, ok := b.sets[e]
		if !ok {
			continue
		}
		var inter []*Entity
		for _, o := range sa {
			if slices.Contains(sb, o) {
				inter = append(inter, o)
			}
		}
		if len(inter) >= 2 {
			res.sets[e] = inter
		}
	}
	return res
}

func (ca *copyAnalysis) MergeForBackEdge(a, b *CopyData) *CopyData { return ca.Merge(a, b) }

func (ca *copyAnalysis) Equal(a, b *CopyData) bool {
	if len(a.sets) != len(b.sets) {
		return false
	}
	for e, s := range a.sets {
		if !slices.Equal(s, b.sets[e]) {
			return false
		}
	}
	return true
}

func (ca *copyAnalysis) FlowBranch(_ *ir.Branch, out *CopyData) (*CopyData, bool) {
	return out, true
}

func (ca *copyAnalysis) VisitBlock(b *ir.Block, in *CopyData) *CopyData {
	for _, op := range b.Ops {
		ca.visit(in, op)
	}
	if b.BranchValue != nil {
		ca.visit(in, b.BranchValue)
	}
	for _, op := range b.Results {
		ca.visit(in, op)
	}
	return in
}

// entity returns the instance-free entity op refers to.
func (ca *copyAnalysis) entity(op *ir.Operation) (*Entity, bool) {
	switch {
	case op.Kind == ir.OpFlowCaptureRef && op.LValue:
		return nil, false
	case op.Kind == ir.OpLocalRef, op.Kind == ir.OpParamRef, op.Kind == ir.OpInstance, op.Kind == ir.OpFlowCaptureRef:
		return ca.entities.TryCreate(op, ca.graph, func(*ir.Operation) *Value { return UnknownValue })
	default:
		return nil, false
	}
}

func (ca *copyAnalysis) visit(d *CopyData, op *ir.Operation) {
	for _, ch := range op.Children() {
		ca.visit(d, ch)
	}

	if (op.Kind == ir.OpAssignment || op.Kind == ir.OpCompoundAssignment) &&
		op.Target().Kind == ir.OpFlowCaptureRef && op.Target().LValue {
		// The storage written is only known to the points-to analysis.
		clear(d.sets)
		return
	}

	switch op.Kind {
	case ir.OpAssignment:
		if dst, ok := ca.entity(op.Target()); ok {
			if src, ok := ca.entity(op.Value()); ok {
				d.assign(dst, src)
			} else {
				d.kill(dst)
			}
		}
	case ir.OpFlowCapture:
		if op.LValue {
			break
		}
		dst, _ := ca.entities.TryCreate(op, ca.graph, nil)
		if src, ok := ca.entity(op.Operand()); ok {
			d.assign(dst, src)
		} else {
			d.kill(dst)
		}
	case ir.OpCompoundAssignment:
		if dst, ok := ca.entity(op.Target()); ok {
			d.kill(dst)
		}
	case ir.OpInvocation, ir.OpDynamicInvocation:
		for _, a := range op.Args {
			if a.RefKind == ir.ByValue {
				continue
			}
			if e, ok := ca.entity(a.Value); ok {
				d.kill(e)
			}
		}
	}
}

// computeCopies runs the copy analysis of g starting from the copies in
// seed, which may be nil.
func computeCopies(ctx context.Context, g *ir.Graph, cfg *AnalysisConfig, seed *CopyData) (*CopyResult, error) {
	ca := &copyAnalysis{graph: g, entities: cfg.Cache.entities}
	if seed == nil {
		seed = newCopyData()
	}
	flow, err := dataflow.Run(ctx, g, seed, ca, ca, dataflow.Options{
		MaxIterations: cfg.MaxIterations,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &CopyResult{flow: flow, analysis: ca}, nil
}
