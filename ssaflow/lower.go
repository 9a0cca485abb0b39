package ssaflow

import (
	"go/token"
	"go/types"

	"github.com/BarrensZeppelin/pointsto"
	"github.com/BarrensZeppelin/pointsto/internal/slices"
	"github.com/BarrensZeppelin/pointsto/ir"
	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"
)

type lowering struct {
	prog   *Program
	fn     *Function
	b      *ir.Builder
	blocks []*ir.Block
	// Operations producing tuples, by the SSA value they define.
	tuples   map[ssa.Value]*ir.Operation
	captures int
}

func (p *Program) lower(f *Function) *ir.Graph {
	fn := f.SSA
	l := &lowering{
		prog:   p,
		fn:     f,
		b:      ir.NewBuilder(f.IR),
		blocks: make([]*ir.Block, len(fn.Blocks)),
		tuples: make(map[ssa.Value]*ir.Operation),
	}
	for i := range fn.Blocks {
		l.blocks[i] = l.b.NewBlock()
	}
	l.b.Jump(l.b.Entry(), l.blocks[0])
	for _, bb := range fn.Blocks {
		blk := l.blocks[bb.Index]
		for _, instr := range bb.Instrs {
			l.b.SetPos(instr.Pos())
			l.instr(blk, bb, instr)
		}
	}

	g, err := l.b.Finish()
	if err != nil {
		log.Panicf("lowering %s: %v", fn, err)
	}
	p.logger.WithField("function", fn.String()).Debugf("lowered %d blocks into %d", len(fn.Blocks), len(g.Blocks))
	return g
}

func (l *lowering) instr(blk *ir.Block, bb *ssa.BasicBlock, in ssa.Instruction) {
	b := l.b
	switch instr := in.(type) {
	case *ssa.DebugRef, *ssa.RunDefers, *ssa.Phi:
		// Phis are assigned on the incoming edges.

	case *ssa.Jump:
		b.Jump(blk, l.edge(bb, 0))
	case *ssa.If:
		l.branch(blk, bb, instr)
	case *ssa.Return:
		b.Return(blk, slices.Map(instr.Results, l.read)...)
	case *ssa.Panic:
		b.Throw(blk, l.read(instr.X))

	case *ssa.Alloc:
		l.define(blk, instr, b.New(instr.Type()))
		l.zeroFields(blk, instr)
	case *ssa.MakeInterface:
		// A non-nil box, even around a nil pointer.
		l.define(blk, instr, b.New(instr.Type(), l.read(instr.X)))
	case *ssa.MakeClosure:
		fn := instr.Fn.(*ssa.Function)
		l.define(blk, instr, b.Delegate(l.prog.Function(fn).IR, instr.Type(), slices.Map(instr.Bindings, l.read)...))
	case *ssa.MakeMap:
		l.define(blk, instr, b.New(instr.Type(), l.reads(instr.Reserve)...))
	case *ssa.MakeChan:
		l.define(blk, instr, b.New(instr.Type(), l.read(instr.Size)))
	case *ssa.MakeSlice:
		l.define(blk, instr, b.Creation(ir.OpArrayCreation, instr.Type(), l.read(instr.Len), l.read(instr.Cap)))

	case *ssa.FieldAddr:
		ptr := l.read(instr.X)
		b.Emit(blk, ptr)
		l.deref(blk, DerefField, ptr, instr.Pos())
	case *ssa.IndexAddr:
		if _, ok := instr.X.Type().Underlying().(*types.Pointer); ok {
			ptr := l.read(instr.X)
			b.Emit(blk, ptr)
			l.deref(blk, DerefIndex, ptr, instr.Pos())
		}
	case *ssa.UnOp:
		switch instr.Op {
		case token.MUL:
			target, ptr := l.storage(instr.X)
			if ptr != nil {
				l.deref(blk, DerefLoad, ptr, instr.Pos())
			}
			l.define(blk, instr, target)
		case token.NOT:
			l.define(blk, instr, b.Not(l.read(instr.X)))
		default:
			l.define(blk, instr, b.Other(instr.Type(), l.read(instr.X)))
		}
	case *ssa.Store:
		l.store(blk, instr)
	case *ssa.MapUpdate:
		m := l.read(instr.Map)
		b.Emit(blk, m)
		l.deref(blk, DerefMapUpdate, m, instr.Pos())
		b.Emit(blk, b.Other(nil, l.read(instr.Key), l.read(instr.Value)))

	case *ssa.BinOp:
		x, y := l.read(instr.X), l.read(instr.Y)
		switch instr.Op {
		case token.EQL:
			l.define(blk, instr, b.Equal(x, y))
		case token.NEQ:
			l.define(blk, instr, b.NotEqual(x, y))
		default:
			l.define(blk, instr, b.Binary(x, y, instr.Type()))
		}

	case *ssa.TypeAssert:
		if instr.CommaOk {
			l.define(blk, instr, b.Other(instr.Type(), l.read(instr.X)))
		} else {
			l.define(blk, instr, b.Convert(l.read(instr.X), instr.AssertedType, true))
		}
	case *ssa.ChangeInterface:
		l.define(blk, instr, b.Convert(l.read(instr.X), instr.Type(), false))
	case *ssa.ChangeType:
		l.define(blk, instr, b.Convert(l.read(instr.X), instr.Type(), false))
	case *ssa.Convert:
		l.define(blk, instr, b.Convert(l.read(instr.X), instr.Type(), false))
	case *ssa.MultiConvert:
		l.define(blk, instr, b.Convert(l.read(instr.X), instr.Type(), false))
	case *ssa.SliceToArrayPointer:
		l.define(blk, instr, b.Convert(l.read(instr.X), instr.Type(), false))

	case *ssa.Extract:
		if tuple, ok := l.tuples[instr.Tuple]; ok {
			l.define(blk, instr, b.Extract(tuple, instr.Index, instr.Type()))
		} else {
			l.define(blk, instr, b.Other(instr.Type()))
		}

	case *ssa.Call:
		l.define(blk, instr, l.call(blk, instr.Common(), instr.Type(), instr.Pos()))
	case *ssa.Go:
		l.detached(blk, instr.Common())
	case *ssa.Defer:
		l.detached(blk, instr.Common())

	case ssa.Value:
		// Field, Index, Lookup, Slice, Range, Next, Select and friends.
		l.define(blk, instr, b.Other(instr.Type(), l.reads(operands(in)...)...))
	default:
		// Send and other effects on values the analysis does not track.
		b.Emit(blk, b.Other(nil, l.reads(operands(instr)...)...))
	}
}

// define emits the computation of v.
func (l *lowering) define(blk *ir.Block, v ssa.Value, op *ir.Operation) {
	if _, ok := v.Type().(*types.Tuple); ok {
		l.tuples[v] = op
		l.b.Emit(blk, op)
		return
	}
	l.b.Emit(blk, l.b.Assign(l.b.Local(v), op))
}

func (l *lowering) deref(blk *ir.Block, kind DerefKind, ptr *ir.Operation, pos token.Pos) {
	if !pos.IsValid() {
		return
	}
	l.fn.derefs = append(l.fn.derefs, Deref{Kind: kind, Pos: pos, Block: blk, Pointer: ptr})
}

// read returns an operation evaluating v. SSA values never change after
// their definition, so v may be read anywhere it is in scope.
func (l *lowering) read(v ssa.Value) *ir.Operation {
	b := l.b
	switch v := v.(type) {
	case *ssa.Const:
		switch {
		case v.IsNil():
			return b.Null(v.Type())
		case v.Value == nil:
			return b.Default(v.Type())
		default:
			return b.Const(v.Value, v.Type())
		}
	case *ssa.Parameter:
		return b.Param(v)
	case *ssa.FreeVar:
		return b.Local(v)
	case *ssa.Global:
		return b.AddressOf(nil, v, v.Type())
	case *ssa.Function:
		return b.Delegate(l.prog.Function(v).IR, v.Type())
	case *ssa.Builtin:
		return b.Other(v.Type())
	case *ssa.FieldAddr:
		if f := fieldOf(v.X.Type(), v.Field); f != nil {
			return b.AddressOf(l.read(v.X), f, v.Type())
		}
	case *ssa.IndexAddr:
		return b.AddressOf(l.read(v.X), l.prog.elemSymbol(elem(v.Type())), v.Type())
	}
	return b.Local(v)
}

// reads skips missing operands.
func (l *lowering) reads(vs ...ssa.Value) []*ir.Operation {
	var ops []*ir.Operation
	for _, v := range vs {
		if v != nil {
			ops = append(ops, l.read(v))
		}
	}
	return ops
}

func operands(instr ssa.Instruction) []ssa.Value {
	var vs []ssa.Value
	for _, v := range instr.Operands(nil) {
		if *v != nil {
			vs = append(vs, *v)
		}
	}
	return vs
}

// storage returns the operation naming the memory addr points to. ptr is the
// dereferenced pointer when the access is not covered by an earlier address
// computation.
func (l *lowering) storage(addr ssa.Value) (target, ptr *ir.Operation) {
	switch a := addr.(type) {
	case *ssa.FieldAddr:
		if f := fieldOf(a.X.Type(), a.Field); f != nil {
			return l.b.Field(l.read(a.X), f), nil
		}
	case *ssa.IndexAddr:
		return l.b.Element(l.read(a.X), l.read(a.Index), elem(a.Type())), nil
	}
	ptr = l.read(addr)
	return l.b.Field(ptr, l.prog.derefSymbol(elem(addr.Type()))), ptr
}

func (l *lowering) store(blk *ir.Block, instr *ssa.Store) {
	if aggregate(instr.Val.Type()) {
		// Copying a struct or array overwrites every member of the target.
		// That is modelled as an opaque call on the target's address.
		ptr := l.read(instr.Addr)
		l.b.Emit(blk, l.b.DynamicCall(nil, types.NewTuple(), ptr, l.read(instr.Val)))
		if !isAddress(instr.Addr) {
			l.deref(blk, DerefStore, ptr, instr.Pos())
		}
		return
	}
	target, ptr := l.storage(instr.Addr)
	if ptr != nil {
		l.deref(blk, DerefStore, ptr, instr.Pos())
	}
	l.b.Emit(blk, l.b.Assign(target, l.read(instr.Val)))
}

func (l *lowering) call(blk *ir.Block, c *ssa.CallCommon, typ types.Type, pos token.Pos) *ir.Operation {
	b := l.b
	args := slices.Map(c.Args, l.read)
	if c.IsInvoke() {
		recv := l.read(c.Value)
		b.Emit(blk, recv)
		l.deref(blk, DerefInvoke, recv, pos)
		return b.DynamicCall(nil, typ, append([]*ir.Operation{l.read(c.Value)}, args...)...)
	}
	if _, ok := c.Value.(*ssa.Builtin); ok {
		return b.Other(typ, args...)
	}
	if callee := c.StaticCallee(); callee != nil {
		op := b.Call(l.prog.Function(callee).IR, nil, typ, args...)
		if mc, ok := c.Value.(*ssa.MakeClosure); ok {
			op.Bindings = slices.Map(mc.Bindings, l.read)
		}
		return op
	}
	fv := l.read(c.Value)
	b.Emit(blk, fv)
	l.deref(blk, DerefCall, fv, pos)
	return b.DynamicCall(nil, typ, args...)
}

// detached lowers go and defer statements. The callee runs at some later
// point, so it is treated as an opaque call that may update anything
// reachable from its operands.
func (l *lowering) detached(blk *ir.Block, c *ssa.CallCommon) {
	args := l.reads(c.Args...)
	if _, ok := c.Value.(*ssa.Builtin); !ok {
		args = append(args, l.read(c.Value))
	}
	l.b.Emit(blk, l.b.DynamicCall(nil, types.NewTuple(), args...))
}

func (l *lowering) branch(blk *ir.Block, bb *ssa.BasicBlock, instr *ssa.If) {
	cond, check := l.condition(instr.Cond, false)
	l.b.If(blk, cond, l.edge(bb, 0), l.edge(bb, 1))
	if check != nil {
		check.Block, check.Cond = blk, cond
		l.fn.nilChecks = append(l.fn.nilChecks, *check)
	}
}

// condition re-evaluates comparisons at the branch, so that the analysis
// can refine the compared values along each edge.
func (l *lowering) condition(v ssa.Value, negated bool) (*ir.Operation, *NilCheck) {
	switch v := v.(type) {
	case *ssa.UnOp:
		if v.Op == token.NOT {
			x, check := l.condition(v.X, !negated)
			return l.b.Not(x), check
		}
	case *ssa.BinOp:
		if v.Op != token.EQL && v.Op != token.NEQ {
			break
		}
		x, y := l.read(v.X), l.read(v.Y)
		op := l.b.Equal(x, y)
		if v.Op == token.NEQ {
			op = l.b.NotEqual(x, y)
		}
		var check *NilCheck
		if (isNil(v.X) || isNil(v.Y)) && v.Pos().IsValid() {
			check = &NilCheck{Pos: v.Pos(), Op: v.Op, Negated: negated}
		}
		return op, check
	}
	return l.read(v), nil
}

// edge returns the block control enters when leaving from along its
// succ'th successor. Edges into blocks with phis get a block of their own
// holding the phi assignments.
func (l *lowering) edge(from *ssa.BasicBlock, succ int) *ir.Block {
	to := from.Succs[succ]
	var phis []*ssa.Phi
	for _, instr := range to.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		if pointsto.PointerLike(phi.Type()) {
			phis = append(phis, phi)
		}
	}
	if len(phis) == 0 {
		return l.blocks[to.Index]
	}

	i := predIndex(from, succ)
	b := l.b
	e := b.NewBlock()
	b.SetPos(token.NoPos)
	if len(phis) == 1 {
		b.Emit(e, b.Assign(b.Local(phis[0]), l.read(phis[0].Edges[i])))
	} else {
		// Phis are assigned in parallel.
		first := l.captures
		for _, phi := range phis {
			b.Emit(e, b.Capture(l.captures, l.read(phi.Edges[i]), false))
			l.captures++
		}
		for j, phi := range phis {
			b.Emit(e, b.Assign(b.Local(phi), b.CaptureRef(first+j, phi.Type(), false)))
		}
	}
	b.Jump(e, l.blocks[to.Index])
	return e
}

// predIndex returns the index of the succ'th successor edge of from among
// the predecessors of its target.
func predIndex(from *ssa.BasicBlock, succ int) int {
	to := from.Succs[succ]
	nth := 0
	for _, s := range from.Succs[:succ] {
		if s == to {
			nth++
		}
	}
	for i, p := range to.Preds {
		if p == from {
			if nth == 0 {
				return i
			}
			nth--
		}
	}
	log.Panicf("%s is not a predecessor of %s", from, to)
	return -1
}

// zeroFields records that the pointer-like fields of a fresh allocation are
// nil. Only allocations whose fields are accessed directly are considered:
// writes through other aliases of a field would go unnoticed.
func (l *lowering) zeroFields(blk *ir.Block, alloc *ssa.Alloc) {
	if !fresh(alloc) {
		return
	}
	b := l.b
	t := elem(alloc.Type())
	if s, ok := t.Underlying().(*types.Struct); ok {
		for f := range s.Fields() {
			if pointsto.PointerLike(f.Type()) {
				b.Emit(blk, b.Assign(b.Field(b.Local(alloc), f), b.Null(f.Type())))
			}
		}
	} else if pointsto.PointerLike(t) {
		b.Emit(blk, b.Assign(b.Field(b.Local(alloc), l.prog.derefSymbol(t)), b.Null(t)))
	}
}

func fresh(alloc *ssa.Alloc) bool {
	refs := alloc.Referrers()
	if refs == nil {
		return true
	}
	for _, r := range *refs {
		switch r := r.(type) {
		case *ssa.DebugRef:
		case *ssa.FieldAddr:
			if !addressOnly(r) {
				return false
			}
		case *ssa.UnOp:
			if r.Op != token.MUL {
				return false
			}
		case *ssa.Store:
			if r.Val == alloc || aggregate(r.Val.Type()) {
				return false
			}
		case ssa.CallInstruction:
			// Callees are analysed or treated as opaque.
		default:
			return false
		}
	}
	return true
}

// addressOnly reports whether v is only used to load from and store to the
// memory it points to.
func addressOnly(v ssa.Value) bool {
	refs := v.Referrers()
	if refs == nil {
		return true
	}
	for _, r := range *refs {
		switch r := r.(type) {
		case *ssa.DebugRef:
		case *ssa.UnOp:
			if r.Op != token.MUL {
				return false
			}
		case *ssa.Store:
			if r.Val == v || aggregate(r.Val.Type()) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isAddress(v ssa.Value) bool {
	switch v.(type) {
	case *ssa.FieldAddr, *ssa.IndexAddr:
		return true
	}
	return false
}

func isNil(v ssa.Value) bool {
	c, ok := v.(*ssa.Const)
	return ok && c.IsNil()
}

func aggregate(t types.Type) bool {
	switch t.Underlying().(type) {
	case *types.Struct, *types.Array:
		return true
	}
	return false
}

// elem is the type pointed to by pointer type t.
func elem(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return types.Typ[types.Invalid]
}

// fieldOf returns field i of the struct ptr points to.
func fieldOf(ptr types.Type, i int) *types.Var {
	if s, ok := elem(ptr).Underlying().(*types.Struct); ok {
		return s.Field(i)
	}
	return nil
}
