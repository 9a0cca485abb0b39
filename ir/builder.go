package ir

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
)

// Builder constructs a [Graph]. The entry block exists from the start; the
// exit block is appended by [Builder.Finish].
type Builder struct {
	g      *Graph
	entry  *Block
	exit   *Block
	blocks []*Block
	pos    token.Pos
}

// NewBuilder starts the body of fn.
func NewBuilder(fn *Function) *Builder {
	g := &Graph{Owner: fn}
	b := &Builder{g: g}
	b.entry = &Block{Kind: BlockEntry, Graph: g}
	b.exit = &Block{Kind: BlockExit, Graph: g}
	b.blocks = []*Block{b.entry}
	return b
}

// Entry returns the entry block.
func (b *Builder) Entry() *Block { return b.entry }

// Exit returns the exit block.
func (b *Builder) Exit() *Block { return b.exit }

// NewBlock appends a regular block.
func (b *Builder) NewBlock() *Block {
	blk := &Block{Kind: BlockRegular, Graph: b.g}
	b.blocks = append(b.blocks, blk)
	return blk
}

// SetPos sets the position recorded on subsequently created operations.
func (b *Builder) SetPos(pos token.Pos) { b.pos = pos }

// Emit appends root operations to blk.
func (b *Builder) Emit(blk *Block, ops ...*Operation) {
	blk.Ops = append(blk.Ops, ops...)
}

func (b *Builder) connect(from, to *Block, kind BranchKind, cond ConditionKind) *Branch {
	br := &Branch{Source: from, Target: to, Kind: kind, Condition: cond}
	from.Succs = append(from.Succs, br)
	to.Preds = append(to.Preds, br)
	return br
}

// Jump adds an unconditional branch.
func (b *Builder) Jump(from, to *Block) *Branch {
	return b.connect(from, to, BranchRegular, CondNone)
}

// If ends from with a conditional branch on cond.
func (b *Builder) If(from *Block, cond *Operation, then, els *Block) {
	from.BranchValue = cond
	b.connect(from, then, BranchRegular, WhenTrue)
	b.connect(from, els, BranchRegular, WhenFalse)
}

// Return ends from with a return of values.
func (b *Builder) Return(from *Block, values ...*Operation) {
	from.Results = values
	b.connect(from, b.exit, BranchReturn, CondNone)
}

// Throw ends from by throwing value.
func (b *Builder) Throw(from *Block, value *Operation) {
	from.BranchValue = value
	b.connect(from, b.exit, BranchThrow, CondNone)
}

// Redirect moves an existing branch to a new target.
func (b *Builder) Redirect(br *Branch, to *Block) {
	old := br.Target
	for i, p := range old.Preds {
		if p == br {
			old.Preds = append(old.Preds[:i:i], old.Preds[i+1:]...)
			break
		}
	}
	br.Target = to
	to.Preds = append(to.Preds, br)
}

// Finish numbers the blocks and returns the graph. The graph is also
// installed as the body of its owner.
func (b *Builder) Finish() (*Graph, error) {
	if len(b.entry.Preds) != 0 {
		return nil, fmt.Errorf("ir: entry block of %s has predecessors", b.g.Owner)
	}
	b.g.Blocks = append(b.blocks, b.exit)
	for i, blk := range b.g.Blocks {
		blk.Index = i
	}
	for _, blk := range b.g.Blocks[:len(b.g.Blocks)-1] {
		if len(blk.Succs) == 0 && (blk == b.entry || len(blk.Preds) > 0) {
			return nil, fmt.Errorf("ir: %s of %s has no successors", blk, b.g.Owner)
		}
	}
	if fn := b.g.Owner; fn != nil {
		fn.body = b.g
	}
	return b.g, nil
}

// MustFinish is like Finish but panics on malformed graphs.
func (b *Builder) MustFinish() *Graph {
	g, err := b.Finish()
	if err != nil {
		panic(err)
	}
	return g
}

func (b *Builder) op(kind OpKind, typ types.Type) *Operation {
	op := &Operation{ID: b.g.nextID, Kind: kind, Type: typ, Pos: b.pos}
	b.g.nextID++
	return op
}

// Null is the null literal of type typ.
func (b *Builder) Null(typ types.Type) *Operation {
	op := b.op(OpLiteral, typ)
	op.Null = true
	return op
}

// Const is a non-null constant.
func (b *Builder) Const(val constant.Value, typ types.Type) *Operation {
	op := b.op(OpLiteral, typ)
	op.Const = val
	return op
}

// Bool is a boolean constant.
func (b *Builder) Bool(v bool) *Operation {
	return b.Const(constant.MakeBool(v), types.Typ[types.Bool])
}

// Default is the zero value of typ.
func (b *Builder) Default(typ types.Type) *Operation { return b.op(OpDefaultValue, typ) }

// Local references a local variable.
func (b *Builder) Local(sym Symbol) *Operation {
	op := b.op(OpLocalRef, sym.Type())
	op.Symbol = sym
	return op
}

// Param references a parameter.
func (b *Builder) Param(sym Symbol) *Operation {
	op := b.op(OpParamRef, sym.Type())
	op.Symbol = sym
	return op
}

// This references the receiver of the function being built.
func (b *Builder) This(typ types.Type) *Operation { return b.op(OpInstance, typ) }

// ImplicitInstance references the object under construction in an
// initializer.
func (b *Builder) ImplicitInstance(typ types.Type) *Operation {
	op := b.op(OpInstance, typ)
	op.Implicit = true
	return op
}

// Field references field sym of instance (nil for static fields).
func (b *Builder) Field(instance *Operation, sym Symbol) *Operation {
	op := b.op(OpFieldRef, sym.Type())
	op.Instance, op.Symbol = instance, sym
	return op
}

// Property references property sym of instance.
func (b *Builder) Property(instance *Operation, sym Symbol) *Operation {
	op := b.Field(instance, sym)
	op.Kind = OpPropertyRef
	return op
}

// Element references array element index of instance.
func (b *Builder) Element(instance, index *Operation, typ types.Type) *Operation {
	op := b.op(OpElementRef, typ)
	op.Instance = instance
	op.Operands = []*Operation{index}
	return op
}

// MethodRef is a method value of instance.
func (b *Builder) MethodRef(instance *Operation, callee *Function, typ types.Type) *Operation {
	op := b.op(OpMethodRef, typ)
	op.Instance, op.Callee = instance, callee
	return op
}

// AddressOf takes the address of sym, or of field sym within instance.
func (b *Builder) AddressOf(instance *Operation, sym Symbol, typ types.Type) *Operation {
	op := b.op(OpAddressOf, typ)
	op.Instance, op.Symbol = instance, sym
	return op
}

// New allocates an object of type typ.
func (b *Builder) New(typ types.Type, args ...*Operation) *Operation {
	op := b.op(OpObjectCreation, typ)
	op.Operands = args
	return op
}

// Creation allocates with an explicit creation kind.
func (b *Builder) Creation(kind OpKind, typ types.Type, args ...*Operation) *Operation {
	op := b.op(kind, typ)
	op.Operands = args
	return op
}

// Initialize attaches initializer operations to a creation.
func (b *Builder) Initialize(creation *Operation, inits ...*Operation) *Operation {
	creation.Initializers = append(creation.Initializers, inits...)
	return creation
}

// Delegate creates a closure over callee with the given captured bindings.
func (b *Builder) Delegate(callee *Function, typ types.Type, bindings ...*Operation) *Operation {
	op := b.op(OpDelegateCreation, typ)
	op.Callee = callee
	op.Operands = bindings
	return op
}

// Convert converts x to typ. tryCast marks conversions that yield null
// instead of failing.
func (b *Builder) Convert(x *Operation, typ types.Type, tryCast bool) *Operation {
	op := b.op(OpConversion, typ)
	op.Operands = []*Operation{x}
	op.TryCast = tryCast
	return op
}

// Call invokes callee on receiver (may be nil) with by-value arguments.
func (b *Builder) Call(callee *Function, receiver *Operation, typ types.Type, args ...*Operation) *Operation {
	op := b.op(OpInvocation, typ)
	op.Callee, op.Instance = callee, receiver
	for i, a := range args {
		arg := &Argument{Value: a}
		if callee != nil && i < len(callee.Params) {
			arg.Parameter = callee.Params[i]
		}
		op.Args = append(op.Args, arg)
	}
	return op
}

// CallArgs invokes callee with explicit arguments.
func (b *Builder) CallArgs(callee *Function, receiver *Operation, typ types.Type, args ...*Argument) *Operation {
	op := b.op(OpInvocation, typ)
	op.Callee, op.Instance, op.Args = callee, receiver, args
	return op
}

// DynamicCall is a late-bound invocation.
func (b *Builder) DynamicCall(receiver *Operation, typ types.Type, args ...*Operation) *Operation {
	op := b.Call(nil, receiver, typ, args...)
	op.Kind = OpDynamicInvocation
	return op
}

// Capture binds x to flow capture id.
func (b *Builder) Capture(id int, x *Operation, lvalue bool) *Operation {
	op := b.op(OpFlowCapture, x.Type)
	op.CaptureID, op.LValue = id, lvalue
	op.Operands = []*Operation{x}
	return op
}

// CaptureRef reads flow capture id.
func (b *Builder) CaptureRef(id int, typ types.Type, lvalue bool) *Operation {
	op := b.op(OpFlowCaptureRef, typ)
	op.CaptureID, op.LValue = id, lvalue
	return op
}

// Assign assigns value to target.
func (b *Builder) Assign(target, value *Operation) *Operation {
	op := b.op(OpAssignment, target.Type)
	op.Operands = []*Operation{target, value}
	return op
}

// CompoundAssign is target op= value.
func (b *Builder) CompoundAssign(target, value *Operation) *Operation {
	op := b.Assign(target, value)
	op.Kind = OpCompoundAssignment
	return op
}

// Equal compares x and y for equality.
func (b *Builder) Equal(x, y *Operation) *Operation { return b.binary(Equals, x, y) }

// NotEqual compares x and y for inequality.
func (b *Builder) NotEqual(x, y *Operation) *Operation { return b.binary(NotEquals, x, y) }

// Binary applies an opaque binary operator.
func (b *Builder) Binary(x, y *Operation, typ types.Type) *Operation {
	op := b.binary(BinaryOther, x, y)
	op.Type = typ
	return op
}

func (b *Builder) binary(kind BinaryOp, x, y *Operation) *Operation {
	op := b.op(OpBinary, types.Typ[types.Bool])
	op.Binary = kind
	op.Operands = []*Operation{x, y}
	return op
}

// Not negates a boolean.
func (b *Builder) Not(x *Operation) *Operation {
	op := b.op(OpUnary, types.Typ[types.Bool])
	op.Unary = Not
	op.Operands = []*Operation{x}
	return op
}

// IsNull tests x against null.
func (b *Builder) IsNull(x *Operation) *Operation {
	op := b.op(OpIsNull, types.Typ[types.Bool])
	op.Operands = []*Operation{x}
	return op
}

// Extract reads element index of the tuple produced by tuple.
func (b *Builder) Extract(tuple *Operation, index int, typ types.Type) *Operation {
	op := b.op(OpExtract, typ)
	op.Operands = []*Operation{tuple}
	op.Index = index
	return op
}

// Other is an operation the analysis has no rule for.
func (b *Builder) Other(typ types.Type, operands ...*Operation) *Operation {
	op := b.op(OpOther, typ)
	op.Operands = operands
	return op
}
