// Package ir defines the control-flow graph and operation model consumed by
// the points-to analysis.
//
// A [Graph] is a list of basic blocks. Each [Block] holds an ordered list of
// root operations, an optional branch value (the condition evaluated when
// leaving the block, or the value thrown) and the outgoing [Branch] edges.
// Operations form expression trees: an [Operation] is a tagged union keyed by
// its [OpKind], and only the fields relevant to that kind are populated.
package ir

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"strings"
	"sync"
)

// Symbol is a named storage location: a local, parameter, field or global.
// Both *types.Var and ssa.Value satisfy it. Implementations must be
// comparable, as symbols are used as map keys.
type Symbol interface {
	Name() string
	Type() types.Type
}

//go:generate go tool stringer -type OpKind,BranchKind,ConditionKind,RefKind,BinaryOp,UnaryOp,BlockKind -output kind_string.go

// OpKind discriminates the operation variants.
type OpKind uint8

const (
	OpInvalid OpKind = iota
	// Constants. Null is set for the null literal.
	OpLiteral
	// Zero value of Type.
	OpDefaultValue
	// Reference to the local Symbol.
	OpLocalRef
	// Reference to the parameter Symbol.
	OpParamRef
	// The receiver of the enclosing function (`this`), or the object under
	// construction when Implicit is set.
	OpInstance
	// Field Symbol of Instance. Instance is nil for static fields.
	OpFieldRef
	// Property Symbol of Instance.
	OpPropertyRef
	// Event Symbol of Instance.
	OpEventRef
	// Element Operands[0] of the array Instance.
	OpElementRef
	// Method Callee bound to Instance.
	OpMethodRef
	// Address of Symbol, or of field Symbol within Instance.
	OpAddressOf
	// Allocations. Operands are constructor arguments, Initializers run after
	// the object exists.
	OpObjectCreation
	OpArrayCreation
	OpAnonymousObjectCreation
	OpTypeParameterObjectCreation
	// Closure over Callee; Operands are the captured bindings.
	OpDelegateCreation
	// Conversion of Operands[0] to Type.
	OpConversion
	// Call of Callee with receiver Instance and Args.
	OpInvocation
	// Late-bound call; never analysed interprocedurally.
	OpDynamicInvocation
	// Binds Operands[0] to flow capture CaptureID.
	OpFlowCapture
	// Reads flow capture CaptureID.
	OpFlowCaptureRef
	// Operands[0] = Operands[1].
	OpAssignment
	// Operands[0] op= Operands[1].
	OpCompoundAssignment
	// Binary operator Binary over Operands[0] and Operands[1].
	OpBinary
	// Unary operator Unary over Operands[0].
	OpUnary
	// Operands[0] is null.
	OpIsNull
	// Element Index of the tuple produced by Operands[0]. The tuple operation
	// is evaluated where it appears in its block, not by the extraction.
	OpExtract
	// Any other operation. Operands are evaluated for their effects.
	OpOther
)

// BinaryOp is the operator of an OpBinary operation.
type BinaryOp uint8

const (
	BinaryOther BinaryOp = iota
	Equals
	NotEquals
)

// UnaryOp is the operator of an OpUnary operation.
type UnaryOp uint8

const (
	UnaryOther UnaryOp = iota
	Not
)

// RefKind says how an argument is passed.
type RefKind uint8

const (
	ByValue RefKind = iota
	ByRef
	ByOut
)

// Argument is an argument of an invocation.
type Argument struct {
	Value     *Operation
	RefKind   RefKind
	Parameter Symbol
}

// Operation is a node of an operation tree.
type Operation struct {
	// ID is unique within the owning graph.
	ID   int
	Kind OpKind
	Type types.Type
	Pos  token.Pos

	Symbol       Symbol
	Instance     *Operation
	Operands     []*Operation
	Initializers []*Operation
	Args         []*Argument
	// Bindings are the values of Callee.FreeVars at an invocation.
	Bindings []*Operation
	Callee   *Function

	Const constant.Value
	Null  bool

	CaptureID int
	LValue    bool

	Binary   BinaryOp
	Unary    UnaryOp
	TryCast  bool
	Index    int
	Implicit bool
}

// Target returns the assigned operation of an assignment.
func (op *Operation) Target() *Operation { return op.Operands[0] }

// Value returns the assigned value of an assignment.
func (op *Operation) Value() *Operation { return op.Operands[1] }

// Operand returns the single operand of unary-shaped operations.
func (op *Operation) Operand() *Operation { return op.Operands[0] }

// Children returns the direct sub-operations in evaluation order.
func (op *Operation) Children() []*Operation {
	var ch []*Operation
	if op.Instance != nil {
		ch = append(ch, op.Instance)
	}
	if op.Kind != OpExtract {
		ch = append(ch, op.Operands...)
	}
	for _, arg := range op.Args {
		ch = append(ch, arg.Value)
	}
	ch = append(ch, op.Bindings...)
	return append(ch, op.Initializers...)
}

func (op *Operation) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s#%d", op.Kind, op.ID)
	switch {
	case op.Symbol != nil:
		fmt.Fprintf(&sb, "(%s)", op.Symbol.Name())
	case op.Callee != nil:
		fmt.Fprintf(&sb, "(%s)", op.Callee.Name)
	case op.Null:
		sb.WriteString("(null)")
	case op.Kind == OpFlowCapture || op.Kind == OpFlowCaptureRef:
		fmt.Fprintf(&sb, "(capture %d)", op.CaptureID)
	}
	return sb.String()
}

// BlockKind distinguishes the synthetic entry and exit blocks.
type BlockKind uint8

const (
	BlockRegular BlockKind = iota
	BlockEntry
	BlockExit
)

// BranchKind is the control transfer semantics of a branch.
type BranchKind uint8

const (
	BranchRegular BranchKind = iota
	BranchReturn
	BranchThrow
	BranchException
	BranchFinally
)

// ConditionKind says when a conditional branch is taken.
type ConditionKind uint8

const (
	CondNone ConditionKind = iota
	WhenTrue
	WhenFalse
)

// Negate swaps WhenTrue and WhenFalse.
func (c ConditionKind) Negate() ConditionKind {
	switch c {
	case WhenTrue:
		return WhenFalse
	case WhenFalse:
		return WhenTrue
	default:
		return c
	}
}

// Branch is a control-flow edge.
type Branch struct {
	Source    *Block
	Target    *Block
	Kind      BranchKind
	Condition ConditionKind
}

func (br *Branch) String() string {
	s := fmt.Sprintf("b%d -> b%d", br.Source.Index, br.Target.Index)
	if br.Kind != BranchRegular {
		s += " " + br.Kind.String()
	}
	if br.Condition != CondNone {
		s += " " + br.Condition.String()
	}
	return s
}

// Block is a basic block.
type Block struct {
	Index int
	Kind  BlockKind
	Graph *Graph

	Ops []*Operation
	// BranchValue is the condition of conditional successors, or the thrown
	// value of a throw branch.
	BranchValue *Operation
	// Results are the values returned by a return branch.
	Results []*Operation

	Succs []*Branch
	Preds []*Branch
}

func (b *Block) String() string { return fmt.Sprintf("b%d", b.Index) }

// Graph is the control-flow graph of one function body.
type Graph struct {
	Owner  *Function
	Blocks []*Block

	nextID int
}

// Entry returns the entry block.
func (g *Graph) Entry() *Block { return g.Blocks[0] }

// Exit returns the exit block.
func (g *Graph) Exit() *Block { return g.Blocks[len(g.Blocks)-1] }

// NumOperations is an upper bound on operation IDs in g.
func (g *Graph) NumOperations() int { return g.nextID }

// Function is an analysable (or opaque) function.
type Function struct {
	Name     string
	Params   []Symbol
	FreeVars []Symbol
	// Receiver is set when the body refers to its receiver through OpInstance.
	Receiver types.Type
	// Parent is the enclosing function of lambdas and local functions.
	Parent *Function
	// Source is the front-end object the function was built from.
	Source any

	once  sync.Once
	body  *Graph
	lower func(*Function) *Graph
}

// NewFunction returns a function whose body is produced by lower on first use.
// A nil lower makes the function opaque.
func NewFunction(name string, params []Symbol, lower func(*Function) *Graph) *Function {
	return &Function{Name: name, Params: params, lower: lower}
}

// IsClosure reports whether fn is a lambda or local function.
func (fn *Function) IsClosure() bool { return fn.Parent != nil }

// Body returns the graph of fn, or nil if fn is opaque.
func (fn *Function) Body() *Graph {
	fn.once.Do(func() {
		if fn.body == nil && fn.lower != nil {
			fn.body = fn.lower(fn)
		}
	})
	return fn.body
}

func (fn *Function) String() string { return fn.Name }
