package ir_test

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/BarrensZeppelin/pointsto/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tPtr = types.NewPointer(types.Typ[types.Int])

func TestFinish(t *testing.T) {
	fn := ir.NewFunction("f", nil, nil)
	b := ir.NewBuilder(fn)
	then, els := b.NewBlock(), b.NewBlock()
	b.If(b.Entry(), b.Bool(true), then, els)
	b.Return(then)
	b.Jump(els, then)
	g, err := b.Finish()
	require.NoError(t, err)

	require.Len(t, g.Blocks, 4)
	assert.Same(t, b.Entry(), g.Entry())
	assert.Same(t, b.Exit(), g.Exit())
	assert.Equal(t, ir.BlockExit, g.Exit().Kind)
	for i, blk := range g.Blocks {
		assert.Equal(t, i, blk.Index)
	}
	assert.Same(t, g, fn.Body())
	assert.Len(t, then.Preds, 2)
	assert.Equal(t, "b0 -> b1 WhenTrue", b.Entry().Succs[0].String())
	assert.Equal(t, "b1 -> b3 BranchReturn", then.Succs[0].String())
}

func TestFinishRejectsDanglingBlocks(t *testing.T) {
	b := ir.NewBuilder(ir.NewFunction("f", nil, nil))
	blk := b.NewBlock()
	b.Jump(b.Entry(), blk)
	_, err := b.Finish()
	assert.ErrorContains(t, err, "has no successors")

	// Blocks nobody jumps to are allowed to be empty.
	b = ir.NewBuilder(ir.NewFunction("g", nil, nil))
	b.NewBlock()
	b.Return(b.Entry())
	_, err = b.Finish()
	assert.NoError(t, err)
}

func TestRedirect(t *testing.T) {
	b := ir.NewBuilder(ir.NewFunction("f", nil, nil))
	first, second := b.NewBlock(), b.NewBlock()
	br := b.Jump(b.Entry(), first)
	b.Redirect(br, second)
	b.Return(second)
	b.Return(first)

	assert.Empty(t, first.Preds)
	assert.Equal(t, []*ir.Branch{br}, second.Preds)
	assert.Same(t, second, br.Target)
}

func TestOperationChildren(t *testing.T) {
	x := types.NewVar(token.NoPos, nil, "x", tPtr)
	f := types.NewVar(token.NoPos, nil, "f", tPtr)
	b := ir.NewBuilder(ir.NewFunction("f", nil, nil))

	inst, val := b.Local(x), b.Null(tPtr)
	field := b.Field(inst, f)
	assign := b.Assign(field, val)
	assert.Equal(t, []*ir.Operation{field, val}, assign.Children())
	assert.Same(t, field, assign.Target())
	assert.Same(t, val, assign.Value())
	assert.Equal(t, []*ir.Operation{inst}, field.Children())

	call := b.Call(nil, nil, nil, b.Local(x))
	tuple := b.Extract(call, 1, tPtr)
	assert.Empty(t, tuple.Children(), "the tuple is evaluated where it appears")

	init := b.Assign(b.ImplicitInstance(tPtr), val)
	creation := b.Initialize(b.New(tPtr, inst), init)
	assert.Equal(t, []*ir.Operation{inst, init}, creation.Children())
}

func TestOperationString(t *testing.T) {
	x := types.NewVar(token.NoPos, nil, "x", tPtr)
	b := ir.NewBuilder(ir.NewFunction("f", nil, nil))
	assert.Equal(t, "OpLocalRef#0(x)", b.Local(x).String())
	assert.Equal(t, "OpLiteral#1(null)", b.Null(tPtr).String())
	assert.Equal(t, "OpFlowCaptureRef#2(capture 4)", b.CaptureRef(4, tPtr, false).String())
	assert.Equal(t, "OpObjectCreation#3", b.New(tPtr).String())
}

func TestLazyBody(t *testing.T) {
	calls := 0
	fn := ir.NewFunction("lazy", nil, func(fn *ir.Function) *ir.Graph {
		calls++
		b := ir.NewBuilder(fn)
		b.Return(b.Entry())
		return b.MustFinish()
	})
	g := fn.Body()
	require.NotNil(t, g)
	assert.Same(t, g, fn.Body())
	assert.Equal(t, 1, calls)

	assert.Nil(t, ir.NewFunction("opaque", nil, nil).Body())
}
