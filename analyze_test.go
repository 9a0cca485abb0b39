package pointsto_test

import (
	"context"
	"errors"
	"go/constant"
	"go/token"
	"go/types"
	"testing"

	"github.com/BarrensZeppelin/pointsto"
	"github.com/BarrensZeppelin/pointsto/ir"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.WarnLevel)
}

var (
	tObj   = types.NewNamed(types.NewTypeName(token.NoPos, nil, "T", nil), types.NewStruct(nil, nil), nil)
	tOther = types.NewNamed(types.NewTypeName(token.NoPos, nil, "U", nil), types.Typ[types.Int], nil)
	tPtr   = types.NewPointer(tObj)
	tInt   = types.Typ[types.Int]
	tBool  = types.Typ[types.Bool]
	tAny   = types.NewInterfaceType(nil, nil)
)

func newVar(name string, t types.Type) *types.Var {
	return types.NewVar(token.NoPos, nil, name, t)
}

func intConst(b *ir.Builder, i int64) *ir.Operation {
	return b.Const(constant.MakeInt64(i), tInt)
}

func analyze(t *testing.T, g *ir.Graph, cfg pointsto.AnalysisConfig) *pointsto.Result {
	t.Helper()
	res, err := pointsto.GetOrComputeResult(context.Background(), g, cfg)
	require.NoError(t, err)
	return res
}

func TestNullDereference(t *testing.T) {
	x, f := newVar("x", tPtr), newVar("f", tPtr)
	b := ir.NewBuilder(ir.NewFunction("deref", nil, nil))
	read := b.Local(x)
	field := b.Field(b.Local(x), f)
	b.Emit(b.Entry(),
		b.Assign(b.Local(x), b.Null(tPtr)),
		read,
		field,
	)
	b.Return(b.Entry())
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Same(t, pointsto.NullLocationValue, res.Value(read))
	assert.Equal(t, pointsto.Null, res.Value(field).NullState())
}

func TestAllocationCheckedAgainstNil(t *testing.T) {
	x := newVar("x", tPtr)
	b := ir.NewBuilder(ir.NewFunction("alloc", nil, nil))
	then, els := b.NewBlock(), b.NewBlock()
	alloc := b.New(tPtr)
	cond := b.Equal(b.Local(x), b.Null(tPtr))
	b.Emit(b.Entry(), b.Assign(b.Local(x), alloc))
	b.If(b.Entry(), cond, then, els)
	inThen, inElse := b.Local(x), b.Local(x)
	b.Return(then, inThen)
	b.Return(els, inElse)
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Equal(t, pointsto.AlwaysFalse, res.PredicateKind(cond))
	assert.False(t, res.IsReachable(then))
	assert.True(t, res.IsReachable(els))
	assert.Same(t, pointsto.InvalidValue, res.Value(inThen))

	v := res.Value(inElse)
	assert.Equal(t, pointsto.NotNull, v.NullState())
	require.Len(t, v.Locations(), 1)
	assert.Equal(t, pointsto.LocationAllocation, v.Locations()[0].Kind())
	assert.Same(t, alloc, v.Locations()[0].Site())
	assert.True(t, res.ReturnValue().Equal(v), "only the reachable return contributes")
}

func TestDeadBranch(t *testing.T) {
	x := newVar("x", tPtr)
	b := ir.NewBuilder(ir.NewFunction("dead", nil, nil))
	then, els := b.NewBlock(), b.NewBlock()
	cond := b.NotEqual(b.Local(x), b.Null(tPtr))
	b.Emit(b.Entry(), b.Assign(b.Local(x), b.Null(tPtr)))
	b.If(b.Entry(), cond, then, els)
	inThen, inElse := b.Local(x), b.Local(x)
	b.Emit(then, inThen)
	b.Jump(then, els)
	b.Return(els, inElse)
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Equal(t, pointsto.AlwaysFalse, res.PredicateKind(cond))
	assert.False(t, res.IsReachable(then))
	assert.Same(t, pointsto.InvalidValue, res.Value(inThen))
	// The infeasible edge out of the dead block does not pollute the join.
	assert.True(t, res.IsReachable(els))
	assert.Same(t, pointsto.NullLocationValue, res.Value(inElse))
}

func TestNilCheckNarrowsParameter(t *testing.T) {
	p, y := newVar("p", tPtr), newVar("y", tPtr)
	fn := ir.NewFunction("narrow", []ir.Symbol{p}, nil)
	b := ir.NewBuilder(fn)
	then, again, els := b.NewBlock(), b.NewBlock(), b.NewBlock()
	cond := b.NotEqual(b.Param(p), b.Null(tPtr))
	b.If(b.Entry(), cond, then, els)

	b.Emit(then, b.Assign(b.Local(y), b.Param(p)))
	redundant := b.NotEqual(b.Param(p), b.Null(tPtr))
	b.If(then, redundant, again, els)

	inAgain, readY := b.Param(p), b.Local(y)
	b.Emit(again, inAgain, readY)
	b.Jump(again, els)

	inElse := b.Param(p)
	b.Return(els, inElse)
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Equal(t, pointsto.PredicateUnknown, res.PredicateKind(cond))
	assert.Equal(t, pointsto.AlwaysTrue, res.PredicateKind(redundant))

	v := res.Value(readY)
	assert.Equal(t, pointsto.NotNull, v.NullState())
	require.Len(t, v.Locations(), 1)
	assert.Equal(t, pointsto.LocationDefault, v.Locations()[0].Kind())
	// Narrowing an already narrowed value changes nothing.
	assert.True(t, res.Value(inAgain).Equal(v))

	assert.Equal(t, pointsto.MaybeNull, res.Value(inElse).NullState())
	assert.Equal(t, v.Locations(), res.Value(inElse).Locations())
}

func TestIsNullNarrowsBothBranches(t *testing.T) {
	p := newVar("p", tPtr)
	b := ir.NewBuilder(ir.NewFunction("isnull", []ir.Symbol{p}, nil))
	then, els := b.NewBlock(), b.NewBlock()
	b.If(b.Entry(), b.Not(b.IsNull(b.Param(p))), then, els)
	inThen, inElse := b.Param(p), b.Param(p)
	b.Return(then, inThen)
	b.Return(els, inElse)
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Equal(t, pointsto.NotNull, res.Value(inThen).NullState())
	assert.Equal(t, pointsto.Null, res.Value(inElse).NullState())
	assert.Equal(t, pointsto.MaybeNull, res.ReturnValue().NullState())
}

func TestLoopConverges(t *testing.T) {
	arr, i := newVar("arr", types.NewSlice(tPtr)), newVar("i", tInt)
	b := ir.NewBuilder(ir.NewFunction("loop", nil, nil))
	header, body, after := b.NewBlock(), b.NewBlock(), b.NewBlock()

	creation := b.Creation(ir.OpArrayCreation, arr.Type())
	b.Emit(b.Entry(), b.Assign(b.Local(arr), creation))
	b.Jump(b.Entry(), header)
	b.If(header, b.Other(tBool, b.Local(i)), body, after)

	alloc := b.New(tPtr)
	b.Emit(body,
		b.Assign(b.Element(b.Local(arr), intConst(b, 0), tPtr), alloc),
		b.CompoundAssign(b.Local(i), intConst(b, 1)),
	)
	b.Jump(body, header)
	b.Return(after, b.Element(b.Local(arr), intConst(b, 0), tPtr))
	g := b.MustFinish()

	cfg := pointsto.AnalysisConfig{Cache: pointsto.NewCache()}
	res := analyze(t, g, cfg)
	assert.True(t, res.IsReachable(after))
	assert.Less(t, res.Iterations, 3*len(g.Blocks))

	// One location per allocation site, however often the loop body runs.
	require.Len(t, res.Value(alloc).Locations(), 1)
	site := res.Value(alloc).Locations()[0]
	elem, ok := cfg.Cache.Entities().Element(res.Value(creation), 0, tPtr)
	require.True(t, ok)
	v := res.EntityValue(header, elem)
	assert.Equal(t, pointsto.MaybeNull, v.NullState())
	assert.Len(t, v.Locations(), 2)
	assert.True(t, v.Contains(site))
}

func TestIterationLimit(t *testing.T) {
	x := newVar("x", tPtr)
	b := ir.NewBuilder(ir.NewFunction("limit", nil, nil))
	header, body, after := b.NewBlock(), b.NewBlock(), b.NewBlock()
	b.Jump(b.Entry(), header)
	b.If(header, b.Other(tBool), body, after)
	b.Emit(body, b.Assign(b.Local(x), b.New(tPtr)))
	b.Jump(body, header)
	b.Return(after)
	g := b.MustFinish()

	_, err := pointsto.GetOrComputeResult(context.Background(), g, pointsto.AnalysisConfig{MaxIterations: 1})
	assert.ErrorIs(t, err, pointsto.ErrIterationLimit)
}

func TestWideningAtLoopHeader(t *testing.T) {
	x := newVar("x", tPtr)
	b := ir.NewBuilder(ir.NewFunction("widen", nil, nil))
	header, body, after := b.NewBlock(), b.NewBlock(), b.NewBlock()
	b.Jump(b.Entry(), header)
	b.If(header, b.Other(tBool), body, after)
	b.Emit(body, b.Assign(b.Local(x), b.New(tPtr)))
	b.Jump(body, header)
	read := b.Local(x)
	b.Return(after, read)
	g := b.MustFinish()

	// The default location of x and the allocation.
	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Equal(t, pointsto.KindKnownLocations, res.Value(read).Kind())
	assert.Len(t, res.Value(read).Locations(), 2)

	res = analyze(t, g, pointsto.AnalysisConfig{MaxLocations: 1})
	assert.Same(t, pointsto.UnknownValue, res.Value(read))
}

func TestLValueCaptureIsBoundOnce(t *testing.T) {
	x, y := newVar("x", tPtr), newVar("y", tPtr)
	b := ir.NewBuilder(ir.NewFunction("capture", nil, nil))
	readX, readY := b.Local(x), b.Local(y)
	b.Emit(b.Entry(),
		b.Capture(0, b.Local(x), true),
		b.Assign(b.CaptureRef(0, tPtr, true), b.New(tPtr)),
		b.Capture(0, b.Local(y), true),
		b.Assign(b.CaptureRef(0, tPtr, true), b.Null(tPtr)),
		readX,
		readY,
	)
	b.Return(b.Entry())
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Same(t, pointsto.NullLocationValue, res.Value(readX))

	v := res.Value(readY)
	assert.Equal(t, pointsto.MaybeNull, v.NullState())
	require.Len(t, v.Locations(), 1)
	assert.Equal(t, pointsto.LocationDefault, v.Locations()[0].Kind())
}

func TestRValueCapture(t *testing.T) {
	p := newVar("p", tPtr)
	b := ir.NewBuilder(ir.NewFunction("rvalue", []ir.Symbol{p}, nil))
	then, els := b.NewBlock(), b.NewBlock()
	b.Emit(b.Entry(), b.Capture(1, b.Param(p), false))
	b.If(b.Entry(), b.IsNull(b.CaptureRef(1, tPtr, false)), then, els)
	inThen, inElse := b.CaptureRef(1, tPtr, false), b.CaptureRef(1, tPtr, false)
	b.Return(then, inThen)
	b.Return(els, inElse)
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Equal(t, pointsto.Null, res.Value(inThen).NullState())
	assert.Equal(t, pointsto.NotNull, res.Value(inElse).NullState())
}

func TestFieldStoreAndLoad(t *testing.T) {
	x, y, f := newVar("x", tPtr), newVar("y", tPtr), newVar("f", tPtr)
	b := ir.NewBuilder(ir.NewFunction("fields", nil, nil))
	inner := b.New(tPtr)
	load := b.Field(b.Local(y), f)
	b.Emit(b.Entry(),
		b.Assign(b.Local(x), b.New(tPtr)),
		b.Assign(b.Field(b.Local(x), f), inner),
		b.Assign(b.Local(y), b.Local(x)),
		load,
	)
	b.Return(b.Entry())
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.True(t, res.Value(load).Equal(res.Value(inner)))
}

func TestStoreThroughAliasIsWeak(t *testing.T) {
	p, a, x, f := newVar("p", tPtr), newVar("a", tPtr), newVar("x", tPtr), newVar("f", tPtr)
	b := ir.NewBuilder(ir.NewFunction("alias", []ir.Symbol{p}, nil))
	then, els, join := b.NewBlock(), b.NewBlock(), b.NewBlock()
	first, second, inner := b.New(tPtr), b.New(tPtr), b.New(tPtr)
	b.Emit(b.Entry(),
		b.Assign(b.Local(a), first),
		b.Assign(b.Local(x), b.Local(a)),
		b.Assign(b.Field(b.Local(a), f), inner),
	)
	b.If(b.Entry(), b.IsNull(b.Param(p)), then, els)
	b.Emit(then, b.Assign(b.Local(x), second))
	b.Jump(then, join)
	b.Jump(els, join)

	// x points to first or second, so the store may or may not hit a.f.
	loadX, loadA := b.Field(b.Local(x), f), b.Field(b.Local(a), f)
	b.Emit(join,
		b.Assign(b.Field(b.Local(x), f), b.Null(tPtr)),
		loadX,
		loadA,
	)
	b.Return(join)
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{KeepMemberNullState: true})
	assert.Same(t, pointsto.NullLocationValue, res.Value(loadX))

	v := res.Value(loadA)
	assert.Equal(t, pointsto.MaybeNull, v.NullState())
	assert.True(t, v.Contains(pointsto.NullLocation))
	assert.True(t, v.Contains(res.Value(inner).Locations()[0]))
}

func TestConversions(t *testing.T) {
	p := newVar("p", tAny)
	b := ir.NewBuilder(ir.NewFunction("conv", []ir.Symbol{p}, nil))
	box := b.Convert(intConst(b, 1), tAny, false)
	assertion := b.Convert(b.Param(p), tPtr, true)
	identity := b.Convert(b.New(tPtr), tPtr, true)
	impossible := b.Convert(b.New(tPtr), types.NewPointer(tOther), true)
	unbox := b.Convert(b.Param(p), tInt, false)
	b.Emit(b.Entry(), box, assertion, identity, impossible, unbox)
	b.Return(b.Entry())
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})

	v := res.Value(box)
	assert.Equal(t, pointsto.NotNull, v.NullState())
	require.Len(t, v.Locations(), 1)
	assert.Same(t, box, v.Locations()[0].Site())

	assert.Equal(t, pointsto.MaybeNull, res.Value(assertion).NullState())
	assert.Equal(t, pointsto.PredicateUnknown, res.PredicateKind(assertion))

	assert.Equal(t, pointsto.NotNull, res.Value(identity).NullState())
	assert.Equal(t, pointsto.AlwaysTrue, res.PredicateKind(identity))

	assert.Same(t, pointsto.NullLocationValue, res.Value(impossible))
	assert.Equal(t, pointsto.AlwaysFalse, res.PredicateKind(impossible))

	assert.Same(t, pointsto.NoLocationValue, res.Value(unbox))
}

func TestUntrackedTypes(t *testing.T) {
	n := newVar("n", tInt)
	b := ir.NewBuilder(ir.NewFunction("ints", nil, nil))
	read := b.Local(n)
	b.Emit(b.Entry(), b.Assign(b.Local(n), intConst(b, 3)), read)
	b.Return(b.Entry(), read)
	g := b.MustFinish()

	cfg := pointsto.AnalysisConfig{Cache: pointsto.NewCache()}
	res := analyze(t, g, cfg)
	assert.Same(t, pointsto.NoLocationValue, res.Value(read))
	assert.Zero(t, res.BlockExit(b.Entry()).Len(), "untracked entities are not stored")
}

func TestCopyAnalysisRefinesCopies(t *testing.T) {
	p, x, y := newVar("p", tPtr), newVar("x", tPtr), newVar("y", tPtr)
	b := ir.NewBuilder(ir.NewFunction("copies", []ir.Symbol{p}, nil))
	then, els := b.NewBlock(), b.NewBlock()
	b.Emit(b.Entry(),
		b.Assign(b.Local(x), b.Param(p)),
		b.Assign(b.Local(y), b.Local(x)),
	)
	b.If(b.Entry(), b.Equal(b.Local(x), b.Null(tPtr)), then, els)
	b.Return(then)
	readY := b.Local(y)
	b.Return(els, readY)
	g := b.MustFinish()

	cfg := pointsto.AnalysisConfig{Cache: pointsto.NewCache()}
	res, copies, err := pointsto.GetOrComputeResultWithCopy(context.Background(), g, cfg)
	require.NoError(t, err)
	require.NotNil(t, copies)
	assert.Equal(t, pointsto.NotNull, res.Value(readY).NullState())

	ents := cfg.Cache.Entities()
	assert.ElementsMatch(t,
		[]*pointsto.Entity{ents.Parameter(p), ents.Local(y)},
		copies.Copies(b.Entry(), ents.Local(x)))

	plain := analyze(t, g, cfg)
	assert.NotSame(t, res, plain)
	assert.Nil(t, plain.Copy)
	assert.Equal(t, pointsto.MaybeNull, plain.Value(readY).NullState())
}

func TestCopiesDoNotSurviveReassignment(t *testing.T) {
	p, x, y := newVar("p", tPtr), newVar("x", tPtr), newVar("y", tPtr)
	b := ir.NewBuilder(ir.NewFunction("kill", []ir.Symbol{p}, nil))
	then, els := b.NewBlock(), b.NewBlock()
	b.Emit(b.Entry(),
		b.Assign(b.Local(x), b.Param(p)),
		b.Assign(b.Local(y), b.Local(x)),
		b.Assign(b.Local(y), b.New(tPtr)),
		b.Assign(b.Local(y), b.Null(tPtr)),
	)
	b.If(b.Entry(), b.IsNull(b.Local(x)), then, els)
	b.Return(then)
	readY := b.Local(y)
	b.Return(els, readY)
	g := b.MustFinish()

	cfg := pointsto.AnalysisConfig{Cache: pointsto.NewCache()}
	res, copies, err := pointsto.GetOrComputeResultWithCopy(context.Background(), g, cfg)
	require.NoError(t, err)
	assert.Same(t, pointsto.NullLocationValue, res.Value(readY))

	ents := cfg.Cache.Entities()
	assert.Equal(t, []*pointsto.Entity{ents.Parameter(p)}, copies.Copies(b.Entry(), ents.Local(x)))
	assert.Empty(t, copies.Copies(b.Entry(), ents.Local(y)))
}

func TestCancelled(t *testing.T) {
	b := ir.NewBuilder(ir.NewFunction("cancelled", nil, nil))
	b.Return(b.Entry())
	g := b.MustFinish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cache := pointsto.NewCache()
	_, err := pointsto.GetOrComputeResult(ctx, g, pointsto.AnalysisConfig{Cache: cache})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, cache.Len(), "failed analyses are not cached")
}

func TestStaticMethodRef(t *testing.T) {
	sig := types.NewSignatureType(nil, nil, nil, nil, nil, false)
	m := ir.NewFunction("m", nil, nil)
	b := ir.NewBuilder(ir.NewFunction("caller", nil, nil))
	ref := b.MethodRef(nil, m, sig)
	b.Emit(b.Entry(), ref)
	b.Return(b.Entry())
	g := b.MustFinish()

	res := analyze(t, g, pointsto.AnalysisConfig{})
	assert.Same(t, pointsto.UnknownValue, res.Value(ref))
}
