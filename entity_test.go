package pointsto

import (
	"go/constant"
	"go/types"
	"testing"

	"github.com/BarrensZeppelin/pointsto/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityInterning(t *testing.T) {
	ents := NewEntityFactory()
	ptr := types.NewPointer(types.Typ[types.Int])
	x := types.NewVar(0, nil, "x", ptr)
	n := types.NewVar(0, nil, "n", types.Typ[types.Int])

	assert.Same(t, ents.Local(x), ents.Local(x))
	assert.NotSame(t, ents.Local(x), ents.Parameter(x))
	assert.True(t, ents.Local(x).ShouldBeTracked())
	assert.False(t, ents.Local(n).ShouldBeTracked())
	assert.True(t, ents.Capture(nil, 1, types.Typ[types.Int], true).ShouldBeTracked(),
		"lvalue captures hold capture sets")
}

func TestMemberEntities(t *testing.T) {
	ents := NewEntityFactory()
	locs := testLocations(3)
	ptr := types.NewPointer(types.Typ[types.Int])
	f := types.NewVar(0, nil, "f", ptr)

	a := NewLocationValue(locs[0])
	ab := NewValue(MaybeNull, locs[0], locs[1], NullLocation)
	c := NewLocationValue(locs[2])

	fa, ok := ents.Field(f, a)
	require.True(t, ok)
	again, _ := ents.Field(f, NewValue(NotNull, locs[0]))
	assert.Same(t, fa, again, "entities are keyed by instance locations")

	fab, ok := ents.Field(f, ab)
	require.True(t, ok)
	assert.Equal(t, []*AbstractLocation{locs[0], locs[1]}, fab.Instance(), "null is not an instance")
	fc, _ := ents.Field(f, c)

	assert.True(t, fa.mayAlias(fab))
	assert.True(t, fab.mayAlias(fa))
	assert.False(t, fa.mayAlias(fc))

	_, ok = ents.Field(f, UnknownValue)
	assert.False(t, ok)
	_, ok = ents.Field(f, NullLocationValue)
	assert.False(t, ok)

	static, ok := ents.Field(f, nil)
	require.True(t, ok)
	assert.False(t, static.HasInstance())

	e0, _ := ents.Element(a, 0, ptr)
	e1, _ := ents.Element(a, 1, ptr)
	assert.NotSame(t, e0, e1)
	assert.False(t, e0.mayAlias(e1))
}

func TestTryCreateElement(t *testing.T) {
	ents := NewEntityFactory()
	locs := testLocations(1)
	arr := &ir.Operation{ID: 1, Kind: ir.OpLocalRef}
	values := map[*ir.Operation]*Value{arr: NewLocationValue(locs[0])}
	valueOf := func(op *ir.Operation) *Value { return values[op] }
	elem := func(index *ir.Operation) *ir.Operation {
		return &ir.Operation{Kind: ir.OpElementRef, Instance: arr, Operands: []*ir.Operation{index}}
	}

	constIdx := &ir.Operation{Kind: ir.OpLiteral, Const: constant.MakeInt64(2)}
	e, ok := ents.TryCreate(elem(constIdx), nil, valueOf)
	require.True(t, ok)
	assert.Equal(t, EntityElement, e.Kind())
	assert.Equal(t, "{alloc(OpInvalid#0)}[2]", e.String())

	_, ok = ents.TryCreate(elem(&ir.Operation{Kind: ir.OpLocalRef}), nil, valueOf)
	assert.False(t, ok, "elements at unknown indices have no entity")
}
