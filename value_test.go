package pointsto

import (
	"go/types"
	"testing"

	"github.com/BarrensZeppelin/pointsto/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	debugChecks = true
	m.Run()
}

func testLocations(n int) []*AbstractLocation {
	t := newLocationTable()
	typ := types.NewPointer(types.Typ[types.Int])
	locs := make([]*AbstractLocation, n)
	for i := range locs {
		locs[i] = t.Allocation(&ir.Operation{ID: i}, typ, nil, 0)
	}
	return locs
}

func TestNullStateMerge(t *testing.T) {
	states := []NullState{Undefined, Invalid, Null, NotNull, MaybeNull, Unknown}
	for _, s := range states {
		assert.Equal(t, s, s.Merge(s), "%v is idempotent", s)
		assert.Equal(t, s, s.Merge(Undefined), "Undefined is an identity for %v", s)
		if s != Undefined {
			assert.Equal(t, s, Invalid.Merge(s), "Invalid is an identity for %v", s)
		}
		for _, o := range states {
			assert.Equal(t, s.Merge(o), o.Merge(s), "merge of %v and %v commutes", s, o)
		}
	}
	assert.Equal(t, MaybeNull, Null.Merge(NotNull))
	assert.Equal(t, MaybeNull, NotNull.Merge(Unknown))
	assert.True(t, Null.IsKnown())
	assert.False(t, MaybeNull.IsKnown())
}

func TestPredicateKind(t *testing.T) {
	assert.Equal(t, AlwaysFalse, AlwaysTrue.Negate())
	assert.Equal(t, PredicateUnknown, PredicateUnknown.Negate())
	assert.Equal(t, AlwaysTrue, AlwaysTrue.Merge(AlwaysTrue))
	assert.Equal(t, PredicateUnknown, AlwaysTrue.Merge(AlwaysFalse))
}

func TestValueConstructors(t *testing.T) {
	locs := testLocations(2)
	assert.Same(t, UnknownValue, NewValue(MaybeNull))
	assert.Same(t, NoLocationValue, NewValue(NotNull, NoLocation))
	assert.Same(t, NullLocationValue, NewValue(Null, NullLocation))
	assert.Same(t, NullLocationValue, NewLocationValue(NullLocation))

	v := NewValue(MaybeNull, locs[1], locs[0], locs[1])
	assert.Equal(t, KindKnownLocations, v.Kind())
	assert.Equal(t, []*AbstractLocation{locs[0], locs[1]}, v.Locations())
	assert.Equal(t, NotNull, NewLocationValue(locs[0]).NullState())
}

func TestValueMerge(t *testing.T) {
	locs := testLocations(3)
	a := NewLocationValue(locs[0])
	b := NewValue(MaybeNull, locs[1], locs[2])
	values := []*Value{
		UndefinedValue, InvalidValue, UnknownValue, UnknownNullValue, UnknownNotNullValue,
		NoLocationValue, NullLocationValue, a, b,
	}
	for _, v := range values {
		assert.True(t, v.Merge(v).Equal(v), "%v is idempotent", v)
		assert.Same(t, v, v.Merge(UndefinedValue))
		if v != UndefinedValue {
			assert.Same(t, v, InvalidValue.Merge(v))
		}
		for _, o := range values {
			assert.True(t, v.Merge(o).Equal(o.Merge(v)), "merge of %v and %v commutes", v, o)
			for _, p := range values {
				assert.True(t, v.Merge(o).Merge(p).Equal(v.Merge(o.Merge(p))),
					"merge of %v, %v and %v associates", v, o, p)
			}
		}
	}

	m := a.Merge(b)
	assert.Equal(t, MaybeNull, m.NullState())
	assert.Equal(t, locs, m.Locations())

	n := a.Merge(NullLocationValue)
	assert.Equal(t, MaybeNull, n.NullState())
	assert.True(t, n.Contains(NullLocation))
	assert.True(t, n.Contains(locs[0]))

	assert.Same(t, UnknownValue, a.Merge(UnknownNullValue))
	assert.Same(t, UnknownNotNullValue, a.Merge(UnknownNotNullValue))
}

func TestValueMergeForBackEdge(t *testing.T) {
	locs := testLocations(3)
	a := NewValue(NotNull, locs[0], locs[1])
	b := NewLocationValue(locs[2])
	assert.Len(t, a.MergeForBackEdge(b, 3).Locations(), 3)
	assert.Same(t, UnknownNotNullValue, a.MergeForBackEdge(b, 2))
}

func TestValueNullRefinement(t *testing.T) {
	locs := testLocations(2)
	maybe := NewValue(MaybeNull, locs...)

	n := maybe.MakeNull()
	assert.Equal(t, Null, n.NullState())
	assert.Equal(t, locs, n.Locations())
	nn := maybe.MakeNonNull()
	assert.Equal(t, NotNull, nn.NullState())
	assert.Same(t, nn, nn.MakeNonNull())

	withNull := maybe.Merge(NullLocationValue)
	assert.Same(t, NullLocationValue, withNull.MakeNull())
	assert.Equal(t, locs, withNull.MakeNonNull().Locations())

	assert.Same(t, InvalidValue, NullLocationValue.MakeNonNull())
	assert.Same(t, UnknownNullValue, UnknownValue.MakeNull())
	assert.Same(t, UnknownNotNullValue, UnknownValue.MakeNonNull())
	assert.Same(t, UnknownValue, UnknownNotNullValue.MakeMayBeNull())
	assert.Same(t, NoLocationValue, NoLocationValue.MakeNull())

	mb := NullLocationValue.MakeMayBeNull()
	assert.Equal(t, MaybeNull, mb.NullState())
	assert.True(t, mb.Contains(NullLocation))
}

func TestRefineByInstance(t *testing.T) {
	locs := testLocations(1)
	v := NewValue(MaybeNull, locs...)
	assert.Equal(t, NotNull, v.refineByInstance(NotNull, false).NullState())
	assert.Same(t, v, v.refineByInstance(NotNull, true))
	assert.Equal(t, Null, v.refineByInstance(Null, true).NullState())
	assert.Same(t, InvalidValue, v.refineByInstance(Invalid, false))
	assert.Same(t, v, v.refineByInstance(MaybeNull, false))
}

func TestCapturesValue(t *testing.T) {
	op1, op2 := &ir.Operation{ID: 1}, &ir.Operation{ID: 2}
	a, b := NewCapturesValue(op2), NewCapturesValue(op1)
	m := a.Merge(b)
	assert.Equal(t, KindKnownLValueCaptures, m.Kind())
	assert.Equal(t, []*ir.Operation{op1, op2}, m.Captures())
	assert.Same(t, unknownCaptureValue, a.Merge(NullLocationValue))
}

func TestDomainMergeUsesDefaults(t *testing.T) {
	locs := newLocationTable()
	ents := NewEntityFactory()
	dom := &domain{defaults: newDefaultValueGenerator(locs), maxLocations: DefaultMaxLocations}
	typ := types.NewPointer(types.Typ[types.Int])
	x := ents.Local(types.NewVar(0, nil, "x", typ))

	a, b := NewAnalysisData(), NewAnalysisData()
	a.Set(x, NullLocationValue)
	m := dom.Merge(a, b)
	v, ok := m.Get(x)
	require.True(t, ok)
	assert.Equal(t, MaybeNull, v.NullState())
	assert.True(t, v.Contains(NullLocation))
	assert.True(t, v.Contains(locs.Default(x)))
	assert.True(t, m.Equal(dom.Merge(b, a)))
}

func TestDomainBackEdgeResetsChangedObjects(t *testing.T) {
	locs := newLocationTable()
	ents := NewEntityFactory()
	dom := &domain{defaults: newDefaultValueGenerator(locs), maxLocations: DefaultMaxLocations}
	typ := types.NewPointer(types.Typ[types.Int])
	x := ents.Local(types.NewVar(0, nil, "x", typ))
	obj := NewLocationValue(locs.Allocation(&ir.Operation{}, typ, nil, 0))
	f, ok := ents.Field(types.NewVar(0, nil, "f", typ), obj)
	require.True(t, ok)

	prev, next := NewAnalysisData(), NewAnalysisData()
	prev.Set(x, obj)
	next.Set(x, obj)
	next.Set(f, NullLocationValue)

	m := dom.MergeForBackEdge(prev, next)
	v, _ := m.Get(x)
	assert.Same(t, UnknownNotNullValue, v)
	_, ok = m.Get(f)
	assert.True(t, ok)

	prev.Set(f, NullLocationValue)
	m = dom.MergeForBackEdge(prev, next)
	v, _ = m.Get(x)
	assert.Same(t, obj, v)
}
