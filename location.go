package pointsto

import (
	"fmt"
	"go/types"
	"strings"
	"sync"

	"github.com/BarrensZeppelin/pointsto/ir"
)

// This file contains definitions of types whose instances represent abstract
// objects that are targets of pointers in the analysed program.

// LocationKind says what an AbstractLocation stands for.
type LocationKind uint8

const (
	// The location of values that are not references.
	LocationNone LocationKind = iota
	// The location of the null reference.
	LocationNull
	// An object allocated by an operation.
	LocationAllocation
	// The unknown object an entity refers to on entry.
	LocationDefault
	// The storage of a symbol, or of a field within another location.
	LocationSymbol
)

// AbstractLocation denotes an abstract object. Locations are interned: two
// locations are equal iff they are the same pointer, which happens iff they
// denote the same creation site (or symbol, or entity) in the same
// interprocedural context.
type AbstractLocation struct {
	id   int
	kind LocationKind

	site   *ir.Operation
	entity *Entity
	symbol ir.Symbol
	base   *AbstractLocation
	typ    types.Type
	stack  *CallStack
	index  int
}

var (
	// NoLocation is the single location of non-reference values.
	NoLocation = &AbstractLocation{id: 0, kind: LocationNone}
	// NullLocation is the single location of the null reference.
	NullLocation = &AbstractLocation{id: 1, kind: LocationNull}
)

func (l *AbstractLocation) ID() int            { return l.id }
func (l *AbstractLocation) Kind() LocationKind { return l.kind }

// Site is the creating operation of allocation locations.
func (l *AbstractLocation) Site() *ir.Operation { return l.site }

// Entity is the entity of default locations.
func (l *AbstractLocation) Entity() *Entity { return l.entity }

// Symbol is the symbol of symbol locations.
func (l *AbstractLocation) Symbol() ir.Symbol { return l.symbol }

// Base is the enclosing location of a field location.
func (l *AbstractLocation) Base() *AbstractLocation { return l.base }

func (l *AbstractLocation) Type() types.Type { return l.typ }

// Stack is the interprocedural call stack the location was created in.
func (l *AbstractLocation) Stack() *CallStack { return l.stack }

// Index disambiguates several locations created by one operation.
func (l *AbstractLocation) Index() int { return l.index }

func (l *AbstractLocation) String() string {
	var s string
	switch l.kind {
	case LocationNone:
		return "<none>"
	case LocationNull:
		return "<null>"
	case LocationAllocation:
		s = fmt.Sprintf("alloc(%s)", l.site)
		if l.index != 0 {
			s = fmt.Sprintf("alloc(%s/%d)", l.site, l.index)
		}
	case LocationDefault:
		s = fmt.Sprintf("default(%s)", l.entity)
	case LocationSymbol:
		s = "&" + l.symbol.Name()
		if l.base != nil {
			s = fmt.Sprintf("&%s.%s", l.base, l.symbol.Name())
		}
	}
	if l.stack != nil {
		s += "@" + l.stack.String()
	}
	return s
}

// CallStack is an interprocedural context: the chain of call sites through
// which the analysed body was entered. The empty stack is nil.
type CallStack struct {
	parent *CallStack
	site   *ir.Operation
	callee *ir.Function
	depth  int
}

func (s *CallStack) Parent() *CallStack   { return s.parent }
func (s *CallStack) Site() *ir.Operation  { return s.site }
func (s *CallStack) Callee() *ir.Function { return s.callee }

// Depth is the number of frames in s.
func (s *CallStack) Depth() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// Contains reports whether fn is entered anywhere in s.
func (s *CallStack) Contains(fn *ir.Function) bool {
	for ; s != nil; s = s.parent {
		if s.callee == fn {
			return true
		}
	}
	return false
}

func (s *CallStack) String() string {
	if s == nil {
		return "[]"
	}
	var frames []string
	for ; s != nil; s = s.parent {
		if s.site != nil {
			frames = append(frames, fmt.Sprintf("%s:%d", s.callee, s.site.ID))
		} else {
			frames = append(frames, s.callee.String())
		}
	}
	return "[" + strings.Join(frames, " ") + "]"
}

type locationKey struct {
	kind   LocationKind
	site   *ir.Operation
	entity *Entity
	symbol ir.Symbol
	base   *AbstractLocation
	typ    types.Type
	stack  *CallStack
	index  int
}

type stackKey struct {
	parent *CallStack
	site   *ir.Operation
	callee *ir.Function
}

// locationTable interns locations and call stacks. It is shared by all
// analyses using one Cache, so location identity is stable across re-visits
// and across nested interprocedural runs.
type locationTable struct {
	mu     sync.Mutex
	locs   map[locationKey]*AbstractLocation
	stacks map[stackKey]*CallStack
	next   int
}

func newLocationTable() *locationTable {
	return &locationTable{
		locs:   make(map[locationKey]*AbstractLocation),
		stacks: make(map[stackKey]*CallStack),
		next:   2,
	}
}

func (t *locationTable) intern(k locationKey) *AbstractLocation {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.locs[k]; ok {
		return l
	}
	l := &AbstractLocation{
		id:     t.next,
		kind:   k.kind,
		site:   k.site,
		entity: k.entity,
		symbol: k.symbol,
		base:   k.base,
		typ:    k.typ,
		stack:  k.stack,
		index:  k.index,
	}
	t.next++
	t.locs[k] = l
	return l
}

// Allocation returns the location of the object allocated by site.
func (t *locationTable) Allocation(site *ir.Operation, typ types.Type, stack *CallStack, index int) *AbstractLocation {
	return t.intern(locationKey{kind: LocationAllocation, site: site, typ: typ, stack: stack, index: index})
}

// Default returns the location an entity refers to on entry.
func (t *locationTable) Default(e *Entity) *AbstractLocation {
	return t.intern(locationKey{kind: LocationDefault, entity: e, typ: e.Type()})
}

// Symbol returns the location of the storage of sym, optionally within base.
func (t *locationTable) Symbol(sym ir.Symbol, base *AbstractLocation, typ types.Type) *AbstractLocation {
	return t.intern(locationKey{kind: LocationSymbol, symbol: sym, base: base, typ: typ})
}

// Push returns the stack obtained by entering callee at site on top of s.
func (t *locationTable) Push(s *CallStack, site *ir.Operation, callee *ir.Function) *CallStack {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := stackKey{s, site, callee}
	if cs, ok := t.stacks[k]; ok {
		return cs
	}
	cs := &CallStack{parent: s, site: site, callee: callee, depth: s.Depth() + 1}
	t.stacks[k] = cs
	return cs
}
