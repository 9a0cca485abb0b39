package pointsto

import (
	"fmt"
	"go/constant"
	"go/types"
	"strconv"
	"strings"
	"sync"

	"github.com/BarrensZeppelin/pointsto/ir"
)

// EntityKind says what kind of storage an Entity denotes.
type EntityKind uint8

const (
	EntityLocal EntityKind = iota
	EntityParameter
	// The receiver of a graph.
	EntityThis
	// A field of the objects at the instance locations, or a static field
	// when there are none.
	EntityField
	// A constant-indexed element of the objects at the instance locations.
	EntityElement
	EntityFlowCapture
)

// Entity is a storage location whose value is tracked by the analysis.
// Entities are interned by an [EntityFactory] and compared by pointer.
type Entity struct {
	id     int
	kind   EntityKind
	symbol ir.Symbol
	typ    types.Type
	// Sorted by ID; no NullLocation.
	instance []*AbstractLocation
	index    int
	capture  int
	lvalue   bool
	graph    *ir.Graph
	tracked  bool
}

func (e *Entity) ID() int           { return e.id }
func (e *Entity) Kind() EntityKind  { return e.kind }
func (e *Entity) Symbol() ir.Symbol { return e.symbol }
func (e *Entity) Type() types.Type  { return e.typ }

// Instance returns the locations of the objects owning a field or element
// entity.
func (e *Entity) Instance() []*AbstractLocation { return e.instance }

// HasInstance reports whether e is a member of some object.
func (e *Entity) HasInstance() bool { return len(e.instance) > 0 }

// IsLValueCapture reports whether e is a flow capture of a reference to
// storage rather than of a value.
func (e *Entity) IsLValueCapture() bool { return e.kind == EntityFlowCapture && e.lvalue }

// ShouldBeTracked reports whether e carries a points-to value. Untracked
// entities always hold NoLocation.
func (e *Entity) ShouldBeTracked() bool { return e.tracked }

// overlaps reports whether some instance location of e is in locs.
func (e *Entity) overlaps(locs []*AbstractLocation) bool {
	i, j := 0, 0
	for i < len(e.instance) && j < len(locs) {
		switch c := cmpLocation(e.instance[i], locs[j]); {
		case c < 0:
			i++
		case c > 0:
			j++
		default:
			return true
		}
	}
	return false
}

// mayAlias reports whether e and o may denote the same storage.
func (e *Entity) mayAlias(o *Entity) bool {
	if e == o {
		return true
	}
	if e.kind != o.kind || e.symbol != o.symbol || e.index != o.index || !e.HasInstance() {
		return false
	}
	return e.overlaps(o.instance)
}

func (e *Entity) String() string {
	switch e.kind {
	case EntityLocal:
		return e.symbol.Name()
	case EntityParameter:
		return "param " + e.symbol.Name()
	case EntityThis:
		return "this"
	case EntityFlowCapture:
		if e.lvalue {
			return fmt.Sprintf("capture %d (lvalue)", e.capture)
		}
		return fmt.Sprintf("capture %d", e.capture)
	}
	var base string
	if len(e.instance) > 0 {
		parts := make([]string, len(e.instance))
		for i, l := range e.instance {
			parts[i] = l.String()
		}
		base = "{" + strings.Join(parts, ", ") + "}"
	}
	if e.kind == EntityElement {
		return fmt.Sprintf("%s[%d]", base, e.index)
	}
	if base == "" {
		return e.symbol.Name()
	}
	return base + "." + e.symbol.Name()
}

type entityKey struct {
	kind     EntityKind
	symbol   ir.Symbol
	instance string
	index    int
	capture  int
	graph    *ir.Graph
}

func instanceKey(locs []*AbstractLocation) string {
	var sb strings.Builder
	for i, l := range locs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(l.id))
	}
	return sb.String()
}

// EntityFactory interns entities. It is safe for concurrent use.
type EntityFactory struct {
	mu       sync.Mutex
	entities map[entityKey]*Entity
	next     int
}

// NewEntityFactory returns an empty factory.
func NewEntityFactory() *EntityFactory {
	return &EntityFactory{entities: make(map[entityKey]*Entity)}
}

func (f *EntityFactory) intern(k entityKey, mk func() *Entity) *Entity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entities[k]; ok {
		return e
	}
	e := mk()
	e.id = f.next
	f.next++
	f.entities[k] = e
	return e
}

// Local returns the entity of a local variable.
func (f *EntityFactory) Local(sym ir.Symbol) *Entity {
	return f.intern(entityKey{kind: EntityLocal, symbol: sym}, func() *Entity {
		return &Entity{kind: EntityLocal, symbol: sym, typ: sym.Type(), tracked: PointerLike(sym.Type())}
	})
}

// Parameter returns the entity of a parameter.
func (f *EntityFactory) Parameter(sym ir.Symbol) *Entity {
	return f.intern(entityKey{kind: EntityParameter, symbol: sym}, func() *Entity {
		return &Entity{kind: EntityParameter, symbol: sym, typ: sym.Type(), tracked: PointerLike(sym.Type())}
	})
}

// This returns the receiver entity of g.
func (f *EntityFactory) This(g *ir.Graph, typ types.Type) *Entity {
	return f.intern(entityKey{kind: EntityThis, graph: g}, func() *Entity {
		return &Entity{kind: EntityThis, typ: typ, graph: g, tracked: true}
	})
}

// Capture returns the entity of flow capture id in g.
func (f *EntityFactory) Capture(g *ir.Graph, id int, typ types.Type, lvalue bool) *Entity {
	return f.intern(entityKey{kind: EntityFlowCapture, capture: id, graph: g}, func() *Entity {
		return &Entity{
			kind:    EntityFlowCapture,
			typ:     typ,
			capture: id,
			lvalue:  lvalue,
			graph:   g,
			tracked: lvalue || PointerLike(typ),
		}
	})
}

// Field returns the entity of field sym of the objects instance points to,
// or of the static field sym when instance is nil. The second result is
// false when instance does not point to known objects.
func (f *EntityFactory) Field(sym ir.Symbol, instance *Value) (*Entity, bool) {
	var locs []*AbstractLocation
	if instance != nil {
		if locs = objectLocations(instance); len(locs) == 0 {
			return nil, false
		}
	}
	k := entityKey{kind: EntityField, symbol: sym, instance: instanceKey(locs)}
	return f.intern(k, func() *Entity {
		return &Entity{kind: EntityField, symbol: sym, typ: sym.Type(), instance: locs, tracked: PointerLike(sym.Type())}
	}), true
}

// Element returns the entity of element index of the objects instance
// points to.
func (f *EntityFactory) Element(instance *Value, index int, typ types.Type) (*Entity, bool) {
	locs := objectLocations(instance)
	if len(locs) == 0 {
		return nil, false
	}
	k := entityKey{kind: EntityElement, instance: instanceKey(locs), index: index}
	return f.intern(k, func() *Entity {
		return &Entity{kind: EntityElement, typ: typ, instance: locs, index: index, tracked: PointerLike(typ)}
	}), true
}

// objectLocations returns the locations of v that denote objects.
func objectLocations(v *Value) []*AbstractLocation {
	if v.kind != KindKnownLocations {
		return nil
	}
	if !v.Contains(NullLocation) {
		return v.locations
	}
	locs := make([]*AbstractLocation, 0, len(v.locations)-1)
	for _, l := range v.locations {
		if l != NullLocation {
			locs = append(locs, l)
		}
	}
	return locs
}

// TryCreate returns the entity referenced by op in graph g. valueOf yields
// the values of instance operations.
func (f *EntityFactory) TryCreate(op *ir.Operation, g *ir.Graph, valueOf func(*ir.Operation) *Value) (*Entity, bool) {
	switch op.Kind {
	case ir.OpLocalRef:
		return f.Local(op.Symbol), true
	case ir.OpParamRef:
		return f.Parameter(op.Symbol), true
	case ir.OpInstance:
		if op.Implicit {
			return nil, false
		}
		return f.This(g, op.Type), true
	case ir.OpFieldRef, ir.OpPropertyRef, ir.OpEventRef:
		if op.Instance == nil {
			return f.Field(op.Symbol, nil)
		}
		return f.Field(op.Symbol, valueOf(op.Instance))
	case ir.OpElementRef:
		index, ok := constIndex(op)
		if !ok {
			return nil, false
		}
		return f.Element(valueOf(op.Instance), index, op.Type)
	case ir.OpFlowCapture, ir.OpFlowCaptureRef:
		return f.Capture(g, op.CaptureID, op.Type, op.LValue), true
	default:
		return nil, false
	}
}

func constIndex(op *ir.Operation) (int, bool) {
	if len(op.Operands) == 0 {
		return 0, false
	}
	idx := op.Operands[0]
	if idx.Kind != ir.OpLiteral || idx.Const == nil || idx.Const.Kind() != constant.Int {
		return 0, false
	}
	i, exact := constant.Int64Val(idx.Const)
	return int(i), exact
}
