package pointsto

import "sync"

// defaultValueGenerator produces the value of entities that have not been
// assigned on the current path. Values are cached per entity, so repeated
// requests within one run return the same location.
type defaultValueGenerator struct {
	locs *locationTable

	mu     sync.Mutex
	values map[*Entity]*Value
}

func newDefaultValueGenerator(locs *locationTable) *defaultValueGenerator {
	return &defaultValueGenerator{locs: locs, values: make(map[*Entity]*Value)}
}

// Value returns the default value of e.
func (g *defaultValueGenerator) Value(e *Entity) *Value {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.values[e]; ok {
		return v
	}
	var v *Value
	switch {
	case !e.ShouldBeTracked():
		v = NoLocationValue
	case e.kind == EntityThis:
		v = NewValue(NotNull, g.locs.Default(e))
	case e.IsLValueCapture():
		v = unknownCaptureValue
	case e.kind == EntityFlowCapture:
		v = UnknownValue
	default:
		v = NewValue(MaybeNull, g.locs.Default(e))
	}
	g.values[e] = v
	return v
}
