package pointsto

// domain is the lattice of AnalysisData.
type domain struct {
	defaults     *defaultValueGenerator
	maxLocations int
}

func (dom *domain) Clone(d *AnalysisData) *AnalysisData { return d.Clone() }

func (dom *domain) Equal(a, b *AnalysisData) bool { return a.Equal(b) }

func (dom *domain) value(d *AnalysisData, e *Entity) *Value {
	if v, ok := d.Get(e); ok {
		return v
	}
	return dom.defaults.Value(e)
}

// Merge joins a and b entity-wise. An entity missing on one side holds its
// default value there.
func (dom *domain) Merge(a, b *AnalysisData) *AnalysisData {
	return dom.merge(a, b, func(x, y *Value) *Value { return x.Merge(y) })
}

func (dom *domain) merge(a, b *AnalysisData, join func(x, y *Value) *Value) *AnalysisData {
	res := NewAnalysisData()
	for e, va := range a.values {
		res.values[e] = join(va, dom.value(b, e))
	}
	for e, vb := range b.values {
		if _, ok := a.values[e]; !ok {
			res.values[e] = join(dom.defaults.Value(e), vb)
		}
	}
	assertData(res)
	return res
}

// MergeForBackEdge joins the state entering a loop header (a) with the state
// flowing around the back edge (b). Location sets are widened, and entities
// whose member entities are not present on both sides are reset to an
// unknown value.
func (dom *domain) MergeForBackEdge(a, b *AnalysisData) *AnalysisData {
	res := dom.merge(a, b, func(x, y *Value) *Value {
		return x.MergeForBackEdge(y, dom.maxLocations)
	})

	var members []*Entity
	for e := range res.values {
		if e.HasInstance() {
			members = append(members, e)
		}
	}
	if len(members) == 0 {
		return res
	}

	for e, v := range res.values {
		if v.kind != KindKnownLocations {
			continue
		}
		for _, m := range members {
			if m == e || !m.overlaps(v.locations) {
				continue
			}
			_, inA := a.values[m]
			_, inB := b.values[m]
			if inA != inB {
				res.values[e] = unknownValue(v.nullState)
				break
			}
		}
	}
	return res
}
