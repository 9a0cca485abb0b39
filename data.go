package pointsto

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// AnalysisData is the abstract state at a program point: the points-to value
// of every tracked entity. Entities without a mapping hold their default
// value.
type AnalysisData struct {
	values map[*Entity]*Value
}

// NewAnalysisData returns an empty state.
func NewAnalysisData() *AnalysisData {
	return &AnalysisData{values: make(map[*Entity]*Value)}
}

// Get returns the value of e, if e has one.
func (d *AnalysisData) Get(e *Entity) (*Value, bool) {
	v, ok := d.values[e]
	return v, ok
}

// Set maps e to v.
func (d *AnalysisData) Set(e *Entity, v *Value) {
	d.values[e] = v
}

// Delete removes the mapping of e.
func (d *AnalysisData) Delete(e *Entity) {
	delete(d.values, e)
}

// Len is the number of mapped entities.
func (d *AnalysisData) Len() int { return len(d.values) }

// Clone returns an independent copy of d. Values are immutable and shared.
func (d *AnalysisData) Clone() *AnalysisData {
	return &AnalysisData{values: maps.Clone(d.values)}
}

// Entities returns the mapped entities ordered by ID.
func (d *AnalysisData) Entities() []*Entity {
	keys := slices.Collect(maps.Keys(d.values))
	slices.SortFunc(keys, func(a, b *Entity) int { return a.id - b.id })
	return keys
}

// All iterates the mappings ordered by entity ID.
func (d *AnalysisData) All() iter.Seq2[*Entity, *Value] {
	return func(yield func(*Entity, *Value) bool) {
		for _, e := range d.Entities() {
			if !yield(e, d.values[e]) {
				return
			}
		}
	}
}

// Equal reports whether d and o map the same entities to equal values.
func (d *AnalysisData) Equal(o *AnalysisData) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil || len(d.values) != len(o.values) {
		return false
	}
	for e, v := range d.values {
		if w, ok := o.values[e]; !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

func (d *AnalysisData) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for e, v := range d.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(e.String())
		sb.WriteString(": ")
		sb.WriteString(v.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// fingerprint identifies the contents of d. Equal states have equal
// fingerprints.
func (d *AnalysisData) fingerprint() string {
	var sb strings.Builder
	for e, v := range d.All() {
		fmt.Fprintf(&sb, "%d:%d/%d[", e.id, v.kind, v.nullState)
		for _, l := range v.locations {
			sb.WriteString(strconv.Itoa(l.id))
			sb.WriteByte(' ')
		}
		for _, op := range v.captures {
			fmt.Fprintf(&sb, "%p ", op)
		}
		sb.WriteString("];")
	}
	return sb.String()
}
