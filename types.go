package pointsto

import (
	"go/types"
	"sync"

	"golang.org/x/tools/go/types/typeutil"
)

// PointerLike reports whether values of type t are references that may be
// nil and may alias.
func PointerLike(t types.Type) bool {
	switch t := t.(type) {
	case *types.Pointer,
		*types.Map,
		*types.Chan,
		*types.Slice,
		*types.Interface,
		*types.Signature:
		return true
	case *types.Basic:
		return t.Kind() == types.UnsafePointer || t.Kind() == types.UntypedNil
	case *types.Named, *types.Alias:
		return PointerLike(t.Underlying())
	case *types.TypeParam:
		// The core type decides; type sets mixing references and values are
		// treated as references.
		return PointerLike(t.Underlying())
	default:
		return false
	}
}

// TypeProvider answers the type questions of the analysis: which types are
// tracked, and how conversions between types behave. It memoizes results and
// is safe for concurrent use.
type TypeProvider struct {
	mu      sync.Mutex
	tracked typeutil.Map
}

// NewTypeProvider returns an empty provider.
func NewTypeProvider() *TypeProvider {
	return &TypeProvider{}
}

// IsTracked reports whether entities of type t carry points-to values.
func (tp *TypeProvider) IsTracked(t types.Type) bool {
	if t == nil {
		return false
	}
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if v := tp.tracked.At(t); v != nil {
		return v.(bool)
	}
	res := PointerLike(t)
	tp.tracked.Set(t, res)
	return res
}

// IsInterfaceOrTypeParam reports whether conversions to t cannot be decided
// statically.
func (tp *TypeProvider) IsInterfaceOrTypeParam(t types.Type) bool {
	switch t := types.Unalias(t).(type) {
	case *types.TypeParam:
		return true
	default:
		return types.IsInterface(t)
	}
}

// DerivesFrom reports whether every value of type from is also a value of
// type to.
func (tp *TypeProvider) DerivesFrom(from, to types.Type) bool {
	return types.AssignableTo(from, to)
}

// IsBoxing reports whether converting from to to wraps a non-reference value
// in a fresh object.
func (tp *TypeProvider) IsBoxing(from, to types.Type) bool {
	return !tp.IsTracked(from) && types.IsInterface(to)
}

// IsUnboxing reports whether converting from to to extracts a non-reference
// value out of an object.
func (tp *TypeProvider) IsUnboxing(from, to types.Type) bool {
	return types.IsInterface(from) && !tp.IsTracked(to)
}
