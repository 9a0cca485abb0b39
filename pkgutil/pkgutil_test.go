package pkgutil_test

import (
	"testing"

	"github.com/BarrensZeppelin/pointsto/pkgutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

func TestSourceFunctions(t *testing.T) {
	pkgs, err := pkgutil.LoadPackagesFromSource(`package main

type T struct{}

func (T) m() {}

func f() func() int {
	return func() int { return 1 }
}

func main() {
	f()()
	T{}.m()
}`)
	require.NoError(t, err)

	prog, spkgs := pkgutil.BuildSSA(pkgs)
	require.Len(t, spkgs, 1)

	var names []string
	for _, fn := range pkgutil.SourceFunctions(prog, spkgs) {
		names = append(names, fn.Name())
	}
	assert.Equal(t, []string{"m", "f", "f$1", "main"}, names)
}

func TestBuildSSAInstantiatesGenerics(t *testing.T) {
	pkgs, err := pkgutil.LoadPackagesFromSource(`package main

func id[T any](x T) T { return x }

func main() { _ = id(1) }`)
	require.NoError(t, err)

	prog, spkgs := pkgutil.BuildSSA(pkgs)
	id := spkgs[0].Func("id")
	require.NotNil(t, id)

	var insts []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Origin() == id {
			insts = append(insts, fn)
		}
	}
	require.Len(t, insts, 1)
	assert.NotEmpty(t, insts[0].Blocks)
}
