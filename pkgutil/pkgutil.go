// Package pkgutil loads Go packages and builds their SSA form for analysis.
package pkgutil

import (
	"cmp"
	"errors"
	"os"
	"slices"

	"github.com/BarrensZeppelin/pointsto/internal/maps"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Should be equivalent to packages.LoadAllSyntax (which is deprecated)
const LoadMode = packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedTypes |
	packages.NeedTypesSizes | packages.NeedImports | packages.NeedName |
	packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedDeps

// LoadPackagesFromSource loads a single-file package main with the given
// source.
func LoadPackagesFromSource(source string) ([]*packages.Package, error) {
	// The overlay lets the loader read a file that does not exist.
	config := &packages.Config{
		Mode: LoadMode,
		Env:  append(os.Environ(), "GO111MODULE=off", "GOPATH=/fake"),
		Overlay: map[string][]byte{
			"/fake/testpackage/main.go": []byte(source),
		},
	}

	return LoadPackagesWithConfig(config, "/fake/testpackage/main.go")
}

// LoadPackagesWithConfig loads the packages matching queries. Errors in the
// loaded packages are printed and reported as a single error.
func LoadPackagesWithConfig(config *packages.Config, queries ...string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(config, queries...)
	switch {
	case err != nil:
		return nil, err
	case packages.PrintErrors(pkgs) > 0:
		return pkgs, errors.New("errors encountered while loading packages")
	default:
		return pkgs, nil
	}
}

// BuildSSA builds the SSA program of pkgs and their dependencies. The
// returned packages correspond to pkgs.
func BuildSSA(pkgs []*packages.Package) (*ssa.Program, []*ssa.Package) {
	prog, spkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()
	return prog, spkgs
}

// SourceFunctions returns the functions with bodies that belong to spkgs,
// including closures, ordered by position. Synthetic wrappers and generic
// instances are skipped.
func SourceFunctions(prog *ssa.Program, spkgs []*ssa.Package) []*ssa.Function {
	in := maps.FromKeys(spkgs)
	var fns []*ssa.Function
	for _, fn := range maps.Keys(ssautil.AllFunctions(prog)) {
		if _, ok := in[fn.Pkg]; ok && fn.Pkg != nil && len(fn.Blocks) > 0 && fn.Synthetic == "" {
			fns = append(fns, fn)
		}
	}
	slices.SortFunc(fns, func(a, b *ssa.Function) int {
		return cmp.Or(cmp.Compare(a.Pos(), b.Pos()), cmp.Compare(a.String(), b.String()))
	})
	return fns
}
