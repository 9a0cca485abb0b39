package main

import (
	"context"
	"testing"

	"github.com/BarrensZeppelin/pointsto/internal/config"
	"github.com/BarrensZeppelin/pointsto/pkgutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	pkgs, err := pkgutil.LoadPackagesFromSource(`package main

type T struct{ n int }

func get() *T { return nil }

func first() int { return get().n }

func second(p *T) int {
	if p != nil {
		return 0
	}
	return p.n
}

func main() {}
`)
	require.NoError(t, err)
	prog, spkgs := pkgutil.BuildSSA(pkgs)

	findings, err := analyze(context.Background(), pkgutil.SourceFunctions(prog, spkgs), config.Default().Analysis())
	require.NoError(t, err)

	var lines []int
	for _, fd := range findings {
		assert.Equal(t, "nil dereference in field selection", fd.Message)
		lines = append(lines, prog.Fset.Position(fd.Pos).Line)
	}
	assert.Equal(t, []int{7, 13}, lines)
}

func TestAnalyzeCancelled(t *testing.T) {
	pkgs, err := pkgutil.LoadPackagesFromSource("package main\n\nfunc main() {}\n")
	require.NoError(t, err)
	prog, spkgs := pkgutil.BuildSSA(pkgs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = analyze(ctx, pkgutil.SourceFunctions(prog, spkgs), config.Default().Analysis())
	assert.ErrorIs(t, err, context.Canceled)
}
