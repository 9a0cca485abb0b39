package nilness

import (
	"github.com/BarrensZeppelin/pointsto/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
)

const (
	name = "pointstonil"
	doc  = `report nil dereferences proven by points-to analysis`
	url  = "https://pkg.go.dev/github.com/BarrensZeppelin/pointsto/passes/nilness"
)

// New creates an instance of the analyzer configured by opts.
func New(opts ...Option) *analysis.Analyzer {
	r := &runner{cfg: config.Default(), logger: log.StandardLogger()}
	Options(opts).apply(r)

	a := &analysis.Analyzer{
		Name:     name,
		Doc:      doc,
		URL:      url,
		Run:      r.run,
		Requires: []*analysis.Analyzer{buildssa.Analyzer},
	}

	registerFlags(r, &a.Flags)

	return a
}

// Analyzer is the analyzer with default settings.
var Analyzer = New()
