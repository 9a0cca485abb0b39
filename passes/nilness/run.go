package nilness

import (
	"context"
	"errors"
	"fmt"

	"github.com/BarrensZeppelin/pointsto"
	"github.com/BarrensZeppelin/pointsto/internal/config"
	"github.com/BarrensZeppelin/pointsto/ssaflow"
	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
)

type runner struct {
	cfg    config.Config
	logger log.FieldLogger
}

func (r *runner) run(pass *analysis.Pass) (any, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	ssainfo := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	logger := r.logger.WithField("package", pass.Pkg.Path())

	cfg := r.cfg.Analysis()
	cfg.Cache = pointsto.NewCache()
	cfg.Logger = logger
	prog := ssaflow.NewProgram(logger)

	// One report per line.
	lines := make(map[string]bool)
	for _, fn := range ssainfo.SrcFuncs {
		f := prog.Function(fn)
		if f.Graph() == nil {
			continue
		}
		res, err := pointsto.GetOrComputeResult(context.Background(), f.Graph(), cfg)
		if errors.Is(err, pointsto.ErrIterationLimit) {
			logger.WithField("function", fn.String()).Warn(err)
			continue
		} else if err != nil {
			return nil, fmt.Errorf("analysing %s: %w", fn, err)
		}

		for _, fd := range f.Findings(res) {
			pos := pass.Fset.Position(fd.Pos)
			line := fmt.Sprintf("%s:%d", pos.Filename, pos.Line)
			if lines[line] {
				continue
			}
			lines[line] = true
			pass.Report(analysis.Diagnostic{Pos: fd.Pos, Message: fd.Message})
		}
	}

	logger.Debugf("analysed %d functions, %d cached results", len(ssainfo.SrcFuncs), cfg.Cache.Len())
	return nil, nil
}
