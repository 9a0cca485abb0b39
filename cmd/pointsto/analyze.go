package main

import (
	"context"
	"errors"
	"slices"

	"github.com/BarrensZeppelin/pointsto"
	"github.com/BarrensZeppelin/pointsto/ssaflow"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/ssa"
)

// analyze checks fns concurrently and returns their findings in the order of
// fns. Functions that exceed the iteration limit are skipped.
func analyze(ctx context.Context, fns []*ssa.Function, cfg pointsto.AnalysisConfig) ([]ssaflow.Finding, error) {
	if cfg.Cache == nil {
		cfg.Cache = pointsto.NewCache()
	}
	prog := ssaflow.NewProgram(cfg.Logger)

	perFunc := make([][]ssaflow.Finding, len(fns))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(*jobs, 1))
	for i, fn := range fns {
		eg.Go(func() error {
			f := prog.Function(fn)
			res, err := pointsto.GetOrComputeResult(ctx, f.Graph(), cfg)
			if errors.Is(err, pointsto.ErrIterationLimit) {
				log.WithField("function", fn.String()).Warn(err)
				return nil
			} else if err != nil {
				return err
			}
			perFunc[i] = f.Findings(res)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	log.Debugf("%d analysis results cached", cfg.Cache.Len())
	return slices.Concat(perFunc...), nil
}
