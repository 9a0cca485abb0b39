package pointsto

import (
	"context"
	"fmt"

	"github.com/BarrensZeppelin/pointsto/internal/dataflow"
	"github.com/BarrensZeppelin/pointsto/ir"
	log "github.com/sirupsen/logrus"
)

// ErrIterationLimit is returned when the analysis of a graph does not
// converge within AnalysisConfig.MaxIterations visits of some block.
var ErrIterationLimit = dataflow.ErrIterationLimit

// DefaultMaxLocations is the default widening threshold of loop headers.
const DefaultMaxLocations = 16

type AnalysisConfig struct {
	// Answers type questions. A fresh provider is used when nil.
	Types *TypeProvider

	Interprocedural InterproceduralConfig

	// When Pessimistic is true, invocations that are not analysed
	// interprocedurally forget the values of all members reachable from
	// their arguments.
	Pessimistic bool

	// Run the copy analysis first and use it to refine all copies of a
	// value tested against null.
	CopyAnalysis bool

	// Location sets larger than MaxLocations are widened to unknown at loop
	// headers. Zero means DefaultMaxLocations.
	MaxLocations int

	// Maximum number of visits of one block. Zero means
	// dataflow.DefaultMaxIterations.
	MaxIterations int

	// When KeepMemberNullState is true, accessing a member of a non-null
	// receiver does not make the member non-null.
	KeepMemberNullState bool

	// Shares locations, entities and results between analyses. A fresh
	// cache is used when nil.
	Cache *Cache

	Logger log.FieldLogger
}

func (cfg AnalysisConfig) withDefaults() *AnalysisConfig {
	if cfg.Types == nil {
		cfg.Types = NewTypeProvider()
	}
	if cfg.MaxLocations <= 0 {
		cfg.MaxLocations = DefaultMaxLocations
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = dataflow.DefaultMaxIterations
	}
	if cfg.Interprocedural.MaxCallChain <= 0 {
		cfg.Interprocedural.MaxCallChain = DefaultMaxCallChain
	}
	if cfg.Interprocedural.MaxLambdaCallChain <= 0 {
		cfg.Interprocedural.MaxLambdaCallChain = DefaultMaxLambdaCallChain
	}
	if cfg.Cache == nil {
		cfg.Cache = NewCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	return &cfg
}

// fingerprint identifies the options that influence results.
func (cfg *AnalysisConfig) fingerprint() string {
	ipc := cfg.Interprocedural
	return fmt.Sprintf("ip=%d/%d/%d pess=%t copy=%t loc=%d iter=%d keep=%t",
		ipc.Kind, ipc.MaxCallChain, ipc.MaxLambdaCallChain,
		cfg.Pessimistic, cfg.CopyAnalysis, cfg.MaxLocations, cfg.MaxIterations, cfg.KeepMemberNullState)
}

// GetOrComputeResult returns the points-to analysis of g, computing it
// unless cfg.Cache already holds it. The graph's owner is g.Owner.
//
// The analysis stops early with ctx.Err() when ctx is cancelled; no partial
// result is cached.
func GetOrComputeResult(ctx context.Context, g *ir.Graph, cfg AnalysisConfig) (*Result, error) {
	c := cfg.withDefaults()
	return c.Cache.topLevel(ctx, g, c)
}

// GetOrComputeResultWithCopy is like GetOrComputeResult, but always runs the
// copy analysis and returns it as well.
func GetOrComputeResultWithCopy(ctx context.Context, g *ir.Graph, cfg AnalysisConfig) (*Result, *CopyResult, error) {
	cfg.CopyAnalysis = true
	res, err := GetOrComputeResult(ctx, g, cfg)
	if err != nil {
		return nil, nil, err
	}
	return res, res.Copy, nil
}

// solve computes the fixed point of r from initial.
func (r *run) solve(initial *AnalysisData) (*Result, error) {
	if r.config.CopyAnalysis {
		copies, err := computeCopies(r.ctx, r.graph, r.config, r.copySeed)
		if err != nil {
			return nil, fmt.Errorf("copy analysis of %s: %w", r.graph.Owner, err)
		}
		r.copies = copies
	}

	flow, err := dataflow.Run(r.ctx, r.graph, initial, r.dom, r, dataflow.Options{
		MaxIterations: r.config.MaxIterations,
		Logger:        r.logger,
	})
	if err != nil {
		return nil, err
	}
	return r.result(flow), nil
}
