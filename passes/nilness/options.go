package nilness

import (
	"flag"

	"github.com/BarrensZeppelin/pointsto"
	"github.com/BarrensZeppelin/pointsto/internal/config"
	log "github.com/sirupsen/logrus"
)

// Option configures the analyzer.
type Option interface {
	apply(r *runner)
}

// Options is a list of [Option] values that also implements [Option].
type Options []Option

func (o Options) apply(r *runner) {
	for _, opt := range o {
		if opt != nil {
			opt.apply(r)
		}
	}
}

type optionFunc func(r *runner)

func (f optionFunc) apply(r *runner) { f(r) }

// WithInterprocedural selects how calls to functions with bodies are analysed.
func WithInterprocedural(kind pointsto.InterproceduralKind) Option {
	return optionFunc(func(r *runner) { r.cfg.Interprocedural = config.Mode(kind) })
}

// WithMaxCallChain limits the depth of calls analysed.
func WithMaxCallChain(n int) Option {
	return optionFunc(func(r *runner) {
		r.cfg.MaxCallChain = n
		r.cfg.MaxLambdaCallChain = n
	})
}

// WithMaxLambdaCallChain limits the depth of closure calls analysed,
// overriding [WithMaxCallChain].
func WithMaxLambdaCallChain(n int) Option {
	return optionFunc(func(r *runner) { r.cfg.MaxLambdaCallChain = n })
}

// WithPessimistic makes calls that are not analysed forget what is known
// about the objects they can reach.
func WithPessimistic(pessimistic bool) Option {
	return optionFunc(func(r *runner) { r.cfg.Pessimistic = pessimistic })
}

// WithCopyAnalysis enables tracking of variables holding the same value.
func WithCopyAnalysis(enabled bool) Option {
	return optionFunc(func(r *runner) { r.cfg.CopyAnalysis = enabled })
}

// WithMaxLocations bounds the locations of a value before it is widened.
func WithMaxLocations(n int) Option {
	return optionFunc(func(r *runner) { r.cfg.MaxLocations = n })
}

// WithMaxIterations bounds the fixed-point iteration of each function.
func WithMaxIterations(n int) Option {
	return optionFunc(func(r *runner) { r.cfg.MaxIterations = n })
}

// WithKeepMemberNullState stops nil checks of an object from changing what
// is known about its fields.
func WithKeepMemberNullState(keep bool) Option {
	return optionFunc(func(r *runner) { r.cfg.KeepMemberNullState = keep })
}

// WithLogger sets the logger receiving progress and skipped functions.
func WithLogger(logger log.FieldLogger) Option {
	return optionFunc(func(r *runner) { r.logger = logger })
}

// registerFlags binds the settings of r to flags.
func registerFlags(r *runner, flags *flag.FlagSet) {
	c := &r.cfg
	flags.Var(&c.Interprocedural, "interprocedural", "call handling: none, context-sensitive or context-insensitive")
	flags.IntVar(&c.MaxCallChain, "max-call-chain", c.MaxCallChain, "maximum depth of analysed calls")
	flags.IntVar(&c.MaxLambdaCallChain, "max-lambda-call-chain", c.MaxLambdaCallChain, "maximum depth of analysed closure calls")
	flags.BoolVar(&c.Pessimistic, "pessimistic", c.Pessimistic, "opaque calls invalidate what they can reach")
	flags.BoolVar(&c.CopyAnalysis, "copy-analysis", c.CopyAnalysis, "refine copies of compared values")
	flags.IntVar(&c.MaxLocations, "max-locations", c.MaxLocations, "locations per value before widening")
	flags.IntVar(&c.MaxIterations, "max-iterations", c.MaxIterations, "block visits per function before giving up (0 for the default)")
	flags.BoolVar(&c.KeepMemberNullState, "keep-member-null-state", c.KeepMemberNullState, "fields keep their nullness when their object is checked")
}
