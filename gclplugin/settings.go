package gclplugin

import (
	"github.com/BarrensZeppelin/pointsto"
	"github.com/BarrensZeppelin/pointsto/internal/config"
	"github.com/BarrensZeppelin/pointsto/passes/nilness"
)

// Settings are the plugin options in .golangci.yml. Unset options keep the
// analyzer defaults.
type Settings struct {
	// Interprocedural is none, context-sensitive or context-insensitive.
	Interprocedural *string `json:"interprocedural,omitzero"`
	// MaxCallChain also sets MaxLambdaCallChain unless that is given.
	MaxCallChain        *int  `json:"max-call-chain,omitzero"`
	MaxLambdaCallChain  *int  `json:"max-lambda-call-chain,omitzero"`
	Pessimistic         *bool `json:"pessimistic,omitzero"`
	CopyAnalysis        *bool `json:"copy-analysis,omitzero"`
	MaxLocations        *int  `json:"max-locations,omitzero"`
	MaxIterations       *int  `json:"max-iterations,omitzero"`
	KeepMemberNullState *bool `json:"keep-member-null-state,omitzero"`
}

// Options converts the settings that are present into analyzer options.
func (s Settings) Options() ([]nilness.Option, error) {
	var opts []nilness.Option

	if s.Interprocedural != nil {
		mode, err := config.ParseMode(*s.Interprocedural)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nilness.WithInterprocedural(pointsto.InterproceduralKind(mode)))
	}
	opts = appendOption(opts, s.MaxCallChain, nilness.WithMaxCallChain)
	opts = appendOption(opts, s.MaxLambdaCallChain, nilness.WithMaxLambdaCallChain)
	opts = appendOption(opts, s.Pessimistic, nilness.WithPessimistic)
	opts = appendOption(opts, s.CopyAnalysis, nilness.WithCopyAnalysis)
	opts = appendOption(opts, s.MaxLocations, nilness.WithMaxLocations)
	opts = appendOption(opts, s.MaxIterations, nilness.WithMaxIterations)
	opts = appendOption(opts, s.KeepMemberNullState, nilness.WithKeepMemberNullState)

	return opts, nil
}

func appendOption[T any](opts []nilness.Option, value *T, constructor func(T) nilness.Option) []nilness.Option {
	if value == nil {
		return opts
	}

	return append(opts, constructor(*value))
}
