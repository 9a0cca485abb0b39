// Package config holds the user-facing settings of the nil-safety checks and
// their YAML form.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BarrensZeppelin/pointsto"
	"gopkg.in/yaml.v3"
)

// Mode is the name of a [pointsto.InterproceduralKind].
type Mode pointsto.InterproceduralKind

var modeNames = map[Mode]string{
	Mode(pointsto.InterproceduralNone): "none",
	Mode(pointsto.ContextSensitive):    "context-sensitive",
	Mode(pointsto.NonContextSensitive): "context-insensitive",
}

// ParseMode returns the mode called name.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown interprocedural mode %q", name)
}

func (m Mode) String() string { return modeNames[m] }

// Set implements flag.Value.
func (m *Mode) Set(name string) error {
	parsed, err := ParseMode(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *Mode) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	return m.Set(name)
}

func (m Mode) MarshalYAML() (any, error) { return m.String(), nil }

// Config is the YAML-facing subset of [pointsto.AnalysisConfig].
type Config struct {
	Interprocedural     Mode `yaml:"interprocedural"`
	MaxCallChain        int  `yaml:"max-call-chain"`
	MaxLambdaCallChain  int  `yaml:"max-lambda-call-chain"`
	Pessimistic         bool `yaml:"pessimistic"`
	CopyAnalysis        bool `yaml:"copy-analysis"`
	MaxLocations        int  `yaml:"max-locations"`
	MaxIterations       int  `yaml:"max-iterations"`
	KeepMemberNullState bool `yaml:"keep-member-null-state"`
}

// Default returns the settings used for nil checking: context-sensitive
// calls two levels deep, opaque calls that may change anything they can
// reach, and fields whose nullness does not follow their object's.
func Default() Config {
	return Config{
		Interprocedural:     Mode(pointsto.ContextSensitive),
		MaxCallChain:        2,
		MaxLambdaCallChain:  2,
		Pessimistic:         true,
		CopyAnalysis:        true,
		MaxLocations:        pointsto.DefaultMaxLocations,
		KeepMemberNullState: true,
	}
}

// Load reads a configuration file. Settings it does not mention keep their
// default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration. Unknown keys are errors.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the analysis cannot run with.
func (c Config) Validate() error {
	if _, ok := modeNames[c.Interprocedural]; !ok {
		return fmt.Errorf("unknown interprocedural mode %d", c.Interprocedural)
	}
	for name, v := range map[string]int{
		"max-call-chain":        c.MaxCallChain,
		"max-lambda-call-chain": c.MaxLambdaCallChain,
		"max-locations":         c.MaxLocations,
		"max-iterations":        c.MaxIterations,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	return nil
}

// Analysis returns the analysis configuration c describes. Zero limits
// select the analysis defaults.
func (c Config) Analysis() pointsto.AnalysisConfig {
	return pointsto.AnalysisConfig{
		Interprocedural: pointsto.InterproceduralConfig{
			Kind:               pointsto.InterproceduralKind(c.Interprocedural),
			MaxCallChain:       c.MaxCallChain,
			MaxLambdaCallChain: c.MaxLambdaCallChain,
		},
		Pessimistic:         c.Pessimistic,
		CopyAnalysis:        c.CopyAnalysis,
		MaxLocations:        c.MaxLocations,
		MaxIterations:       c.MaxIterations,
		KeepMemberNullState: c.KeepMemberNullState,
	}
}
