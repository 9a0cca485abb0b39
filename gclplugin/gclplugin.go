// Package gclplugin registers the nil dereference analyzer as a golangci-lint
// module plugin.
package gclplugin

import (
	"fmt"

	"github.com/BarrensZeppelin/pointsto/passes/nilness"
	"github.com/golangci/plugin-module-register/register"
	"golang.org/x/tools/go/analysis"
)

const name = "pointsto"

func init() { register.Plugin(name, New) }

// New decodes the plugin settings of .golangci.yml and configures the
// analyzer. Invalid settings fail here, before any package is loaded.
func New(rawSettings any) (register.LinterPlugin, error) {
	settings, err := register.DecodeSettings[Settings](rawSettings)
	if err != nil {
		return nil, fmt.Errorf("%s settings: %w", name, err)
	}
	opts, err := settings.Options()
	if err != nil {
		return nil, fmt.Errorf("%s settings: %w", name, err)
	}

	return &linter{analyzer: nilness.New(opts...)}, nil
}

type linter struct {
	analyzer *analysis.Analyzer
}

// SSA construction needs type information.
func (*linter) GetLoadMode() string { return register.LoadModeTypesInfo }

func (l *linter) BuildAnalyzers() ([]*analysis.Analyzer, error) {
	return []*analysis.Analyzer{l.analyzer}, nil
}
